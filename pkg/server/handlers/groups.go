package handlers

import (
	"net/http"

	"github.com/greener-project/greener/pkg/model"
	"github.com/greener-project/greener/pkg/query"
	"github.com/greener-project/greener/pkg/stores"
)

type GroupHandler struct {
	testcases *stores.TestcaseStore
}

func NewGroupHandler(testcases *stores.TestcaseStore) *GroupHandler {
	return &GroupHandler{testcases: testcases}
}

type groupItemResponse struct {
	Columns []*string    `json:"columns"`
	Status  model.Status `json:"status"`
}

type groupPageResponse struct {
	pageResponse
	Header           []string      `json:"header"`
	AggregatedStatus *model.Status `json:"aggregatedStatus"`
}

// ValidateQuery parses the query string and reports whether it is a
// grouping query, without executing anything.
func (h *GroupHandler) ValidateQuery(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		writeError(w, err)
		return
	}

	parsed, err := query.Parse(r.URL.Query().Get("queryStr"))
	if err != nil {
		writeError(w, err)
		return
	}
	_, isGrouping := parsed.(query.QueryWithGroupBy)
	writeJSON(w, http.StatusOK, struct {
		IsGrouping bool `json:"isGrouping"`
	}{isGrouping})
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, limit, err := pagination(r, 10)
	if err != nil {
		writeError(w, err)
		return
	}

	parsed, err := query.Parse(r.URL.Query().Get("queryStr"))
	if err != nil {
		writeError(w, err)
		return
	}

	// A non-grouping query yields an empty envelope, not an error.
	gq, isGrouping := parsed.(query.QueryWithGroupBy)
	if !isGrouping {
		writeJSON(w, http.StatusOK, groupPageResponse{
			pageResponse: pageResponse{Items: []groupItemResponse{}, Offset: offset, Limit: limit},
		})
		return
	}

	opts := stores.ListOptions{Offset: offset, Limit: limit}
	if opts.StartDate, err = dateParam(r, "startDate"); err != nil {
		writeError(w, err)
		return
	}
	if opts.EndDate, err = dateParam(r, "endDate"); err != nil {
		writeError(w, err)
		return
	}

	list, err := h.testcases.ListGroups(r.Context(), userID, gq, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]groupItemResponse, 0, len(list.Items))
	for _, item := range list.Items {
		items = append(items, groupItemResponse{Columns: item.Columns, Status: item.Status})
	}
	writeJSON(w, http.StatusOK, groupPageResponse{
		pageResponse:     pageResponse{Items: items, Total: list.Total, Offset: offset, Limit: limit},
		Header:           list.Header,
		AggregatedStatus: list.AggregatedStatus,
	})
}
