package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/greener-project/greener/pkg/model"
	"github.com/greener-project/greener/pkg/query"
	"github.com/greener-project/greener/pkg/query/compile"
	"github.com/greener-project/greener/pkg/stores"
)

type TestcaseHandler struct {
	testcases *stores.TestcaseStore
}

func NewTestcaseHandler(testcases *stores.TestcaseStore) *TestcaseHandler {
	return &TestcaseHandler{testcases: testcases}
}

type testcaseResponse struct {
	ID        uuid.UUID     `json:"id"`
	Status    model.Status  `json:"status"`
	Name      string        `json:"name"`
	Classname *string       `json:"classname"`
	File      *string       `json:"file"`
	Testsuite *string       `json:"testsuite"`
	Output    *string       `json:"output"`
	Baggage   model.JSONMap `json:"baggage"`
	SessionID uuid.UUID     `json:"sessionId"`
	CreatedAt time.Time     `json:"createdAt"`
}

func newTestcaseResponse(testcase *model.Testcase) testcaseResponse {
	return testcaseResponse{
		ID:        testcase.ID,
		Status:    testcase.Status,
		Name:      testcase.Name,
		Classname: testcase.Classname,
		File:      testcase.File,
		Testsuite: testcase.Testsuite,
		Output:    testcase.Output,
		Baggage:   testcase.Baggage,
		SessionID: testcase.SessionID,
		CreatedAt: testcase.CreatedAt,
	}
}

type testcasePageResponse struct {
	pageResponse
	AggregatedStatus *model.Status `json:"aggregatedStatus"`
}

func (h *TestcaseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, limit, err := pagination(r, 100)
	if err != nil {
		writeError(w, err)
		return
	}

	var parsed query.Query
	if queryStr := r.URL.Query().Get("queryStr"); queryStr != "" {
		if parsed, err = query.Parse(queryStr); err != nil {
			writeError(w, err)
			return
		}
	}

	groupID, err := validateGroupParam(parsed, r.URL.Query().Get("group"))
	if err != nil {
		writeError(w, err)
		return
	}

	opts := stores.ListOptions{
		Query:   parsed,
		GroupID: groupID,
		Offset:  offset,
		Limit:   limit,
	}
	if opts.StartDate, err = dateParam(r, "startDate"); err != nil {
		writeError(w, err)
		return
	}
	if opts.EndDate, err = dateParam(r, "endDate"); err != nil {
		writeError(w, err)
		return
	}

	list, err := h.testcases.List(r.Context(), userID, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]testcaseResponse, 0, len(list.Items))
	for i := range list.Items {
		items = append(items, newTestcaseResponse(&list.Items[i]))
	}
	writeJSON(w, http.StatusOK, testcasePageResponse{
		pageResponse:     pageResponse{Items: items, Total: list.Total, Offset: offset, Limit: limit},
		AggregatedStatus: list.AggregatedStatus,
	})
}

func (h *TestcaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	testcase, err := h.testcases.Get(r.Context(), userID, id)
	if errors.Is(err, stores.ErrNotFound) {
		writeError(w, notFound())
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTestcaseResponse(testcase))
}

// validateGroupParam enforces the pairing rules between the parsed
// query and the group drill-down parameter: a grouping query requires
// a group identifier, a plain query forbids one, and the identifier
// keys must equal the keys induced by the group-by clause, in order.
func validateGroupParam(parsed query.Query, group string) (*compile.GroupID, error) {
	gq, isGrouping := parsed.(query.QueryWithGroupBy)
	hasGroup := strings.TrimSpace(group) != ""

	if isGrouping && !hasGroup {
		return nil, validationError("Group parameter is required when using a grouping query")
	}
	if !isGrouping && hasGroup {
		return nil, validationError("Group parameter can only be used with grouping queries")
	}
	if !hasGroup {
		return nil, nil
	}

	groupID, err := compile.ParseGroupID(group)
	if err != nil {
		return nil, validationError("Invalid group identifier: %s", err)
	}
	if !groupID.MatchesClause(gq.GroupBy) {
		return nil, validationError("Group keys %v do not match the grouping query keys %v",
			groupID.Keys, compile.GroupKeys(gq.GroupBy))
	}
	return groupID, nil
}
