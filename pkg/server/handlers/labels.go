package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/greener-project/greener/pkg/model"
	"github.com/greener-project/greener/pkg/stores"
)

type LabelHandler struct {
	sessions *stores.SessionStore
	labels   *stores.LabelStore
}

func NewLabelHandler(sessions *stores.SessionStore, labels *stores.LabelStore) *LabelHandler {
	return &LabelHandler{sessions: sessions, labels: labels}
}

type labelResponse struct {
	Key       string    `json:"key"`
	Value     *string   `json:"value"`
	SessionID uuid.UUID `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

func newLabelResponse(label *model.Label) labelResponse {
	return labelResponse{
		Key:       label.Key,
		Value:     label.Value,
		SessionID: label.SessionID,
		CreatedAt: label.CreatedAt,
	}
}

// List returns the labels of one session, which must belong to the
// authenticated user.
func (h *LabelHandler) List(w http.ResponseWriter, r *http.Request) {
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

	sessionID, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, notFoundDetail("Session not found"))
		return
	}
	if _, err := h.sessions.Get(r.Context(), userID, sessionID); err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			writeError(w, notFoundDetail("Session not found"))
			return
		}
		writeError(w, err)
		return
	}

	labels, total, err := h.labels.ListBySession(r.Context(), sessionID, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]labelResponse, 0, len(labels))
	for i := range labels {
		items = append(items, newLabelResponse(&labels[i]))
	}
	writeJSON(w, http.StatusOK, pageResponse{Items: items, Total: total, Offset: offset, Limit: limit})
}
