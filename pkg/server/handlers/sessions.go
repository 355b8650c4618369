package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/greener-project/greener/pkg/model"
	"github.com/greener-project/greener/pkg/stores"
)

type SessionHandler struct {
	sessions *stores.SessionStore
}

func NewSessionHandler(sessions *stores.SessionStore) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type sessionResponse struct {
	ID          uuid.UUID     `json:"id"`
	Description *string       `json:"description"`
	Baggage     model.JSONMap `json:"baggage"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func newSessionResponse(session *model.Session) sessionResponse {
	return sessionResponse{
		ID:          session.ID,
		Description: session.Description,
		Baggage:     session.Baggage,
		CreatedAt:   session.CreatedAt,
	}
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
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

	sessions, total, err := h.sessions.List(r.Context(), userID, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		items = append(items, newSessionResponse(&sessions[i]))
	}
	writeJSON(w, http.StatusOK, pageResponse{Items: items, Total: total, Offset: offset, Limit: limit})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	session, err := h.sessions.Get(r.Context(), userID, id)
	if errors.Is(err, stores.ErrNotFound) {
		writeError(w, notFound())
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}
