package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/greener-project/greener/pkg/auth"
	"github.com/greener-project/greener/pkg/model"
	"github.com/greener-project/greener/pkg/stores"
)

type APIKeyHandler struct {
	apikeys *stores.APIKeyStore
}

func NewAPIKeyHandler(apikeys *stores.APIKeyStore) *APIKeyHandler {
	return &APIKeyHandler{apikeys: apikeys}
}

type apiKeyResponse struct {
	ID          uuid.UUID `json:"id"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newAPIKeyResponse(key *model.APIKey) apiKeyResponse {
	return apiKeyResponse{ID: key.ID, Description: key.Description, CreatedAt: key.CreatedAt}
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Description *string `json:"description"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	secret, err := auth.NewAPIKeySecret()
	if err != nil {
		writeError(w, err)
		return
	}
	salt, err := auth.NewSalt()
	if err != nil {
		writeError(w, err)
		return
	}

	key := &model.APIKey{
		Description: body.Description,
		SecretSalt:  salt,
		SecretHash:  auth.HashSecret(secret, salt),
		UserID:      userID,
	}
	if err := h.apikeys.Create(r.Context(), key); err != nil {
		writeError(w, err)
		return
	}

	// The composite key is handed out exactly once; only the hash is
	// stored.
	encoded, err := auth.EncodeAPIKey(key.ID, secret)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		apiKeyResponse
		Key string `json:"key"`
	}{newAPIKeyResponse(key), encoded})
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
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

	keys, total, err := h.apikeys.List(r.Context(), userID, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]apiKeyResponse, 0, len(keys))
	for i := range keys {
		items = append(items, newAPIKeyResponse(&keys[i]))
	}
	writeJSON(w, http.StatusOK, pageResponse{Items: items, Total: total, Offset: offset, Limit: limit})
}

func (h *APIKeyHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	key, err := h.apikeys.Get(r.Context(), userID, id)
	if errors.Is(err, stores.ErrNotFound) {
		writeError(w, notFound())
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAPIKeyResponse(key))
}

func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	err = h.apikeys.Delete(r.Context(), userID, id)
	if errors.Is(err, stores.ErrNotFound) {
		writeError(w, notFound())
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
