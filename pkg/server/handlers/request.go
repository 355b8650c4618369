package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type contextKey struct{}

var userIDKey contextKey

// WithUserID stores the authenticated user on the request context.
// The auth middleware is the only writer.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID returns the authenticated user set by the auth middleware.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

func requireUser(r *http.Request) (uuid.UUID, error) {
	id, ok := UserID(r.Context())
	if !ok {
		return uuid.Nil, notAuthorized("")
	}
	return id, nil
}

// decodeJSON decodes a request body into dst, rejecting unknown
// fields.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return validationError("Invalid request body: %s", err)
	}
	return nil
}

// pagination reads the offset and limit query parameters, falling
// back to defaultLimit.
func pagination(r *http.Request, defaultLimit int) (offset, limit int, err error) {
	offset, err = intParam(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	limit, err = intParam(r, "limit", defaultLimit)
	if err != nil {
		return 0, 0, err
	}
	if offset < 0 {
		return 0, 0, validationError("offset must be non-negative")
	}
	if limit < 0 {
		return 0, 0, validationError("limit must be non-negative")
	}
	return offset, limit, nil
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validationError("Invalid %s: %s", name, raw)
	}
	return value, nil
}

// dateParam reads an ISO-8601 timestamp parameter, accepting both the
// zoned RFC 3339 form and a bare local form without zone.
func dateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", raw)
	if err != nil {
		return nil, validationError("Invalid %s: %s", name, raw)
	}
	return &t, nil
}

// pathID parses the {id} path variable. A malformed id behaves like a
// missing row.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, notFound()
	}
	return id, nil
}

// pageResponse is the envelope shared by all list endpoints.
type pageResponse struct {
	Items  any `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
