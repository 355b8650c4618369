// Package handlers implements the /api/v1 HTTP handlers: auth, API
// keys, sessions, labels, testcases, groups and the ingress write
// paths.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/greener-project/greener/pkg/query"
	"github.com/greener-project/greener/pkg/query/compile"
)

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Detail     string `json:"detail"`
}

// apiError is an error with a client-visible status and detail
// message. Anything else written through writeError becomes an opaque
// 500.
type apiError struct {
	status int
	detail string
}

func (e *apiError) Error() string {
	return e.detail
}

func validationError(format string, args ...any) *apiError {
	return &apiError{status: http.StatusBadRequest, detail: fmt.Sprintf(format, args...)}
}

func notAuthorized(detail string) *apiError {
	if detail == "" {
		detail = "Unauthorized"
	}
	return &apiError{status: http.StatusUnauthorized, detail: detail}
}

func notFound() *apiError {
	return &apiError{status: http.StatusNotFound, detail: "Not Found"}
}

func notFoundDetail(detail string) *apiError {
	return &apiError{status: http.StatusNotFound, detail: detail}
}

// WriteNotAuthorized writes the 401 envelope. The auth middleware
// lives outside this package and shares the error shape through it.
func WriteNotAuthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, errorBody{
		StatusCode: http.StatusUnauthorized,
		Detail:     "Unauthorized",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("encoding response body")
	}
}

func writeError(w http.ResponseWriter, err error) {
	var ae *apiError
	if errors.As(err, &ae) {
		writeJSON(w, ae.status, errorBody{StatusCode: ae.status, Detail: ae.detail})
		return
	}

	// Query failures carry a client-facing message; everything else
	// stays opaque.
	var parseErr *query.ParseError
	if errors.As(err, &parseErr) {
		writeJSON(w, http.StatusBadRequest, errorBody{
			StatusCode: http.StatusBadRequest,
			Detail:     fmt.Sprintf("Invalid query: %s", parseErr),
		})
		return
	}
	var compileErr *compile.Error
	if errors.As(err, &compileErr) {
		writeJSON(w, http.StatusBadRequest, errorBody{
			StatusCode: http.StatusBadRequest,
			Detail:     compileErr.Message,
		})
		return
	}

	logrus.WithError(err).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, errorBody{
		StatusCode: http.StatusInternalServerError,
		Detail:     "Internal Server Error",
	})
}
