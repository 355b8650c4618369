package router

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/greener-project/greener/pkg/server/handlers"
)

//go:generate mockgen -destination=mocks/token_verifier.go -package=mocks github.com/greener-project/greener/pkg/server/router TokenVerifier

// TokenVerifier validates a bearer access token and returns the user
// it was issued for. Refresh tokens must be rejected.
type TokenVerifier interface {
	VerifyAccess(token string) (uuid.UUID, error)
}

// Auth extracts and verifies the Authorization bearer token, placing
// the user id on the request context.
func Auth(verifier TokenVerifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				handlers.WriteNotAuthorized(w)
				return
			}

			userID, err := verifier.VerifyAccess(token)
			if err != nil {
				handlers.WriteNotAuthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(handlers.WithUserID(r.Context(), userID)))
		})
	}
}

// CORS answers preflight requests and stamps the allow headers on
// every response.
func CORS(allowedOrigins []string) mux.MiddlewareFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger emits one debug line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logrus.Debugf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
