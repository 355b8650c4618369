// Package router assembles the HTTP surface: the /api/v1 routes, the
// middleware chain and the auth boundary between public and protected
// paths.
package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/greener-project/greener/pkg/auth"
	"github.com/greener-project/greener/pkg/metrics"
	"github.com/greener-project/greener/pkg/server/handlers"
	"github.com/greener-project/greener/pkg/stores"
)

// Services are the collaborators the handlers are wired to.
type Services struct {
	Tokens    *auth.TokenService
	Users     *stores.UserStore
	APIKeys   *stores.APIKeyStore
	Sessions  *stores.SessionStore
	Labels    *stores.LabelStore
	Testcases *stores.TestcaseStore
}

type Options struct {
	CORSAllowedOrigins []string
	Metrics            bool
}

// New builds the full handler. Auth-exempt paths are /auth/login,
// /auth/refresh, the ingress endpoints (which verify X-API-Key
// themselves) and /ready; everything else under /api/v1 requires a
// bearer access token.
func New(svc Services, opts Options) http.Handler {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Tokens)
	apiKeyHandler := handlers.NewAPIKeyHandler(svc.APIKeys)
	sessionHandler := handlers.NewSessionHandler(svc.Sessions)
	labelHandler := handlers.NewLabelHandler(svc.Sessions, svc.Labels)
	testcaseHandler := handlers.NewTestcaseHandler(svc.Testcases)
	groupHandler := handlers.NewGroupHandler(svc.Testcases)
	ingressHandler := handlers.NewIngressHandler(svc.APIKeys, svc.Sessions, svc.Labels, svc.Testcases)

	root := mux.NewRouter()
	root.Use(CORS(opts.CORSAllowedOrigins))
	root.Use(RequestLogger)
	if opts.Metrics {
		root.Use(metrics.Middleware)
		root.Path("/metrics").Handler(metrics.Handler())
	}

	api := root.PathPrefix("/api/v1").Subrouter()

	public := api.NewRoute().Subrouter()
	public.Path("/auth/login").Methods(http.MethodPost).HandlerFunc(authHandler.Login)
	public.Path("/auth/refresh").Methods(http.MethodPost).HandlerFunc(authHandler.Refresh)
	public.Path("/ingress/sessions").Methods(http.MethodPost).HandlerFunc(ingressHandler.CreateSession)
	public.Path("/ingress/testcases").Methods(http.MethodPost).HandlerFunc(ingressHandler.CreateTestcases)
	public.Path("/ready").Methods(http.MethodGet).HandlerFunc(handlers.Ready)

	protected := api.NewRoute().Subrouter()
	protected.Use(Auth(svc.Tokens))
	protected.Path("/auth/change-password").Methods(http.MethodPost).HandlerFunc(authHandler.ChangePassword)
	protected.Path("/auth/logout").Methods(http.MethodPost).HandlerFunc(authHandler.Logout)
	protected.Path("/api-keys").Methods(http.MethodPost).HandlerFunc(apiKeyHandler.Create)
	protected.Path("/api-keys").Methods(http.MethodGet).HandlerFunc(apiKeyHandler.List)
	protected.Path("/api-keys/{id}").Methods(http.MethodGet).HandlerFunc(apiKeyHandler.Get)
	protected.Path("/api-keys/{id}").Methods(http.MethodDelete).HandlerFunc(apiKeyHandler.Delete)
	protected.Path("/sessions").Methods(http.MethodGet).HandlerFunc(sessionHandler.List)
	protected.Path("/sessions/{id}").Methods(http.MethodGet).HandlerFunc(sessionHandler.Get)
	protected.Path("/labels").Methods(http.MethodGet).HandlerFunc(labelHandler.List)
	protected.Path("/testcases").Methods(http.MethodGet).HandlerFunc(testcaseHandler.List)
	protected.Path("/testcases/{id}").Methods(http.MethodGet).HandlerFunc(testcaseHandler.Get)
	protected.Path("/groups/validate-query").Methods(http.MethodGet).HandlerFunc(groupHandler.ValidateQuery)
	protected.Path("/groups").Methods(http.MethodGet).HandlerFunc(groupHandler.List)

	return root
}
