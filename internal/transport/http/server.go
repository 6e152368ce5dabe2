package httpapi

import (
	"log"
	"net/http"

	"jax-trading-assistant/internal/core/session"
	"jax-trading-assistant/internal/store"
	"jax-trading-assistant/libs/auth"
	"jax-trading-assistant/libs/middleware"
)

// Server wires the SessionController behind the wire API spec §6 defines,
// following the shape of the teacher's services/jax-api/internal/infra/http
// Server: a bare http.ServeMux plus a composed middleware chain, built in
// NewServer and exposed as a single http.Handler via Handler().
type Server struct {
	mux *http.ServeMux

	controller *session.Controller
	bars       store.BarStore

	auth        *Authenticator
	adminAuth   *auth.JWTManager
	rateLimiter *middleware.RateLimiter
	corsConfig  middleware.CORSConfig
}

// NewServer builds a Server. auth may be nil (development mode, every
// request allowed) when no ApiKeys__* environment variables are set. The
// admin surface (bearer-JWT protected) is enabled only when JWT_SECRET
// is set; see NewAdminAuthFromEnv.
func NewServer(controller *session.Controller, bars store.BarStore, apiAuth *Authenticator) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		controller:  controller,
		bars:        bars,
		auth:        apiAuth,
		adminAuth:   NewAdminAuthFromEnv(),
		rateLimiter: middleware.NewRateLimiterFromEnv(),
		corsConfig:  middleware.CORSConfigFromEnv(),
	}
	s.routes()
	return s
}

// Handler returns the fully composed HTTP handler: rate limiting wraps
// CORS wraps flow-ID tracing wraps the mux, matching the teacher's
// ordering (innermost to outermost is tracing, then CORS, then rate
// limit).
func (s *Server) Handler() http.Handler {
	handler := http.Handler(s.mux)
	handler = middleware.FlowID(handler)
	handler = middleware.CORS(s.corsConfig)(handler)
	handler = s.rateLimiter.Middleware(handler)
	return handler
}

func (s *Server) routes() {
	s.mux.HandleFunc("/v1/sessions", s.protect(s.handleSessionsCollection))
	s.mux.HandleFunc("/v1/sessions/", s.protect(s.handleSessionItem))

	s.mux.HandleFunc("/v1/accounts", s.protect(s.handleAccountsCollection))
	s.mux.HandleFunc("/v1/accounts/", s.protect(s.handleAccountItem))

	s.mux.HandleFunc("/v1/trading/accounts/", s.protect(s.handleTrading))

	s.mux.HandleFunc("/v1/assets", s.protect(s.handleAssets))
	s.mux.HandleFunc("/v1/assets/", s.protect(s.handleAssetItem))

	s.mux.HandleFunc("/v1/admin/policy", s.protectAdmin(s.handleAdminPolicy))

	s.mux.HandleFunc("/metrics", s.handleMetrics)

	log.Println("httpapi: routes registered under /v1")
}
