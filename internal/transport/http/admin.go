// Internal admin surface: a small set of operator routes separate from the
// public wire API, authenticated with a bearer JWT instead of the public
// API's Basic auth, mirroring the teacher's dual auth setup (libs/auth's
// JWTManager backing internal/service routes, API keys backing the public
// ones).
package httpapi

import (
	"net/http"

	"jax-trading-assistant/libs/auth"
)

// NewAdminAuthFromEnv builds the admin JWTManager from JWT_SECRET (and
// optional JWT_EXPIRY/JWT_REFRESH_EXPIRY, per libs/auth.NewJWTManagerFromEnv),
// or returns nil when unset so the admin surface stays off by default.
func NewAdminAuthFromEnv() *auth.JWTManager {
	mgr, err := auth.NewJWTManagerFromEnv()
	if err != nil {
		return nil
	}
	return mgr
}

// protectAdmin wraps handler with bearer-JWT enforcement. A nil JWTManager
// (JWT_SECRET not set) disables the admin surface entirely:
// every route under it 404s rather than running unauthenticated.
func (s *Server) protectAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminAuth == nil {
			http.NotFound(w, r)
			return
		}
		token, err := auth.ExtractTokenFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, 40110000, err.Error(), "")
			return
		}
		claims, err := s.adminAuth.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, 40110000, err.Error(), "")
			return
		}
		if claims.Role != "admin" {
			writeError(w, http.StatusUnauthorized, 40110000, "admin role required", "")
			return
		}
		handler(w, r)
	}
}

// handleMetrics serves the controller's counters/gauges/histograms in
// Prometheus text exposition format, unauthenticated and outside /v1 like
// the teacher's own /metrics endpoints.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s.controller.Metrics().Registry.WriteText(w)
}

// handleAdminPolicy reports the tunable constants (slippage/participation
// rates, PDT thresholds, ...) the running controller was built with, for
// operators diagnosing a session's fill/margin behavior.
func (s *Server) handleAdminPolicy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p := s.controller.Policy()
	writeJSON(w, http.StatusOK, map[string]any{
		"version":             p.Version,
		"loaded_from":         p.LoadedFrom,
		"slippage_rate":       p.SlippageRate,
		"participation_rate":  p.ParticipationRate,
		"gtc_expiry_days":     p.GTCExpiryDays,
		"pdt_min_equity":      p.PdtMinEquity,
		"short_sale_ask_margin": p.ShortSaleAskMargin,
		"day_trade_window_days": p.DayTradeWindowDays,
		"quote_spread_rate":   p.QuoteSpreadRate,
	})
}
