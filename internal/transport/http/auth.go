// Package httpapi is the wire API server (spec §6): versioned HTTP/JSON
// under /v1, basic auth in Authorization, X-Session-Id for session-scoped
// routes. Grounded on the teacher's services/jax-api/internal/infra/http
// server: the public wire API uses the API-key Basic auth the specification
// requires, while the teacher's own JWT bearer auth (libs/auth) is kept for
// a separate internal admin surface (see admin.go).
package httpapi

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// ErrMissingCredentials is returned when no Authorization header is present.
var ErrMissingCredentials = errors.New("missing authorization header")

// ErrInvalidCredentials is returned when the supplied key/secret pair does
// not match any configured API key.
var ErrInvalidCredentials = errors.New("invalid api key or secret")

// apiKey is one entry of the ApiKeys__N__{Key,Secret,Name} environment
// convention (spec §6).
type apiKey struct {
	Key    string
	Secret string
	Name   string
}

// Authenticator validates the Basic auth credentials presented on every
// request, in the style of the teacher's auth.JWTManager but checking a
// static key/secret table instead of signing tokens.
type Authenticator struct {
	keys []apiKey
}

// NewAuthenticatorFromEnv loads ApiKeys__0__Key, ApiKeys__0__Secret,
// ApiKeys__0__Name, ApiKeys__1__..., and so on until a gap, mirroring the
// .NET-style double-underscore configuration convention spec §6 names. A
// nil *Authenticator with ok=false means no keys are configured.
func NewAuthenticatorFromEnv() (*Authenticator, bool) {
	var keys []apiKey
	for i := 0; ; i++ {
		key := os.Getenv(fmt.Sprintf("ApiKeys__%d__Key", i))
		if key == "" {
			break
		}
		secret := os.Getenv(fmt.Sprintf("ApiKeys__%d__Secret", i))
		name := os.Getenv(fmt.Sprintf("ApiKeys__%d__Name", i))
		keys = append(keys, apiKey{Key: key, Secret: secret, Name: name})
	}
	if len(keys) == 0 {
		return nil, false
	}
	return &Authenticator{keys: keys}, true
}

// NewAuthenticator builds an Authenticator from an explicit key table, for
// tests and non-env wiring (e.g. cmd/simapi reading a config file).
func NewAuthenticator(keys []apiKey) *Authenticator {
	return &Authenticator{keys: keys}
}

// Authenticate decodes an HTTP Basic Authorization header and checks it
// against the configured key table. Comparisons are constant-time to avoid
// leaking the length of a match via timing.
func (a *Authenticator) Authenticate(header string) (name string, err error) {
	if header == "" {
		return "", ErrMissingCredentials
	}
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrInvalidCredentials
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return "", ErrInvalidCredentials
	}
	key, secret, ok := strings.Cut(string(raw), ":")
	if !ok {
		return "", ErrInvalidCredentials
	}
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare([]byte(k.Key), []byte(key)) == 1 &&
			subtle.ConstantTimeCompare([]byte(k.Secret), []byte(secret)) == 1 {
			return k.Name, nil
		}
	}
	return "", ErrInvalidCredentials
}

// protect wraps handler with Basic-auth enforcement. A nil Authenticator
// (no keys configured) runs in development mode: every request is allowed.
func (s *Server) protect(handler http.HandlerFunc) http.HandlerFunc {
	if s.auth == nil {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.Authenticate(r.Header.Get("Authorization")); err != nil {
			writeError(w, http.StatusUnauthorized, 40110000, err.Error(), "")
			return
		}
		handler(w, r)
	}
}

// requireSessionID extracts X-Session-Id, required on every session-scoped
// route (spec §6). Returns "" and writes the error response itself when
// absent.
func requireSessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get("X-Session-Id")
	if id == "" {
		writeError(w, http.StatusBadRequest, 40010001, "missing X-Session-Id header", "")
		return "", false
	}
	return id, true
}

// parseIntQuery parses a positive integer query parameter, returning def
// when absent or malformed.
func parseIntQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
