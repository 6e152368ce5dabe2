package httpapi

import (
	"encoding/json"
	"net/http"

	"jax-trading-assistant/internal/simerr"
)

// errorEnvelope is the wire shape spec §6/§7 mandates for every non-2xx
// response.
type errorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// statusAndCode maps a simerr.Kind to its HTTP status and numeric wire
// code (spec §7's table).
func statusAndCode(kind simerr.Kind) (int, int) {
	switch kind {
	case simerr.KindInvalidArgument:
		return http.StatusBadRequest, 40010000
	case simerr.KindUnauthenticated:
		return http.StatusUnauthorized, 40110000
	case simerr.KindNotFound:
		return http.StatusNotFound, 40410000
	case simerr.KindConflict:
		return http.StatusConflict, 40090000
	case simerr.KindInsufficientFunds:
		return http.StatusBadRequest, 40010001
	case simerr.KindPdtViolation:
		return http.StatusBadRequest, 40010002
	case simerr.KindNotImplemented:
		return http.StatusNotImplemented, 50100000
	case simerr.KindUnavailable:
		return http.StatusServiceUnavailable, 50300000
	default:
		return http.StatusInternalServerError, 50000000
	}
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, status, code int, message, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Code: code, Message: message, Field: field})
}

// writeDomainError inspects err for a simerr.Kind (or simerr.Errors
// aggregate) and writes the matching envelope, highlighting the first
// offending field per spec §7.
func writeDomainError(w http.ResponseWriter, err error) {
	if errs, ok := err.(simerr.Errors); ok && !errs.IsEmpty() {
		first := errs.First()
		status, code := statusAndCode(first.Kind)
		writeError(w, status, code, first.Error(), first.Field)
		return
	}
	if e, ok := err.(*simerr.Error); ok {
		status, code := statusAndCode(e.Kind)
		writeError(w, status, code, e.Message, e.Field)
		return
	}
	status, code := statusAndCode(simerr.KindOf(err))
	writeError(w, status, code, err.Error(), "")
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
