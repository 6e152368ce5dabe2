package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// bodyValidator runs struct-tag validation on decoded request bodies before
// they reach the session.Controller, the way the teacher's utcp layer
// validates an inbound envelope before handing it to a handler. A single
// instance is reused across requests; Validator.Struct is safe for
// concurrent use.
var bodyValidator = validator.New(validator.WithRequiredStructEnabled())

// decodeBody JSON-decodes r.Body into dst and runs struct-tag validation,
// writing the standard error envelope and returning false on either
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, 40010000, "malformed request body", "")
		return false
	}
	if err := bodyValidator.Struct(dst); err != nil {
		field, msg := firstValidationError(err)
		writeError(w, http.StatusBadRequest, 40010000, msg, field)
		return false
	}
	return true
}

// firstValidationError reduces a validator.ValidationErrors to the single
// field/message pair the error envelope (spec §7) reports, matching how
// writeDomainError surfaces only the first simerr violation.
func firstValidationError(err error) (field, message string) {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "", "request body failed validation"
	}
	fe := verrs[0]
	return fe.Field(), fe.Field() + " failed the \"" + fe.Tag() + "\" validation rule"
}
