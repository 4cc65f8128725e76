// Package shared holds response helpers used by every HTTP handler.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "vetgate/pkg/domain-errors"
)

// ErrorResponse is the uniform error envelope. Error carries the machine
// readable code; Field is set for validation failures so clients can highlight
// the offending input.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its HTTP status and writes the error
// envelope. Unknown errors collapse to an opaque internal error; internals
// never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{
		Error: string(code),
		Field: dErrors.FieldOf(err),
	}

	var dErr *dErrors.DomainError
	if errors.As(err, &dErr) {
		resp.Message = dErr.Message
	} else {
		resp.Error = string(dErrors.CodeInternal)
		resp.Message = "internal error"
	}

	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}
