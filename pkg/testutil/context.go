package testutil

import (
	"net/http"

	"vetgate/pkg/requestcontext"
)

// WithOperator adds an operator identity to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithOperator(req *http.Request, operator string) *http.Request {
	if operator == "" {
		return req
	}
	return req.WithContext(requestcontext.WithOperatorID(req.Context(), operator))
}
