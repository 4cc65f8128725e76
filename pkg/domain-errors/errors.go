// Package dErrors defines the typed error taxonomy shared by all services.
//
// Domain errors carry a Code that callers branch on and transports translate
// to status codes. Infrastructure layers return sentinel errors
// (pkg/platform/sentinel) and services wrap them into domain errors here.
package dErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure. Every code is recoverable by the caller;
// none is fatal to the process.
type Code string

const (
	// Workflow preconditions.
	CodeIntegrationNotConfigured Code = "integration_not_configured"
	CodeConsentRequired          Code = "consent_required"
	CodeUnknownPackage           Code = "unknown_package"
	CodeValidation               Code = "validation_failed"
	CodeProviderUnavailable      Code = "provider_unavailable"

	// General categories.
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal"
)

// DomainError is the concrete error type behind New/Wrap. Field is set for
// validation failures so the presentation layer can point at the exact input.
type DomainError struct {
	Code    Code
	Message string
	Field   string
	Err     error
}

func (e *DomainError) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s (field %s): %v", e.Code, e.Message, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s: %s (field %s)", e.Code, e.Message, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

// NewField creates a validation-style error naming the offending field.
func NewField(code Code, field, message string) error {
	return &DomainError{Code: code, Message: message, Field: field}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &DomainError{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode used at call sites that branch on codes.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from an error, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldOf extracts the field name from a validation error, if any.
func FieldOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}

// ToHTTPStatus maps a code to the HTTP status the transport layer should emit.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeConsentRequired:
		return http.StatusForbidden
	case CodeNotFound, CodeUnknownPackage:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeIntegrationNotConfigured:
		return http.StatusPreconditionFailed
	case CodeProviderUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
