// Package intake validates candidate data ahead of a screening submission.
// Validation is pure and side-effect free; it never calls the provider.
package intake

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"

	"vetgate/internal/catalog"
	dErrors "vetgate/pkg/domain-errors"
)

// nationalIDPattern accepts alphanumeric identifiers with optional dashes,
// 6-20 characters. Covers SSN-style and alphanumeric national ID formats.
var nationalIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{4,18}[A-Za-z0-9]$`)

// Validator checks intake payloads against the rules the provider enforces
// server-side, so operators get actionable errors before any external call.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report errors using JSON field names so the presentation layer can point
	// at the exact input.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("national_id", func(fl validator.FieldLevel) bool {
		return nationalIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		parsed, err := libphonenumber.Parse(fl.Field().String(), "US")
		if err != nil {
			return false
		}
		return libphonenumber.IsValidNumber(parsed)
	})

	return &Validator{validate: v}
}

// Validate checks the candidate against base rules plus tier-contextual rules.
// Returns a validation error naming the first offending field, or nil.
func (v *Validator) Validate(c Candidate, tier catalog.Tier) error {
	if err := v.validate.Struct(c); err != nil {
		return translate(err)
	}

	// Driving-record checks are part of the standard and comprehensive tiers,
	// so those submissions must carry license details.
	if tier.RequiresDriverLicense() {
		if c.DriverLicenseNumber == "" {
			return dErrors.NewField(dErrors.CodeValidation, "driver_license_number",
				"is required for the selected package tier")
		}
		if c.DriverLicenseState == "" {
			return dErrors.NewField(dErrors.CodeValidation, "driver_license_state",
				"is required for the selected package tier")
		}
	}
	return nil
}

func translate(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return dErrors.Wrap(err, dErrors.CodeValidation, "intake validation failed")
	}
	// Short-circuit on the first failure, matching the precondition ordering
	// the orchestrator promises callers.
	fe := fieldErrs[0]
	if fe.Tag() == "required" {
		return dErrors.NewField(dErrors.CodeValidation, fe.Field(), "is required")
	}
	return dErrors.NewField(dErrors.CodeValidation, fe.Field(), "has an invalid format")
}
