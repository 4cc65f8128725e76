// Package domain holds typed identifiers shared across packages. Distinct ID
// types prevent cross-wiring a check ID where an application ID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "vetgate/pkg/domain-errors"
)

type (
	// CheckID identifies a BackgroundCheck record.
	CheckID uuid.UUID
	// ApplicationID references the hiring application that owns a check.
	// The application itself lives outside this service.
	ApplicationID uuid.UUID
)

func NewCheckID() CheckID { return CheckID(uuid.New()) }

func (i CheckID) String() string { return uuid.UUID(i).String() }
func (i CheckID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }

func (i ApplicationID) String() string { return uuid.UUID(i).String() }
func (i ApplicationID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }

func (i CheckID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *CheckID) UnmarshalText(data []byte) error {
	parsed, err := ParseCheckID(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i ApplicationID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *ApplicationID) UnmarshalText(data []byte) error {
	parsed, err := ParseApplicationID(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// ParseCheckID parses and validates a check ID at a trust boundary.
func ParseCheckID(raw string) (CheckID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return CheckID{}, err
	}
	return CheckID(parsed), nil
}

// ParseApplicationID parses and validates an application ID at a trust boundary.
func ParseApplicationID(raw string) (ApplicationID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return ApplicationID{}, err
	}
	return ApplicationID(parsed), nil
}

// parseUUID rejects empty, malformed, and nil UUIDs. IDs must be valid,
// non-nil UUIDs everywhere past the transport layer.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}
