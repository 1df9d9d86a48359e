// Package domain holds typed identifiers shared across bounded contexts.
//
// Typed IDs keep a subject id from being passed where a credential id is
// expected. Construct them with the Parse* functions at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "trustplane/pkg/domain-errors"
)

type (
	SubjectID    uuid.UUID
	CredentialID uuid.UUID
	OrderID      uuid.UUID
	ListingID    uuid.UUID
	ReviewID     uuid.UUID
	AddressID    uuid.UUID
	CartID       uuid.UUID
)

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return parsed, nil
}

// ParseSubjectID parses a data subject identifier from external input.
func ParseSubjectID(s string) (SubjectID, error) {
	u, err := parseUUID(s, "subject ID")
	return SubjectID(u), err
}

// ParseCredentialID parses a credential identifier from external input.
func ParseCredentialID(s string) (CredentialID, error) {
	u, err := parseUUID(s, "credential ID")
	return CredentialID(u), err
}

// ParseOrderID parses an order identifier from external input.
func ParseOrderID(s string) (OrderID, error) {
	u, err := parseUUID(s, "order ID")
	return OrderID(u), err
}

func (id SubjectID) String() string    { return uuid.UUID(id).String() }
func (id SubjectID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id CredentialID) String() string { return uuid.UUID(id).String() }
func (id CredentialID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id OrderID) String() string      { return uuid.UUID(id).String() }
func (id OrderID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ListingID) String() string    { return uuid.UUID(id).String() }
func (id ReviewID) String() string     { return uuid.UUID(id).String() }
func (id AddressID) String() string    { return uuid.UUID(id).String() }
func (id CartID) String() string       { return uuid.UUID(id).String() }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.
func (id SubjectID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id CredentialID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id OrderID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id ListingID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id ReviewID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id AddressID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id CartID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }

func (id *SubjectID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *CredentialID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *OrderID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *ListingID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *ReviewID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *AddressID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *CartID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
