package models

import (
	"strings"
	"time"

	id "trustplane/pkg/domain"
	dErrors "trustplane/pkg/domain-errors"
)

const maxNameLength = 100

// Credential is an opaque API key record. Only the digest of the secret is
// stored; records are never deleted and revocation is terminal.
type Credential struct {
	ID           id.CredentialID
	OwnerID      id.SubjectID
	Name         string
	Description  *string
	HashedSecret string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ExpiresAt    *time.Time
	LastUsedAt   *time.Time
	RevokedAt    *time.Time
}

// IsActive reports whether the credential authenticates at now.
func (c *Credential) IsActive(now time.Time) bool {
	if c.RevokedAt != nil {
		return false
	}
	return c.ExpiresAt == nil || c.ExpiresAt.After(now)
}

// Status is the display state used by the admin console.
func (c *Credential) Status(now time.Time) string {
	switch {
	case c.RevokedAt != nil:
		return "revoked"
	case !c.IsActive(now):
		return "expired"
	default:
		return "active"
	}
}

// CreateRequest is the admin input for issuing a credential.
type CreateRequest struct {
	OwnerID     id.SubjectID `json:"owner_id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

// Normalize trims user-supplied text.
func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		if d == "" {
			r.Description = nil
		} else {
			r.Description = &d
		}
	}
}

// Validate checks the request against now.
func (r *CreateRequest) Validate(now time.Time) error {
	if r.OwnerID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "owner_id is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 100 characters")
	}
	if r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
		return dErrors.New(dErrors.CodeValidation, "expires_at must be in the future")
	}
	return nil
}

// View is the admin-facing projection. It never carries the digest.
type View struct {
	ID          id.CredentialID `json:"id"`
	OwnerID     id.SubjectID    `json:"owner_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	LastUsedAt  *time.Time      `json:"last_used_at,omitempty"`
	RevokedAt   *time.Time      `json:"revoked_at,omitempty"`
}

func NewView(c *Credential, now time.Time) View {
	return View{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		Name:        c.Name,
		Description: c.Description,
		Status:      c.Status(now),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		ExpiresAt:   c.ExpiresAt,
		LastUsedAt:  c.LastUsedAt,
		RevokedAt:   c.RevokedAt,
	}
}

// Created is returned once on issuance and is the only place the plaintext
// secret ever appears.
type Created struct {
	View
	Secret string `json:"secret"`
}
