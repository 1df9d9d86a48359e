package handler

import (
	"strings"
	"time"

	"trustplane/internal/credential/models"
	id "trustplane/pkg/domain"
	dErrors "trustplane/pkg/domain-errors"
)

// CreateRequest is the HTTP request body for POST /admin/credentials.
type CreateRequest struct {
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`

	parsedOwner id.SubjectID
}

// Validate parses the owner id. Field rules live in models.CreateRequest.
func (r *CreateRequest) Validate() error {
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	if r.OwnerID == "" {
		return dErrors.New(dErrors.CodeValidation, "owner_id is required")
	}
	owner, err := id.ParseSubjectID(r.OwnerID)
	if err != nil {
		return err
	}
	r.parsedOwner = owner
	return nil
}

func (r *CreateRequest) toModel() models.CreateRequest {
	return models.CreateRequest{
		OwnerID:     r.parsedOwner,
		Name:        r.Name,
		Description: r.Description,
		ExpiresAt:   r.ExpiresAt,
	}
}
