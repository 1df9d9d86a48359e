package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "trustplane/pkg/domain"
	dErrors "trustplane/pkg/domain-errors"
)

func TestCredential_IsActive(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	tests := []struct {
		name   string
		cred   Credential
		active bool
		status string
	}{
		{"no expiry", Credential{}, true, "active"},
		{"future expiry", Credential{ExpiresAt: &future}, true, "active"},
		{"expired", Credential{ExpiresAt: &past}, false, "expired"},
		{"expires exactly now", Credential{ExpiresAt: &now}, false, "expired"},
		{"revoked", Credential{RevokedAt: &past}, false, "revoked"},
		{"revoked with future expiry", Credential{RevokedAt: &past, ExpiresAt: &future}, false, "revoked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.active, tt.cred.IsActive(now))
			assert.Equal(t, tt.status, tt.cred.Status(now))
		})
	}
}

func TestCreateRequest_Validate(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	owner := id.SubjectID(uuid.New())

	tests := []struct {
		name string
		req  CreateRequest
		ok   bool
	}{
		{"valid", CreateRequest{OwnerID: owner, Name: "ci"}, true},
		{"missing owner", CreateRequest{Name: "ci"}, false},
		{"blank name", CreateRequest{OwnerID: owner, Name: "   "}, false},
		{"long name", CreateRequest{OwnerID: owner, Name: strings.Repeat("n", 101)}, false},
		{"past expiry", CreateRequest{OwnerID: owner, Name: "ci", ExpiresAt: &past}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize()
			err := tt.req.Validate(now)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestCreateRequest_NormalizeDropsBlankDescription(t *testing.T) {
	blank := "  "
	padded := " nightly export "
	r := CreateRequest{Name: "  ci ", Description: &blank}
	r.Normalize()
	assert.Equal(t, "ci", r.Name)
	assert.Nil(t, r.Description)

	r = CreateRequest{Name: "ci", Description: &padded}
	r.Normalize()
	assert.Equal(t, "nightly export", *r.Description)
}
