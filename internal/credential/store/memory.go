package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"trustplane/internal/credential/models"
	id "trustplane/pkg/domain"
)

// InMemoryStore keeps credentials in maps guarded by one mutex, so the
// conditional revoke and the active lookup are linearizable.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[id.CredentialID]*models.Credential
	byHash map[string]id.CredentialID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[id.CredentialID]*models.Credential),
		byHash: make(map[string]id.CredentialID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[cred.ID]; ok {
		return ErrConflict
	}
	if _, ok := s.byHash[cred.HashedSecret]; ok {
		return ErrConflict
	}
	c := clone(cred)
	s.byID[c.ID] = c
	s.byHash[c.HashedSecret] = c.ID
	return nil
}

func (s *InMemoryStore) FindActiveByHash(_ context.Context, hashedSecret string, now time.Time) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credID, ok := s.byHash[hashedSecret]
	if !ok {
		return nil, ErrNotFound
	}
	c := s.byID[credID]
	if !c.IsActive(now) {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

func (s *InMemoryStore) FindByID(_ context.Context, credID id.CredentialID) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[credID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

// ListByOwner returns the owner's credentials newest first.
func (s *InMemoryStore) ListByOwner(_ context.Context, owner id.SubjectID) ([]*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Credential
	for _, c := range s.byID {
		if c.OwnerID == owner {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Revoke sets revokedAt only if it is unset. The bool reports whether this
// call performed the transition.
func (s *InMemoryStore) Revoke(_ context.Context, credID id.CredentialID, at time.Time) (*models.Credential, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[credID]
	if !ok {
		return nil, false, ErrNotFound
	}
	if c.RevokedAt != nil {
		return clone(c), false, nil
	}
	revokedAt := at
	c.RevokedAt = &revokedAt
	c.UpdatedAt = at
	return clone(c), true, nil
}

// RevokeAllForOwner revokes every unrevoked credential of owner.
func (s *InMemoryStore) RevokeAllForOwner(_ context.Context, owner id.SubjectID, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.byID {
		if c.OwnerID != owner || c.RevokedAt != nil {
			continue
		}
		revokedAt := at
		c.RevokedAt = &revokedAt
		c.UpdatedAt = at
		n++
	}
	return n, nil
}

// TouchLastUsed is last-writer-wins.
func (s *InMemoryStore) TouchLastUsed(_ context.Context, credID id.CredentialID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[credID]
	if !ok {
		return ErrNotFound
	}
	used := at
	c.LastUsedAt = &used
	return nil
}

func clone(c *models.Credential) *models.Credential {
	out := *c
	out.Description = clonePtr(c.Description)
	out.ExpiresAt = clonePtr(c.ExpiresAt)
	out.LastUsedAt = clonePtr(c.LastUsedAt)
	out.RevokedAt = clonePtr(c.RevokedAt)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
