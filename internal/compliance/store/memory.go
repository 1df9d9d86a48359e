package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"trustplane/internal/compliance/models"
	"trustplane/internal/risk"
	id "trustplane/pkg/domain"
)

type subjectRows struct {
	profile   models.Profile
	listings  []models.Listing
	orders    []models.Order
	reviews   []models.Review
	addresses []models.Address
	cart      *models.Cart
	consent   *models.ConsentPreferences
}

// InMemoryStore keeps each subject's rows together. Anonymized orders and
// reviews are detached from the subject and kept for reporting.
type InMemoryStore struct {
	mu       sync.RWMutex
	subjects map[id.SubjectID]*subjectRows
	detached struct {
		orders  []models.Order
		reviews []models.Review
	}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{subjects: make(map[id.SubjectID]*subjectRows)}
}

// Seed replaces everything held for the bundle's subject.
func (s *InMemoryStore) Seed(b models.DataBundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := &subjectRows{
		profile:   b.Subject,
		listings:  slices.Clone(b.Listings),
		orders:    slices.Clone(b.Orders),
		reviews:   slices.Clone(b.Reviews),
		addresses: slices.Clone(b.Addresses),
		cart:      cloneCart(b.Cart),
	}
	if b.Consent != nil {
		c := *b.Consent
		rows.consent = &c
	}
	s.subjects[b.Subject.ID] = rows
}

// SeedJSON seeds every bundle of a JSON array in export format and returns
// how many subjects were loaded.
func (s *InMemoryStore) SeedJSON(r io.Reader) (int, error) {
	var bundles []models.DataBundle
	if err := json.NewDecoder(r).Decode(&bundles); err != nil {
		return 0, fmt.Errorf("decode seed: %w", err)
	}
	for i, b := range bundles {
		if b.Subject.ID.IsNil() {
			return 0, fmt.Errorf("seed entry %d has no subject id", i)
		}
	}
	for _, b := range bundles {
		s.Seed(b)
	}
	return len(bundles), nil
}

func (s *InMemoryStore) LoadBundle(_ context.Context, subjectID id.SubjectID) (*models.DataBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.subjects[subjectID]
	if !ok {
		return nil, ErrNotFound
	}
	b := &models.DataBundle{
		Subject:   rows.profile,
		Listings:  nonNil(slices.Clone(rows.listings)),
		Orders:    nonNil(slices.Clone(rows.orders)),
		Reviews:   nonNil(slices.Clone(rows.reviews)),
		Addresses: nonNil(slices.Clone(rows.addresses)),
		Cart:      cloneCart(rows.cart),
	}
	if rows.consent != nil {
		c := *rows.consent
		b.Consent = &c
	}
	return b, nil
}

// Anonymize tombstones orders, redacts reviews, then drops the identity,
// listings, addresses, cart and consent.
func (s *InMemoryStore) Anonymize(_ context.Context, subjectID id.SubjectID, tombstone string) (models.EraseCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.subjects[subjectID]
	if !ok {
		return models.EraseCounts{}, ErrNotFound
	}

	counts := countRows(rows)
	for _, o := range rows.orders {
		o.Reference = tombstone
		s.detached.orders = append(s.detached.orders, o)
	}
	for _, r := range rows.reviews {
		r.Comment = models.RedactedText
		s.detached.reviews = append(s.detached.reviews, r)
	}
	delete(s.subjects, subjectID)
	return counts, nil
}

// Purge removes every row the subject owns.
func (s *InMemoryStore) Purge(_ context.Context, subjectID id.SubjectID) (models.EraseCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.subjects[subjectID]
	if !ok {
		return models.EraseCounts{}, ErrNotFound
	}
	counts := countRows(rows)
	delete(s.subjects, subjectID)
	return counts, nil
}

func (s *InMemoryStore) GetConsent(_ context.Context, subjectID id.SubjectID) (*models.ConsentPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.subjects[subjectID]
	if !ok {
		return nil, ErrNotFound
	}
	if rows.consent == nil {
		return nil, nil
	}
	c := *rows.consent
	return &c, nil
}

func (s *InMemoryStore) SaveConsent(_ context.Context, subjectID id.SubjectID, prefs models.ConsentPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.subjects[subjectID]
	if !ok {
		return ErrNotFound
	}
	rows.consent = &prefs
	return nil
}

func (s *InMemoryStore) SubjectExists(_ context.Context, subjectID id.SubjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.subjects[subjectID]
	return ok, nil
}

// LoadSignals serves risk scoring from the same subject rows, so an erased
// subject is unknown to checkout as soon as the erase returns. Detached
// orders no longer count toward anyone's history.
func (s *InMemoryStore) LoadSignals(_ context.Context, subjectID id.SubjectID, now time.Time) (risk.Signals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.subjects[subjectID]
	if !ok {
		return risk.Signals{}, nil
	}
	orders := make([]risk.PastOrder, 0, len(rows.orders))
	for _, o := range rows.orders {
		orders = append(orders, risk.PastOrder{Amount: o.Amount, CreatedAt: o.CreatedAt})
	}
	return risk.SignalsFromHistory(rows.profile.EmailVerified, rows.profile.Suspended, orders, now), nil
}

// FindOrder looks an order up by id, including orders detached by
// anonymization.
func (s *InMemoryStore) FindOrder(_ context.Context, orderID id.OrderID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rows := range s.subjects {
		for _, o := range rows.orders {
			if o.ID == orderID {
				return &o, nil
			}
		}
	}
	for _, o := range s.detached.orders {
		if o.ID == orderID {
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func countRows(rows *subjectRows) models.EraseCounts {
	c := models.EraseCounts{
		Orders:    len(rows.orders),
		Reviews:   len(rows.reviews),
		Listings:  len(rows.listings),
		Addresses: len(rows.addresses),
	}
	if rows.cart != nil {
		c.Carts = 1
		c.CartItems = len(rows.cart.Items)
	}
	return c
}

func cloneCart(c *models.Cart) *models.Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = nonNil(slices.Clone(c.Items))
	return &out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
