// Package store loads the subject signals the risk engine scores against.
package store

import (
	"context"
	"sync"
	"time"

	"trustplane/internal/risk"
	id "trustplane/pkg/domain"
)

// Subject is the slice of profile state the engine needs.
type Subject struct {
	EmailVerified bool
	Suspended     bool
}

// Order is one historical checkout.
type Order = risk.PastOrder

// InMemoryStore keeps subjects and their order history behind one lock so a
// load is a consistent snapshot.
type InMemoryStore struct {
	mu       sync.RWMutex
	subjects map[id.SubjectID]Subject
	orders   map[id.SubjectID][]Order
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		subjects: make(map[id.SubjectID]Subject),
		orders:   make(map[id.SubjectID][]Order),
	}
}

func (s *InMemoryStore) PutSubject(subjectID id.SubjectID, subject Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[subjectID] = subject
}

func (s *InMemoryStore) AddOrder(subjectID id.SubjectID, order Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[subjectID] = append(s.orders[subjectID], order)
}

func (s *InMemoryStore) LoadSignals(_ context.Context, subjectID id.SubjectID, now time.Time) (risk.Signals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subject, ok := s.subjects[subjectID]
	if !ok {
		return risk.Signals{}, nil
	}
	return risk.SignalsFromHistory(subject.EmailVerified, subject.Suspended, s.orders[subjectID], now), nil
}
