package auth

import (
	"errors"
	"sync"
	"time"
)

// ErrFlowNotFound is returned when no pending flow exists for a state, the
// record expired, or it was already consumed.
var ErrFlowNotFound = errors.New("authorization flow not found or expired")

// FlowStore holds pending authorization attempts keyed by the state
// parameter. Records are single-use and expire after a bounded window so
// abandoned flows cannot accumulate or be replayed.
type FlowStore interface {
	// Store records the verifier for a freshly issued state.
	Store(state, verifier string) error
	// Consume returns the verifier for a state and deletes the record.
	Consume(state string) (string, error)
}

type flowRecord struct {
	verifier  string
	expiresAt time.Time
}

// InMemoryFlowStore provides an in-memory implementation of FlowStore.
type InMemoryFlowStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	flows map[string]flowRecord
	now   func() time.Time
}

// NewInMemoryFlowStore creates a new InMemoryFlowStore whose records
// expire after ttl.
func NewInMemoryFlowStore(ttl time.Duration) *InMemoryFlowStore {
	return &InMemoryFlowStore{
		ttl:   ttl,
		flows: make(map[string]flowRecord),
		now:   time.Now,
	}
}

// Store records the verifier for a state.
func (s *InMemoryFlowStore) Store(state, verifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.flows[state] = flowRecord{
		verifier:  verifier,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Consume validates and deletes the record for a state, returning its
// verifier. A second Consume for the same state fails.
func (s *InMemoryFlowStore) Consume(state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.flows[state]
	if !ok {
		return "", ErrFlowNotFound
	}
	delete(s.flows, state)

	if s.now().After(rec.expiresAt) {
		return "", ErrFlowNotFound
	}
	return rec.verifier, nil
}

// sweepLocked removes expired records. Caller must hold the lock.
func (s *InMemoryFlowStore) sweepLocked() {
	now := s.now()
	for state, rec := range s.flows {
		if now.After(rec.expiresAt) {
			delete(s.flows, state)
		}
	}
}
