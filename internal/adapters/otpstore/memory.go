// Package otpstore keeps outstanding one-time passwords, in process or in redis.
package otpstore

import (
	"context"
	"sync"
	"time"

	"village-sabha/internal/core/domain"
)

// MemoryStore keeps entries in a map guarded by one mutex, so every
// check-and-delete is atomic per identifier.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]domain.OTPEntry
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]domain.OTPEntry)}
}

// Put replaces any entry for identifier
func (s *MemoryStore) Put(_ context.Context, identifier string, entry domain.OTPEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[identifier] = entry
	return nil
}

// Consume checks code and removes the entry when it is expired or accepted
func (s *MemoryStore) Consume(_ context.Context, identifier, code string, now time.Time) (domain.OTPOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[identifier]
	if !ok {
		return domain.OTPNone, nil
	}
	if now.After(entry.ExpiresAt) {
		delete(s.entries, identifier)
		return domain.OTPExpired, nil
	}
	if entry.Code != code {
		return domain.OTPMismatch, nil
	}
	delete(s.entries, identifier)
	return domain.OTPAccepted, nil
}

// Sweep drops every entry expired at now
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.ExpiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of outstanding entries
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
