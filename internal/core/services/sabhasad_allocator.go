package services

import (
	"context"

	"village-sabha/internal/adapters/persistence/repositories"
	"village-sabha/internal/core/sabhasad"
)

// allocatorScan is how many of the highest IDs are inspected for a
// parsable suffix
const allocatorScan = 50

// SabhasadAllocator derives the next membership ID from the highest one
// in the store. Uniqueness is enforced by the store; callers retry on
// collision.
type SabhasadAllocator struct {
	prefix string
}

// NewSabhasadAllocator creates an allocator for prefix
func NewSabhasadAllocator(prefix string) *SabhasadAllocator {
	if prefix == "" {
		prefix = sabhasad.DefaultPrefix
	}
	return &SabhasadAllocator{prefix: prefix}
}

// Next returns the ID following the highest parsable one, or the first
// ID when none parses
func (a *SabhasadAllocator) Next(ctx context.Context, users repositories.UserRepository) (string, error) {
	ids, err := users.SabhasadIDs(ctx, a.prefix, allocatorScan)
	if err != nil {
		return "", err
	}

	var last string
	for _, id := range ids {
		if _, ok := sabhasad.Parse(a.prefix, id); ok {
			last = id
			break
		}
	}
	return sabhasad.Next(a.prefix, last), nil
}
