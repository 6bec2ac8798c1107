// Package identifiers allocates human-readable device ids of the form
// "<prefix><n>" (for example "SW-3").
package identifiers

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrlokans/devicecatalog/internal/entities"
)

// DefaultMaxProbes bounds the probe loop.
const DefaultMaxProbes = 100000

var (
	ErrAllocationExhausted = errors.New("no free device id within probe budget")
	ErrUnknownKind         = errors.New("unknown device kind")
)

// ExistenceChecker reports whether a device id is already taken.
type ExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Allocator hands out the lowest free id per kind. Ids freed by deletion are
// handed out again. The probe is not a lock: a concurrent insert racing for
// the same candidate is rejected by the store's primary key.
type Allocator struct {
	store     ExistenceChecker
	maxProbes int
}

func NewAllocator(store ExistenceChecker, maxProbes int) *Allocator {
	if maxProbes <= 0 {
		maxProbes = DefaultMaxProbes
	}
	return &Allocator{store: store, maxProbes: maxProbes}
}

// NextID returns the first "<prefix><n>", n = 1, 2, ..., that no stored device uses.
func (a *Allocator) NextID(ctx context.Context, kind entities.Kind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	prefix := kind.Prefix()
	for counter := 1; counter <= a.maxProbes; counter++ {
		candidate := fmt.Sprintf("%s%d", prefix, counter)
		exists, err := a.store.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: kind %s after %d probes", ErrAllocationExhausted, kind, a.maxProbes)
}
