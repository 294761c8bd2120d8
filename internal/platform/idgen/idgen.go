// Package idgen abstracts identifier generation so tests can supply
// deterministic ids.
package idgen

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator interface {
	NewID() string
}

// UUID generates random version 4 UUIDs.
type UUID struct{}

func (UUID) NewID() string { return uuid.NewString() }

// Sequence generates prefix-1, prefix-2, ... in order.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequence creates a Sequence with the given prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}
