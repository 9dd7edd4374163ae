package engine

import (
	"sync"

	"github.com/Welpodron/pm-parser/internal/types"
)

// ResultSet is an insertion-ordered set of reviews. Two reviews are the same
// entry when every field matches. The cap behaves like LinkSet's.
type ResultSet struct {
	mu      sync.RWMutex
	seen    map[types.Review]struct{}
	reviews []types.Review
	max     int
}

// NewResultSet creates a ResultSet with the given soft cap.
func NewResultSet(max int) *ResultSet {
	return &ResultSet{
		seen: make(map[types.Review]struct{}),
		max:  max,
	}
}

// Add inserts r and reports whether it was new.
func (s *ResultSet) Add(r types.Review) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[r]; ok {
		return false
	}
	s.seen[r] = struct{}{}
	s.reviews = append(s.reviews, r)
	return true
}

// Len returns the number of unique reviews.
func (s *ResultSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reviews)
}

// Full reports whether the set has grown past its cap.
func (s *ResultSet) Full() bool {
	return s.Len() > s.max
}

// Reviews returns the reviews in insertion order.
func (s *ResultSet) Reviews() []types.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Review, len(s.reviews))
	copy(out, s.reviews)
	return out
}
