package engine

import (
	"strings"
	"sync"
)

// LinkSet is an insertion-ordered set of product detail URLs.
//
// The cap is soft: Full reports true only once Len exceeds max, and Add keeps
// accepting links so a listing page in progress is always collected whole.
type LinkSet struct {
	mu    sync.RWMutex
	seen  map[string]struct{}
	order []string
	max   int
}

// NewLinkSet creates a LinkSet with the given soft cap.
func NewLinkSet(max int) *LinkSet {
	return &LinkSet{
		seen: make(map[string]struct{}),
		max:  max,
	}
}

// Add inserts url unless it is blank or already present. It reports whether
// the set grew.
func (s *LinkSet) Add(url string) bool {
	if strings.TrimSpace(url) == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[url]; ok {
		return false
	}
	s.seen[url] = struct{}{}
	s.order = append(s.order, url)
	return true
}

// Contains reports whether url has been added.
func (s *LinkSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[url]
	return ok
}

// Len returns the number of unique links.
func (s *LinkSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Full reports whether the set has grown past its cap.
func (s *LinkSet) Full() bool {
	return s.Len() > s.max
}

// URLs returns the links in insertion order.
func (s *LinkSet) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
