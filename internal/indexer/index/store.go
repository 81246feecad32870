package index

import "sync/atomic"

// Store owns the live Index. Readers take one snapshot with Current and work
// on it for the whole request, so a concurrent Replace is never observed
// half-applied.
type Store struct {
	current atomic.Pointer[Index]
}

func NewStore() *Store {
	return &Store{}
}

// Current returns the live Index, or nil before the first ingestion.
func (s *Store) Current() *Index {
	return s.current.Load()
}

// Replace publishes idx as the live Index and returns the one it replaced.
func (s *Store) Replace(idx *Index) *Index {
	return s.current.Swap(idx)
}
