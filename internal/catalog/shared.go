package catalog

import (
	"sync"
)

// Shared serializes all access to a single Repository. At most one call
// runs at a time process-wide; the lock is held while the backend performs I/O.
type Shared struct {
	mu   sync.Mutex
	repo Repository
}

func NewShared(repo Repository) *Shared {
	return &Shared{repo: repo}
}

// With runs fn while holding the lock. The lock is released on every return
// path, including a panic inside fn.
func (s *Shared) With(fn func(repo Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.repo)
}
