package trending

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps counters in process memory. It backs tests and runs
// where no database is configured.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*Counter
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*Counter),
		now:      time.Now,
	}
}

func (s *MemoryStore) RecordSearch(ctx context.Context, term string, movie Movie) (*Counter, error) {
	if term == "" {
		return nil, ErrEmptyTerm
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := Apply(s.counters[term], term, movie, s.now())
	s.counters[term] = next

	out := *next
	return &out, nil
}

func (s *MemoryStore) TopSearches(ctx context.Context, limit int) ([]*Counter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	all := make([]*Counter, 0, len(s.counters))
	for _, c := range s.counters {
		cp := *c
		all = append(all, &cp)
	}
	s.mu.Unlock()

	return Top(all, limit), nil
}

// Get returns a copy of the counter for term.
func (s *MemoryStore) Get(term string) (*Counter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[term]
	if !ok {
		return nil, false
	}
	cp := *c
	return &cp, true
}

// Seed installs counters directly, replacing any with the same term.
func (s *MemoryStore) Seed(counters ...*Counter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range counters {
		cp := *c
		s.counters[c.Term] = &cp
	}
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}
