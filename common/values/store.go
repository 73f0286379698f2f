package values

import (
	"sync"
	"sync/atomic"
)

// Store holds the base values shared by every rendered page. Readers get an
// immutable snapshot, writers swap the whole map.
type Store struct {
	current atomic.Pointer[Values]
	mu      sync.Mutex
}

func NewStore(initial Values) *Store {
	s := &Store{}
	s.Set(initial)
	return s
}

// Snapshot must not be modified by the caller.
func (s *Store) Snapshot() Values {
	v := s.current.Load()
	if v == nil {
		return Values{}
	}
	return *v
}

func (s *Store) Set(v Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swap(Merge(v))
}

// Update applies fn to a copy of the current values and stores the result.
func (s *Store) Update(fn func(Values) Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swap(Merge(fn(Merge(s.Snapshot()))))
}

func (s *Store) Delete(keys ...string) {
	s.Update(func(v Values) Values {
		for _, k := range keys {
			delete(v, k)
		}
		return v
	})
}

func (s *Store) swap(v Values) {
	s.current.Store(&v)
}
