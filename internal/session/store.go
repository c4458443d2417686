package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Factory builds the controller for a new session.
type Factory func() *Controller

// Store keeps one Controller per browser session. Idle sessions expire after
// the configured TTL; every lookup pushes the expiry forward.
type Store struct {
	cache   *cache.Cache
	factory Factory
	mu      sync.Mutex
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
func NewStore(ttl time.Duration, factory Factory) *Store {
	return &Store{
		cache:   cache.New(ttl, ttl*2),
		factory: factory,
	}
}

// Get returns the controller for id, refreshing its expiry.
func (s *Store) Get(id string) (*Controller, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	s.cache.SetDefault(id, v)
	return v.(*Controller), true
}

// GetOrCreate returns the controller for id, or starts a new session with a
// fresh id when id is unknown, malformed or expired.
func (s *Store) GetOrCreate(id string) (string, *Controller, bool) {
	if c, ok := s.Get(id); ok {
		return id, c, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newID := uuid.NewString()
	c := s.factory()
	s.cache.SetDefault(newID, c)
	return newID, c, true
}

// Delete ends a session.
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// Count is the number of live sessions, including expired ones not yet
// swept.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}
