package cart

import "sync"

// Store hands out one cart engine per user id. Carts live in process memory
// only and disappear on restart.
type Store struct {
	mu      sync.Mutex
	catalog Catalog
	carts   map[uint]*Engine
}

func NewStore(cat Catalog) *Store {
	return &Store{
		catalog: cat,
		carts:   make(map[uint]*Engine),
	}
}

func (s *Store) ForUser(userID uint) *Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.carts[userID]; ok {
		return e
	}
	e := NewEngine(s.catalog)
	s.carts[userID] = e
	return e
}
