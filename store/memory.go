package store

import (
	"fmt"
	"sync"

	"github.com/flashbots/escrownet/auction"
)

// MemoryStore implements auction.Store and auction.CounterStore without
// durability. Used in tests and --dev mode.
type MemoryStore struct {
	mu       sync.Mutex
	auctions map[uint32]*auction.Auction
	counters map[string]uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions: make(map[uint32]*auction.Auction),
		counters: make(map[string]uint64),
	}
}

// Has reports whether an auction record exists for the ID.
func (s *MemoryStore) Has(id uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.auctions[id]
	return ok, nil
}

// Get loads the auction record, or auction.ErrAuctionNotFound.
func (s *MemoryStore) Get(id uint32) (*auction.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", auction.ErrAuctionNotFound, id)
	}
	return a.Clone(), nil
}

// Put writes the auction record, creating or replacing it.
func (s *MemoryStore) Put(id uint32, a *auction.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions[id] = a.Clone()
	return nil
}

// Advance adds delta to the named counter and returns the new value.
func (s *MemoryStore) Advance(name string, delta uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name] += delta
	return s.counters[name], nil
}
