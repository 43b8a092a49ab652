package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"

	"github.com/flashbots/escrownet/auction"
)

const auctionKeyPrefix = "auction/"

// LevelDBStore implements auction.Store and auction.CounterStore on an
// embedded LevelDB database. Auction records are stored as JSON under
// "auction/<id>", counters under their reserved names.
type LevelDBStore struct {
	db *leveldb.DB

	// counterMu serializes read-modify-write counter updates; LevelDB has
	// no atomic increment.
	counterMu sync.Mutex
}

// OpenLevelDBStore opens (or creates) a LevelDB store at path.
func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb at %s: %w", path, err)
	}
	return &LevelDBStore{db: db}, nil
}

func auctionKey(id uint32) []byte {
	key := make([]byte, len(auctionKeyPrefix)+4)
	copy(key, auctionKeyPrefix)
	binary.BigEndian.PutUint32(key[len(auctionKeyPrefix):], id)
	return key
}

// Has reports whether an auction record exists for the ID.
func (s *LevelDBStore) Has(id uint32) (bool, error) {
	return s.db.Has(auctionKey(id), nil)
}

// Get loads the auction record, or auction.ErrAuctionNotFound.
func (s *LevelDBStore) Get(id uint32) (*auction.Auction, error) {
	raw, err := s.db.Get(auctionKey(id), nil)
	if err == errors.ErrNotFound {
		return nil, fmt.Errorf("%w: %d", auction.ErrAuctionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading auction %d: %w", id, err)
	}

	var a auction.Auction
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decoding auction %d: %w", id, err)
	}
	return &a, nil
}

// Put writes the auction record, creating or replacing it.
func (s *LevelDBStore) Put(id uint32, a *auction.Auction) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding auction %d: %w", id, err)
	}
	return s.db.Put(auctionKey(id), raw, nil)
}

// Advance adds delta to the named counter and returns the new value.
func (s *LevelDBStore) Advance(name string, delta uint64) (uint64, error) {
	s.counterMu.Lock()
	defer s.counterMu.Unlock()

	var value uint64
	raw, err := s.db.Get([]byte(name), nil)
	switch err {
	case nil:
		if len(raw) != 8 {
			return 0, fmt.Errorf("counter %s has malformed value", name)
		}
		value = binary.BigEndian.Uint64(raw)
	case errors.ErrNotFound:
		// starts at zero
	default:
		return 0, fmt.Errorf("reading counter %s: %w", name, err)
	}

	value += delta
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)
	if err := s.db.Put([]byte(name), buf, nil); err != nil {
		return 0, fmt.Errorf("writing counter %s: %w", name, err)
	}
	return value, nil
}

// Close closes the underlying database.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
