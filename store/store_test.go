package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashbots/escrownet/auction"
	"github.com/flashbots/escrownet/crypto"
	"github.com/flashbots/escrownet/ledger"
	"github.com/flashbots/escrownet/store"
)

// combinedStore is what the engine needs from a backend.
type combinedStore interface {
	auction.Store
	auction.CounterStore
}

func sampleAuction(t *testing.T, id uint32) *auction.Auction {
	t.Helper()

	pub, _, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	var auctToken, bidToken ledger.TokenID
	auctToken[0] = 0xaa
	bidToken[0] = 0xbb

	return &auction.Auction{
		AuctionID:  id,
		TopBid:     100,
		TopBidder:  pub,
		Auctioneer: pub,
		AuctToken:  auctToken,
		AuctAmt:    5,
		BidToken:   bidToken,
		Status:     auction.StatusOpen,
	}
}

func testStoreRoundtrip(t *testing.T, s combinedStore) {
	exists, err := s.Has(1)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Get(1)
	require.ErrorIs(t, err, auction.ErrAuctionNotFound)

	original := sampleAuction(t, 1)
	require.NoError(t, s.Put(1, original))

	exists, err = s.Has(1)
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)

	// Mutating the loaded copy must not leak back into the store.
	loaded.TopBid = 999
	loaded.Status = auction.StatusClaimed
	reloaded, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), reloaded.TopBid)
	assert.Equal(t, auction.StatusOpen, reloaded.Status)

	// Put replaces the record.
	updated := original.Clone()
	updated.TopBid = 130
	updated.Status = auction.StatusClosed
	require.NoError(t, s.Put(1, updated))

	reloaded, err = s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(130), reloaded.TopBid)
	assert.Equal(t, auction.StatusClosed, reloaded.Status)
}

func testCounterAdvance(t *testing.T, s combinedStore) {
	value, err := s.Advance(auction.LedgerHeightKey, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), value)

	value, err = s.Advance(auction.LedgerHeightKey, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), value)

	// Zero delta reads without advancing.
	value, err = s.Advance(auction.LedgerHeightKey, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), value)

	// Counters are independent per name.
	value, err = s.Advance("other", 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), value)

	value, err = s.Advance(auction.LedgerHeightKey, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), value)
}

func TestMemoryStore(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		testStoreRoundtrip(t, store.NewMemoryStore())
	})
	t.Run("counters", func(t *testing.T) {
		testCounterAdvance(t, store.NewMemoryStore())
	})
}

func TestLevelDBStore(t *testing.T) {
	open := func(t *testing.T) *store.LevelDBStore {
		t.Helper()
		s, err := store.OpenLevelDBStore(filepath.Join(t.TempDir(), "db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("roundtrip", func(t *testing.T) {
		testStoreRoundtrip(t, open(t))
	})
	t.Run("counters", func(t *testing.T) {
		testCounterAdvance(t, open(t))
	})

	t.Run("survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db")

		s, err := store.OpenLevelDBStore(path)
		require.NoError(t, err)
		require.NoError(t, s.Put(7, sampleAuction(t, 7)))
		_, err = s.Advance(auction.LedgerHeightKey, 42)
		require.NoError(t, err)
		require.NoError(t, s.Close())

		s, err = store.OpenLevelDBStore(path)
		require.NoError(t, err)
		defer s.Close()

		loaded, err := s.Get(7)
		require.NoError(t, err)
		assert.Equal(t, uint32(7), loaded.AuctionID)

		height, err := s.Advance(auction.LedgerHeightKey, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), height)
	})
}
