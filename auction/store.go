package auction

// LedgerHeightKey is the reserved counter slot holding the ledger height.
const LedgerHeightKey = "LEDGERNUM"

// Store persists auction records keyed by auction ID. Implementations need
// no transactional semantics beyond a single call: the engine serializes
// read-modify-write sequences per auction itself.
type Store interface {
	// Has reports whether an auction record exists for the ID.
	Has(id uint32) (bool, error)

	// Get loads the auction record, or ErrAuctionNotFound.
	Get(id uint32) (*Auction, error)

	// Put writes the auction record, creating or replacing it.
	Put(id uint32, a *Auction) error
}

// CounterStore persists named monotonic counters. Advance must be atomic
// with respect to concurrent callers.
type CounterStore interface {
	// Advance adds delta to the named counter and returns the new value.
	// A counter that was never advanced reads as zero.
	Advance(name string, delta uint64) (uint64, error)
}
