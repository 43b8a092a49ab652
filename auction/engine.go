package auction

import (
	"context"
	"fmt"
	"sync"

	"github.com/flashbots/escrownet/crypto"
	"github.com/flashbots/escrownet/ledger"
	"github.com/flashbots/escrownet/protocol"
)

// lockStripes partitions auctions across mutexes. Auction IDs partition the
// state space, so two calls only contend when they address the same stripe.
const lockStripes = 64

// SignedMessage is the authenticated envelope the engine accepts.
type SignedMessage = protocol.Signed[protocol.EscrowMessage]

// Engine processes Setup, Bid and Claim messages against the auction store.
// It holds no auction state across calls; the store is always authoritative.
type Engine struct {
	store    Store
	counters CounterStore
	tokens   ledger.TokenLedger

	// escrow is the service's own account on the token ledger. Auctioned
	// assets must be deposited there before Setup and leave only through
	// Claim.
	escrow crypto.AccountID

	locks [lockStripes]sync.Mutex
}

// NewEngine creates an engine over the given store, counter store and token
// ledger. The escrow account is the ledger identity whose balance backs
// every auction.
func NewEngine(store Store, counters CounterStore, tokens ledger.TokenLedger, escrow crypto.AccountID) *Engine {
	return &Engine{
		store:    store,
		counters: counters,
		tokens:   tokens,
		escrow:   escrow,
	}
}

func (e *Engine) lockFor(auctionID uint32) *sync.Mutex {
	return &e.locks[auctionID%lockStripes]
}

// authenticate verifies the envelope and returns the acting identity.
// Any verification failure aborts the operation with no mutation.
func authenticate(signed *SignedMessage) (*protocol.EscrowMessage, crypto.PublicKey, error) {
	msg, signer, err := signed.Recover()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrAuthenticationFailure, err)
	}
	return msg, signer, nil
}

// Setup creates a new auction. The message must be the Setup variant, the
// envelope must verify, the auction ID must be unused, and the escrow
// account must hold exactly the auctioned amount. The strict equality binds
// one Setup call to one pre-funded deposit: a single deposit can neither be
// reused across auctions nor over- or under-fund one.
func (e *Engine) Setup(ctx context.Context, auctionID uint32, signed *SignedMessage) (*Auction, error) {
	// A decoded envelope may carry no object at all; treat that the same as
	// a wrong variant.
	obj := signed.UnsafeObject()
	if obj == nil || obj.Setup == nil || obj.Validate() != nil {
		return nil, ErrWrongMessageType
	}
	setupMsg := obj.Setup
	if setupMsg.AuctionID != auctionID {
		return nil, fmt.Errorf("%w: setup message addresses auction %d, not %d",
			ErrWrongMessageType, setupMsg.AuctionID, auctionID)
	}

	_, auctioneer, err := authenticate(signed)
	if err != nil {
		return nil, err
	}

	mu := e.lockFor(auctionID)
	mu.Lock()
	defer mu.Unlock()

	exists, err := e.store.Has(auctionID)
	if err != nil {
		return nil, fmt.Errorf("store lookup: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %d", ErrAuctionAlreadyExists, auctionID)
	}

	escrowBalance, err := e.tokens.BalanceOf(ctx, setupMsg.AuctToken, e.escrow)
	if err != nil {
		return nil, fmt.Errorf("escrow balance query: %w", err)
	}
	if escrowBalance != setupMsg.AuctAmt {
		return nil, fmt.Errorf("%w: escrow holds %d, auction needs %d",
			ErrEscrowNotFunded, escrowBalance, setupMsg.AuctAmt)
	}

	auction := &Auction{
		AuctionID:  auctionID,
		TopBid:     setupMsg.ReserveAmount,
		TopBidder:  auctioneer,
		Auctioneer: auctioneer,
		AuctToken:  setupMsg.AuctToken,
		AuctAmt:    setupMsg.AuctAmt,
		BidToken:   setupMsg.BidToken,
		Status:     StatusOpen,
	}

	if err := e.store.Put(auctionID, auction); err != nil {
		return nil, fmt.Errorf("persist auction: %w", err)
	}
	return auction, nil
}

// Bid attempts to raise the top bid of an open auction. Ties lose: a bid
// equal to the current top bid never displaces the earlier bidder.
func (e *Engine) Bid(ctx context.Context, signed *SignedMessage) (*Auction, error) {
	obj := signed.UnsafeObject()
	if obj == nil || obj.Bid == nil || obj.Validate() != nil {
		return nil, ErrWrongMessageType
	}
	bidMsg := obj.Bid

	_, bidder, err := authenticate(signed)
	if err != nil {
		return nil, err
	}

	mu := e.lockFor(bidMsg.AuctionID)
	mu.Lock()
	defer mu.Unlock()

	auction, err := e.store.Get(bidMsg.AuctionID)
	if err != nil {
		return nil, err
	}

	if auction.Status != StatusOpen {
		return nil, fmt.Errorf("%w: status is %s", ErrAuctionClosed, auction.Status)
	}
	if bidMsg.Amount <= auction.TopBid {
		return nil, fmt.Errorf("%w: %d does not raise %d", ErrBidTooLow, bidMsg.Amount, auction.TopBid)
	}

	updated := auction.Clone()
	updated.TopBid = bidMsg.Amount
	updated.TopBidder = bidder

	if err := e.store.Put(updated.AuctionID, updated); err != nil {
		return nil, fmt.Errorf("persist auction: %w", err)
	}
	return updated, nil
}

// Close transitions an open auction to its closed state. The trigger is
// external (typically a ledger-height threshold); the decision rule is the
// engine's: Closed if a real bidder holds the top bid, ClsdNoBid otherwise.
func (e *Engine) Close(ctx context.Context, auctionID uint32) (*Auction, error) {
	mu := e.lockFor(auctionID)
	mu.Lock()
	defer mu.Unlock()

	auction, err := e.store.Get(auctionID)
	if err != nil {
		return nil, err
	}

	if auction.Status != StatusOpen {
		return nil, fmt.Errorf("%w: status is %s", ErrAuctionClosed, auction.Status)
	}

	next := StatusClosedNoBid
	if auction.HasQualifyingBid() {
		next = StatusClosed
	}

	updated := auction.Clone()
	updated.Status = next

	if err := e.store.Put(updated.AuctionID, updated); err != nil {
		return nil, fmt.Errorf("persist auction: %w", err)
	}
	return updated, nil
}

// Claim settles a closed auction. Any authenticated identity may trigger
// settlement; funds only ever move to the recorded top bidder and the
// seller. The Claimed status is persisted before the ledger is called, so
// settlement runs at most once even if the call is retried or raced.
func (e *Engine) Claim(ctx context.Context, signed *SignedMessage) (*SettlementReceipt, error) {
	obj := signed.UnsafeObject()
	if obj == nil || obj.Claim == nil || obj.Validate() != nil {
		return nil, ErrWrongMessageType
	}
	claimMsg := obj.Claim

	mu := e.lockFor(claimMsg.AuctionID)
	mu.Lock()
	defer mu.Unlock()

	auction, err := e.store.Get(claimMsg.AuctionID)
	if err != nil {
		return nil, err
	}

	switch auction.Status {
	case StatusClaimed:
		return nil, fmt.Errorf("%w: %d", ErrAlreadyClaimed, auction.AuctionID)
	case StatusClosed, StatusClosedNoBid:
		// settle below
	default:
		return nil, fmt.Errorf("%w: status is %s", ErrAuctionNotClosed, auction.Status)
	}

	if _, _, err := authenticate(signed); err != nil {
		return nil, err
	}

	closedWithBid := auction.Status == StatusClosed

	updated := auction.Clone()
	updated.Status = StatusClaimed
	if err := e.store.Put(updated.AuctionID, updated); err != nil {
		return nil, fmt.Errorf("persist auction: %w", err)
	}

	// Past this point the auction is durably Claimed. A transfer failure is
	// surfaced to the caller but never re-opens the auction: the ledger
	// cannot roll back a completed transfer, so retrying settlement from
	// scratch could double-spend.
	seller := crypto.PublicKeyToAccountID(auction.Auctioneer)
	if !closedWithBid {
		if err := e.tokens.Transfer(ctx, auction.AuctToken, e.escrow, seller, auction.AuctAmt); err != nil {
			return nil, fmt.Errorf("return escrow to seller: %w", err)
		}
		return newSettlementReceipt(updated, nil), nil
	}

	winner := crypto.PublicKeyToAccountID(auction.TopBidder)
	if err := e.tokens.Transfer(ctx, auction.AuctToken, e.escrow, winner, auction.AuctAmt); err != nil {
		return nil, fmt.Errorf("release escrow to winner: %w", err)
	}
	if err := e.tokens.Transfer(ctx, auction.BidToken, winner, seller, auction.TopBid); err != nil {
		return nil, fmt.Errorf("collect bid for seller: %w", err)
	}
	return newSettlementReceipt(updated, auction.TopBidder), nil
}

// Get returns the persisted auction record, or ErrAuctionNotFound.
func (e *Engine) Get(auctionID uint32) (*Auction, error) {
	return e.store.Get(auctionID)
}

// IncrementLedger advances the persisted ledger height by one and returns
// the new height.
func (e *Engine) IncrementLedger() (uint64, error) {
	return e.counters.Advance(LedgerHeightKey, 1)
}

// AdvanceLedger advances the persisted ledger height by n and returns the
// new height.
func (e *Engine) AdvanceLedger(n uint64) (uint64, error) {
	return e.counters.Advance(LedgerHeightKey, n)
}

// LedgerHeight returns the persisted ledger height without advancing it.
func (e *Engine) LedgerHeight() (uint64, error) {
	return e.counters.Advance(LedgerHeightKey, 0)
}
