package auction

import (
	"github.com/flashbots/escrownet/crypto"
	"github.com/flashbots/escrownet/ledger"
)

// Status is an auction's position in its lifecycle.
type Status string

// Auction lifecycle states. Open is the only initial state and Claimed the
// only terminal one.
const (
	StatusOpen        Status = "open"
	StatusClosed      Status = "closed"
	StatusClosedNoBid Status = "clsd_no_bid"
	StatusClaimed     Status = "claimed"
)

// Valid returns true for a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusClosedNoBid, StatusClaimed:
		return true
	}
	return false
}

// Settled returns true if the auction is past the point of settlement.
func (s Status) Settled() bool {
	return s == StatusClaimed
}

// CanTransitionTo reports whether the lifecycle graph permits moving from s
// to next. The graph is monotonic: no transition re-enters Open, and Open
// never skips directly to Claimed.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusOpen:
		return next == StatusClosed || next == StatusClosedNoBid
	case StatusClosed, StatusClosedNoBid:
		return next == StatusClaimed
	}
	return false
}

// Auction is the persisted record of one escrow auction.
type Auction struct {
	// AuctionID is the caller-assigned identifier, unique among all
	// auctions ever created.
	AuctionID uint32 `json:"auction_id"`

	// TopBid is the currently winning offer. It starts at the reserve
	// amount and strictly increases with every accepted bid.
	TopBid uint64 `json:"top_bid"`

	// TopBidder identifies whoever holds the highest valid bid. Before any
	// bid is accepted it is the auctioneer.
	TopBidder crypto.PublicKey `json:"top_bidder"`

	// Auctioneer is the seller who opened the auction. Recorded so that
	// settlement can pay the seller after bids have displaced them from
	// TopBidder.
	Auctioneer crypto.PublicKey `json:"auctioneer"`

	// AuctToken is the token type being sold.
	AuctToken ledger.TokenID `json:"auct_token"`

	// AuctAmt is the quantity of AuctToken held in escrow.
	AuctAmt uint64 `json:"auct_amt"`

	// BidToken is the token type bidders pay in.
	BidToken ledger.TokenID `json:"bid_token"`

	// Status is the auction's lifecycle state.
	Status Status `json:"status"`
}

// Clone returns a deep copy of the auction. Engine operations mutate a
// clone and persist it only after all validations pass.
func (a *Auction) Clone() *Auction {
	clone := *a
	clone.TopBidder = crypto.NewPublicKeyFromBytes(a.TopBidder)
	clone.Auctioneer = crypto.NewPublicKeyFromBytes(a.Auctioneer)
	return &clone
}

// HasQualifyingBid reports whether a real bidder ever raised the reserve.
// This is the close decision rule: an auction with a qualifying bid closes
// to Closed, one without closes to ClsdNoBid.
func (a *Auction) HasQualifyingBid() bool {
	return !a.TopBidder.Equal(a.Auctioneer)
}
