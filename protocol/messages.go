package protocol

import (
	"errors"

	"github.com/flashbots/escrownet/ledger"
)

// SetupMessage opens a new auction. The reserve amount becomes the initial
// top bid, and the auctioned asset must already sit in escrow when the
// message is processed.
type SetupMessage struct {
	AuctionID     uint32         `json:"auction_id"`
	AuctToken     ledger.TokenID `json:"auct_token"`
	AuctAmt       uint64         `json:"auct_amt"`
	BidToken      ledger.TokenID `json:"bid_token"`
	ReserveAmount uint64         `json:"rsv_amt"`
}

// BidMessage attempts to raise the top bid of an open auction.
type BidMessage struct {
	AuctionID uint32 `json:"auction_id"`
	Amount    uint64 `json:"amount"`
}

// ClaimMessage settles a closed auction.
type ClaimMessage struct {
	AuctionID uint32 `json:"auction_id"`
}

// EscrowMessage is the authenticated command envelope: exactly one of the
// variant fields must be set. The auction engine matches the variant
// exhaustively and rejects any operation/variant mismatch.
type EscrowMessage struct {
	Setup *SetupMessage `json:"setup,omitempty"`
	Bid   *BidMessage   `json:"bid,omitempty"`
	Claim *ClaimMessage `json:"claim,omitempty"`
}

// ErrAmbiguousMessage is returned when an EscrowMessage does not carry
// exactly one variant.
var ErrAmbiguousMessage = errors.New("escrow message must carry exactly one variant")

// NewSetup wraps a SetupMessage in the union.
func NewSetup(msg SetupMessage) *EscrowMessage {
	return &EscrowMessage{Setup: &msg}
}

// NewBid wraps a BidMessage in the union.
func NewBid(msg BidMessage) *EscrowMessage {
	return &EscrowMessage{Bid: &msg}
}

// NewClaim wraps a ClaimMessage in the union.
func NewClaim(msg ClaimMessage) *EscrowMessage {
	return &EscrowMessage{Claim: &msg}
}

// Validate checks that exactly one variant is set.
func (m *EscrowMessage) Validate() error {
	set := 0
	if m.Setup != nil {
		set++
	}
	if m.Bid != nil {
		set++
	}
	if m.Claim != nil {
		set++
	}
	if set != 1 {
		return ErrAmbiguousMessage
	}
	return nil
}

// AuctionID returns the auction the message addresses, independent of the
// variant.
func (m *EscrowMessage) AuctionID() (uint32, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	switch {
	case m.Setup != nil:
		return m.Setup.AuctionID, nil
	case m.Bid != nil:
		return m.Bid.AuctionID, nil
	default:
		return m.Claim.AuctionID, nil
	}
}
