package auction

import (
	"github.com/google/uuid"

	"github.com/flashbots/escrownet/crypto"
	"github.com/flashbots/escrownet/ledger"
)

// SettlementReceipt records the outcome of one Claim. Winner is nil when
// the auction closed without a qualifying bid and the asset returned to the
// seller.
type SettlementReceipt struct {
	ReceiptID string           `json:"receipt_id"`
	AuctionID uint32           `json:"auction_id"`
	Seller    crypto.PublicKey `json:"seller"`
	Winner    crypto.PublicKey `json:"winner,omitempty"`
	AuctToken ledger.TokenID   `json:"auct_token"`
	AuctAmt   uint64           `json:"auct_amt"`
	BidToken  ledger.TokenID   `json:"bid_token"`
	Proceeds  uint64           `json:"proceeds"`
}

func newSettlementReceipt(a *Auction, winner crypto.PublicKey) *SettlementReceipt {
	receipt := &SettlementReceipt{
		ReceiptID: uuid.NewString(),
		AuctionID: a.AuctionID,
		Seller:    a.Auctioneer,
		Winner:    winner,
		AuctToken: a.AuctToken,
		AuctAmt:   a.AuctAmt,
		BidToken:  a.BidToken,
	}
	if winner != nil {
		receipt.Proceeds = a.TopBid
	}
	return receipt
}
