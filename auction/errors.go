package auction

import "errors"

// Every engine error aborts the whole call: on any error path no partial
// mutation is visible in the store.
var (
	ErrWrongMessageType      = errors.New("incorrect message type")
	ErrAuctionAlreadyExists  = errors.New("auction id already exists")
	ErrAuctionNotFound       = errors.New("auction id does not exist")
	ErrEscrowNotFunded       = errors.New("escrow is not funded with the auctioned amount")
	ErrAuthenticationFailure = errors.New("message authentication failed")
	ErrBidTooLow             = errors.New("bid does not raise the top bid")
	ErrAuctionClosed         = errors.New("auction is not open")
	ErrAuctionNotClosed      = errors.New("auction is not closed")
	ErrAlreadyClaimed        = errors.New("auction already claimed")
)
