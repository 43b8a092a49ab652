package auction_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashbots/escrownet/auction"
	"github.com/flashbots/escrownet/crypto"
	"github.com/flashbots/escrownet/ledger"
	"github.com/flashbots/escrownet/protocol"
	"github.com/flashbots/escrownet/store"
	"github.com/flashbots/escrownet/testutil"
)

type fixture struct {
	engine *auction.Engine
	store  *store.MemoryStore
	tokens *ledger.InMemoryLedger
	escrow crypto.AccountID

	auctToken ledger.TokenID
	bidToken  ledger.TokenID

	auctioneerPub crypto.PublicKey
	auctioneerKey crypto.PrivateKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	escrowPub, _ := testutil.GenerateTestKeyPair(t)
	auctioneerPub, auctioneerKey := testutil.GenerateTestKeyPair(t)

	st := store.NewMemoryStore()
	tokens := ledger.NewInMemoryLedger()
	escrow := crypto.PublicKeyToAccountID(escrowPub)

	return &fixture{
		engine:        auction.NewEngine(st, st, tokens, escrow),
		store:         st,
		tokens:        tokens,
		escrow:        escrow,
		auctToken:     testutil.RandomTokenID(t),
		bidToken:      testutil.RandomTokenID(t),
		auctioneerPub: auctioneerPub,
		auctioneerKey: auctioneerKey,
	}
}

func (f *fixture) setupMessage(auctionID uint32, auctAmt, rsvAmt uint64) protocol.SetupMessage {
	return protocol.SetupMessage{
		AuctionID:     auctionID,
		AuctToken:     f.auctToken,
		AuctAmt:       auctAmt,
		BidToken:      f.bidToken,
		ReserveAmount: rsvAmt,
	}
}

// openAuction funds escrow with exactly auctAmt and runs a successful Setup.
func (f *fixture) openAuction(t *testing.T, auctionID uint32, auctAmt, rsvAmt uint64) *auction.Auction {
	t.Helper()
	f.tokens.Mint(f.auctToken, f.escrow, auctAmt)
	signed := testutil.SignedSetup(t, f.auctioneerKey, f.setupMessage(auctionID, auctAmt, rsvAmt))
	created, err := f.engine.Setup(context.Background(), auctionID, signed)
	require.NoError(t, err)
	return created
}

func TestSetupCreatesOpenAuction(t *testing.T) {
	f := newFixture(t)

	created := f.openAuction(t, 1, 1, 100)

	assert.Equal(t, uint32(1), created.AuctionID)
	assert.Equal(t, uint64(100), created.TopBid)
	assert.True(t, created.TopBidder.Equal(f.auctioneerPub))
	assert.True(t, created.Auctioneer.Equal(f.auctioneerPub))
	assert.Equal(t, auction.StatusOpen, created.Status)

	persisted, err := f.engine.Get(1)
	require.NoError(t, err)
	assert.Equal(t, created, persisted)
}

func TestSetupDuplicateAuctionID(t *testing.T) {
	f := newFixture(t)
	first := f.openAuction(t, 1, 1, 100)

	f.tokens.Mint(f.auctToken, f.escrow, 1)
	signed := testutil.SignedSetup(t, f.auctioneerKey, f.setupMessage(1, 1, 500))
	_, err := f.engine.Setup(context.Background(), 1, signed)
	require.ErrorIs(t, err, auction.ErrAuctionAlreadyExists)

	// The first auction must be untouched by the failed second Setup.
	persisted, err := f.engine.Get(1)
	require.NoError(t, err)
	assert.Equal(t, first, persisted)
}

func TestSetupEscrowNotFunded(t *testing.T) {
	f := newFixture(t)

	// Underfunded: nothing was deposited.
	signed := testutil.SignedSetup(t, f.auctioneerKey, f.setupMessage(1, 5, 100))
	_, err := f.engine.Setup(context.Background(), 1, signed)
	require.ErrorIs(t, err, auction.ErrEscrowNotFunded)

	// Overfunded deposits fail the strict equality check too.
	f.tokens.Mint(f.auctToken, f.escrow, 6)
	_, err = f.engine.Setup(context.Background(), 1, signed)
	require.ErrorIs(t, err, auction.ErrEscrowNotFunded)

	exists, err := f.store.Has(1)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSetupWrongMessageType(t *testing.T) {
	f := newFixture(t)

	signed := testutil.SignedBid(t, f.auctioneerKey, protocol.BidMessage{AuctionID: 1, Amount: 100})
	_, err := f.engine.Setup(context.Background(), 1, signed)
	require.ErrorIs(t, err, auction.ErrWrongMessageType)
}

func TestSetupAuctionIDMismatch(t *testing.T) {
	f := newFixture(t)
	f.tokens.Mint(f.auctToken, f.escrow, 1)

	signed := testutil.SignedSetup(t, f.auctioneerKey, f.setupMessage(2, 1, 100))
	_, err := f.engine.Setup(context.Background(), 1, signed)
	require.ErrorIs(t, err, auction.ErrWrongMessageType)
}

func TestSetupAuthenticationFailure(t *testing.T) {
	f := newFixture(t)
	f.tokens.Mint(f.auctToken, f.escrow, 1)

	signed := testutil.SignedSetup(t, f.auctioneerKey, f.setupMessage(1, 1, 100))
	signed.Signature[0] ^= 0xff

	_, err := f.engine.Setup(context.Background(), 1, signed)
	require.ErrorIs(t, err, auction.ErrAuthenticationFailure)

	exists, err := f.store.Has(1)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEmptyEnvelopeIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A JSON body with a null or absent object decodes into an envelope
	// whose object is nil; every operation must reject it, not crash.
	for _, signed := range []*auction.SignedMessage{
		{},
		{Object: &protocol.EscrowMessage{}},
	} {
		_, err := f.engine.Setup(ctx, 1, signed)
		require.ErrorIs(t, err, auction.ErrWrongMessageType)

		_, err = f.engine.Bid(ctx, signed)
		require.ErrorIs(t, err, auction.ErrWrongMessageType)

		_, err = f.engine.Claim(ctx, signed)
		require.ErrorIs(t, err, auction.ErrWrongMessageType)
	}
}

func TestBidRaisesTopBid(t *testing.T) {
	f := newFixture(t)
	f.openAuction(t, 1, 1, 100)

	bidderPub, bidderKey := testutil.GenerateTestKeyPair(t)

	updated, err := f.engine.Bid(context.Background(),
		testutil.SignedBid(t, bidderKey, protocol.BidMessage{AuctionID: 1, Amount: 101}))
	require.NoError(t, err)
	assert.Equal(t, uint64(101), updated.TopBid)
	assert.True(t, updated.TopBidder.Equal(bidderPub))
	assert.Equal(t, auction.StatusOpen, updated.Status)

	// An equal later bid never displaces the earlier one.
	otherPub, otherKey := testutil.GenerateTestKeyPair(t)
	_, err = f.engine.Bid(context.Background(),
		testutil.SignedBid(t, otherKey, protocol.BidMessage{AuctionID: 1, Amount: 101}))
	require.ErrorIs(t, err, auction.ErrBidTooLow)

	_, err = f.engine.Bid(context.Background(),
		testutil.SignedBid(t, otherKey, protocol.BidMessage{AuctionID: 1, Amount: 50}))
	require.ErrorIs(t, err, auction.ErrBidTooLow)

	persisted, err := f.engine.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(101), persisted.TopBid)
	assert.True(t, persisted.TopBidder.Equal(bidderPub))
	assert.False(t, persisted.TopBidder.Equal(otherPub))
}

func TestBidSequenceIsMonotonic(t *testing.T) {
	f := newFixture(t)
	f.openAuction(t, 1, 1, 100)

	_, aliceKey := testutil.GenerateTestKeyPair(t)
	bobPub, bobKey := testutil.GenerateTestKeyPair(t)

	amounts := []struct {
		key    crypto.PrivateKey
		amount uint64
		ok     bool
	}{
		{aliceKey, 101, true},
		{bobKey, 150, true},
		{aliceKey, 120, false},
		{aliceKey, 150, false},
		{bobKey, 151, true},
	}

	lastTop := uint64(100)
	for _, bid := range amounts {
		updated, err := f.engine.Bid(context.Background(),
			testutil.SignedBid(t, bid.key, protocol.BidMessage{AuctionID: 1, Amount: bid.amount}))
		if bid.ok {
			require.NoError(t, err)
			require.Greater(t, updated.TopBid, lastTop)
			lastTop = updated.TopBid
		} else {
			require.ErrorIs(t, err, auction.ErrBidTooLow)
		}
	}

	persisted, err := f.engine.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(151), persisted.TopBid)
	assert.True(t, persisted.TopBidder.Equal(bobPub))
}

func TestBidUnknownAuction(t *testing.T) {
	f := newFixture(t)

	_, bidderKey := testutil.GenerateTestKeyPair(t)
	_, err := f.engine.Bid(context.Background(),
		testutil.SignedBid(t, bidderKey, protocol.BidMessage{AuctionID: 9, Amount: 100}))
	require.ErrorIs(t, err, auction.ErrAuctionNotFound)
}

func TestBidOnClosedAuction(t *testing.T) {
	f := newFixture(t)
	f.openAuction(t, 1, 1, 100)

	_, err := f.engine.Close(context.Background(), 1)
	require.NoError(t, err)

	_, bidderKey := testutil.GenerateTestKeyPair(t)
	_, err = f.engine.Bid(context.Background(),
		testutil.SignedBid(t, bidderKey, protocol.BidMessage{AuctionID: 1, Amount: 200}))
	require.ErrorIs(t, err, auction.ErrAuctionClosed)
}

func TestBidWrongMessageType(t *testing.T) {
	f := newFixture(t)
	f.openAuction(t, 1, 1, 100)

	_, bidderKey := testutil.GenerateTestKeyPair(t)
	_, err := f.engine.Bid(context.Background(),
		testutil.SignedClaim(t, bidderKey, protocol.ClaimMessage{AuctionID: 1}))
	require.ErrorIs(t, err, auction.ErrWrongMessageType)
}

func TestBidAuthenticationFailureLeavesAuctionUnchanged(t *testing.T) {
	f := newFixture(t)
	created := f.openAuction(t, 1, 1, 100)

	_, bidderKey := testutil.GenerateTestKeyPair(t)
	signed := testutil.SignedBid(t, bidderKey, protocol.BidMessage{AuctionID: 1, Amount: 500})
	signed.Signature[0] ^= 0xff

	_, err := f.engine.Bid(context.Background(), signed)
	require.ErrorIs(t, err, auction.ErrAuthenticationFailure)

	persisted, err := f.engine.Get(1)
	require.NoError(t, err)
	assert.Equal(t, created, persisted)
}

func TestCloseDecisionRule(t *testing.T) {
	f := newFixture(t)

	// Auction 1 receives a qualifying bid and closes to Closed.
	f.openAuction(t, 1, 1, 100)
	_, bidderKey := testutil.GenerateTestKeyPair(t)
	_, err := f.engine.Bid(context.Background(),
		testutil.SignedBid(t, bidderKey, protocol.BidMessage{AuctionID: 1, Amount: 101}))
	require.NoError(t, err)

	closed, err := f.engine.Close(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusClosed, closed.Status)

	// Auction 2 sees no bid and closes to ClsdNoBid.
	f.openAuction(t, 2, 1, 100)
	closed, err = f.engine.Close(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusClosedNoBid, closed.Status)

	// Closing again is rejected; the status does not move backward.
	_, err = f.engine.Close(context.Background(), 1)
	require.ErrorIs(t, err, auction.ErrAuctionClosed)

	_, err = f.engine.Close(context.Background(), 9)
	require.ErrorIs(t, err, auction.ErrAuctionNotFound)
}

func TestClaimSettlesWinningBid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.openAuction(t, 1, 5, 100)

	bidderPub, bidderKey := testutil.GenerateTestKeyPair(t)
	winner := crypto.PublicKeyToAccountID(bidderPub)
	seller := crypto.PublicKeyToAccountID(f.auctioneerPub)
	f.tokens.Mint(f.bidToken, winner, 1000)

	_, err := f.engine.Bid(ctx, testutil.SignedBid(t, bidderKey, protocol.BidMessage{AuctionID: 1, Amount: 130}))
	require.NoError(t, err)
	_, err = f.engine.Close(ctx, 1)
	require.NoError(t, err)

	// Anyone may trigger settlement, not just the parties.
	_, strangerKey := testutil.GenerateTestKeyPair(t)
	receipt, err := f.engine.Claim(ctx, testutil.SignedClaim(t, strangerKey, protocol.ClaimMessage{AuctionID: 1}))
	require.NoError(t, err)

	assert.NotEmpty(t, receipt.ReceiptID)
	assert.Equal(t, uint32(1), receipt.AuctionID)
	assert.True(t, receipt.Winner.Equal(bidderPub))
	assert.True(t, receipt.Seller.Equal(f.auctioneerPub))
	assert.Equal(t, uint64(130), receipt.Proceeds)

	persisted, err := f.engine.Get(1)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusClaimed, persisted.Status)

	// Asset to winner, proceeds to seller, escrow drained.
	balance, err := f.tokens.BalanceOf(ctx, f.auctToken, winner)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), balance)

	balance, err = f.tokens.BalanceOf(ctx, f.bidToken, seller)
	require.NoError(t, err)
	assert.Equal(t, uint64(130), balance)

	balance, err = f.tokens.BalanceOf(ctx, f.auctToken, f.escrow)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)

	balance, err = f.tokens.BalanceOf(ctx, f.bidToken, winner)
	require.NoError(t, err)
	assert.Equal(t, uint64(870), balance)
}

func TestClaimReturnsAssetWhenNoBid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.openAuction(t, 1, 5, 100)

	_, err := f.engine.Close(ctx, 1)
	require.NoError(t, err)

	_, claimantKey := testutil.GenerateTestKeyPair(t)
	receipt, err := f.engine.Claim(ctx, testutil.SignedClaim(t, claimantKey, protocol.ClaimMessage{AuctionID: 1}))
	require.NoError(t, err)

	assert.Nil(t, receipt.Winner)
	assert.Equal(t, uint64(0), receipt.Proceeds)

	seller := crypto.PublicKeyToAccountID(f.auctioneerPub)
	balance, err := f.tokens.BalanceOf(ctx, f.auctToken, seller)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), balance)

	balance, err = f.tokens.BalanceOf(ctx, f.auctToken, f.escrow)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)
}

func TestClaimRequiresClosedAuction(t *testing.T) {
	f := newFixture(t)
	f.openAuction(t, 1, 1, 100)

	_, claimantKey := testutil.GenerateTestKeyPair(t)
	_, err := f.engine.Claim(context.Background(),
		testutil.SignedClaim(t, claimantKey, protocol.ClaimMessage{AuctionID: 1}))
	require.ErrorIs(t, err, auction.ErrAuctionNotClosed)

	_, err = f.engine.Claim(context.Background(),
		testutil.SignedClaim(t, claimantKey, protocol.ClaimMessage{AuctionID: 9}))
	require.ErrorIs(t, err, auction.ErrAuctionNotFound)
}

func TestClaimPreconditionOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, claimantKey := testutil.GenerateTestKeyPair(t)

	// An unverifiable claim on a missing auction reports the missing
	// auction, not the bad signature.
	signed := testutil.SignedClaim(t, claimantKey, protocol.ClaimMessage{AuctionID: 9})
	signed.Signature[0] ^= 0xff
	_, err := f.engine.Claim(ctx, signed)
	require.ErrorIs(t, err, auction.ErrAuctionNotFound)

	// Same for an auction that is not closed yet.
	f.openAuction(t, 1, 1, 100)
	signed = testutil.SignedClaim(t, claimantKey, protocol.ClaimMessage{AuctionID: 1})
	signed.Signature[0] ^= 0xff
	_, err = f.engine.Claim(ctx, signed)
	require.ErrorIs(t, err, auction.ErrAuctionNotClosed)

	// Once the auction is claimable the signature is enforced, and the
	// rejected call settles nothing.
	_, err = f.engine.Close(ctx, 1)
	require.NoError(t, err)
	_, err = f.engine.Claim(ctx, signed)
	require.ErrorIs(t, err, auction.ErrAuthenticationFailure)

	persisted, err := f.engine.Get(1)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusClosedNoBid, persisted.Status)
}

func TestClaimIsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.openAuction(t, 1, 5, 100)

	bidderPub, bidderKey := testutil.GenerateTestKeyPair(t)
	winner := crypto.PublicKeyToAccountID(bidderPub)
	f.tokens.Mint(f.bidToken, winner, 200)

	_, err := f.engine.Bid(ctx, testutil.SignedBid(t, bidderKey, protocol.BidMessage{AuctionID: 1, Amount: 130}))
	require.NoError(t, err)
	_, err = f.engine.Close(ctx, 1)
	require.NoError(t, err)

	_, err = f.engine.Claim(ctx, testutil.SignedClaim(t, bidderKey, protocol.ClaimMessage{AuctionID: 1}))
	require.NoError(t, err)

	// A second claim observes Claimed and must not move funds again.
	_, err = f.engine.Claim(ctx, testutil.SignedClaim(t, bidderKey, protocol.ClaimMessage{AuctionID: 1}))
	require.ErrorIs(t, err, auction.ErrAlreadyClaimed)

	balance, err := f.tokens.BalanceOf(ctx, f.auctToken, winner)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), balance)

	seller := crypto.PublicKeyToAccountID(f.auctioneerPub)
	balance, err = f.tokens.BalanceOf(ctx, f.bidToken, seller)
	require.NoError(t, err)
	assert.Equal(t, uint64(130), balance)
}

func TestClaimMarksClaimedEvenIfCollectionFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.openAuction(t, 1, 5, 100)

	// The winning bidder never had the pledged bid tokens.
	_, bidderKey := testutil.GenerateTestKeyPair(t)
	_, err := f.engine.Bid(ctx, testutil.SignedBid(t, bidderKey, protocol.BidMessage{AuctionID: 1, Amount: 130}))
	require.NoError(t, err)
	_, err = f.engine.Close(ctx, 1)
	require.NoError(t, err)

	_, err = f.engine.Claim(ctx, testutil.SignedClaim(t, bidderKey, protocol.ClaimMessage{AuctionID: 1}))
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// The auction stays Claimed: settlement is never retried from scratch
	// because the asset transfer already went through.
	persisted, err := f.engine.Get(1)
	require.NoError(t, err)
	assert.Equal(t, auction.StatusClaimed, persisted.Status)

	_, err = f.engine.Claim(ctx, testutil.SignedClaim(t, bidderKey, protocol.ClaimMessage{AuctionID: 1}))
	require.ErrorIs(t, err, auction.ErrAlreadyClaimed)
}

func TestClaimWrongMessageType(t *testing.T) {
	f := newFixture(t)
	f.openAuction(t, 1, 1, 100)

	_, key := testutil.GenerateTestKeyPair(t)
	_, err := f.engine.Claim(context.Background(),
		testutil.SignedBid(t, key, protocol.BidMessage{AuctionID: 1, Amount: 130}))
	require.ErrorIs(t, err, auction.ErrWrongMessageType)
}

func TestGetUnknownAuction(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Get(1)
	require.ErrorIs(t, err, auction.ErrAuctionNotFound)
}

func TestLedgerClock(t *testing.T) {
	t.Run("increment on fresh counter returns 1", func(t *testing.T) {
		f := newFixture(t)
		height, err := f.engine.IncrementLedger()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), height)
	})

	t.Run("advance on fresh counter returns n", func(t *testing.T) {
		f := newFixture(t)
		height, err := f.engine.AdvanceLedger(5)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), height)
	})

	t.Run("increment then advance accumulates", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.IncrementLedger()
		require.NoError(t, err)

		height, err := f.engine.AdvanceLedger(5)
		require.NoError(t, err)
		assert.Equal(t, uint64(6), height)

		height, err = f.engine.LedgerHeight()
		require.NoError(t, err)
		assert.Equal(t, uint64(6), height)
	})
}
