// Package testutil provides shared fixtures for escrownet tests: key
// pairs, random token IDs, and signed escrow messages.
package testutil

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flashbots/escrownet/crypto"
	"github.com/flashbots/escrownet/ledger"
	"github.com/flashbots/escrownet/protocol"
)

// GenerateTestKeyPair generates an Ed25519 key pair, failing the test on error.
func GenerateTestKeyPair(t *testing.T) (crypto.PublicKey, crypto.PrivateKey) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return pub, priv
}

// RandomTokenID generates a random token ID.
func RandomTokenID(t *testing.T) ledger.TokenID {
	t.Helper()
	var id ledger.TokenID
	_, err := rand.Read(id[:])
	require.NoError(t, err)
	return id
}

// SignedSetup signs a Setup message with the given key.
func SignedSetup(t *testing.T, key crypto.PrivateKey, msg protocol.SetupMessage) *protocol.Signed[protocol.EscrowMessage] {
	t.Helper()
	signed, err := protocol.NewSigned(key, protocol.NewSetup(msg))
	require.NoError(t, err)
	return signed
}

// SignedBid signs a Bid message with the given key.
func SignedBid(t *testing.T, key crypto.PrivateKey, msg protocol.BidMessage) *protocol.Signed[protocol.EscrowMessage] {
	t.Helper()
	signed, err := protocol.NewSigned(key, protocol.NewBid(msg))
	require.NoError(t, err)
	return signed
}

// SignedClaim signs a Claim message with the given key.
func SignedClaim(t *testing.T, key crypto.PrivateKey, msg protocol.ClaimMessage) *protocol.Signed[protocol.EscrowMessage] {
	t.Helper()
	signed, err := protocol.NewSigned(key, protocol.NewClaim(msg))
	require.NoError(t, err)
	return signed
}
