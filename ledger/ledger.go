package ledger

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/flashbots/escrownet/crypto"
)

// TokenID identifies a token type on the external ledger.
type TokenID [32]byte

// NewTokenIDFromString decodes a hex-encoded token ID.
func NewTokenIDFromString(data string) (TokenID, error) {
	var id TokenID
	raw, err := hex.DecodeString(data)
	if err != nil {
		return id, err
	}
	if len(raw) != len(id) {
		return id, errors.New("token ID must be 32 bytes")
	}
	copy(id[:], raw)
	return id, nil
}

// String returns a hex-encoded string representation of the token ID.
func (t TokenID) String() string {
	return hex.EncodeToString(t[:])
}

// MarshalText encodes the token ID as hex for JSON and YAML use.
func (t TokenID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a hex-encoded token ID.
func (t *TokenID) UnmarshalText(text []byte) error {
	id, err := NewTokenIDFromString(string(text))
	if err != nil {
		return err
	}
	*t = id
	return nil
}

// Ledger errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// TokenLedger is the escrow token gateway. Each call is a remote atomic
// operation; a successful Transfer cannot be rolled back by the caller.
type TokenLedger interface {
	// BalanceOf returns the amount of token held by the account.
	BalanceOf(ctx context.Context, token TokenID, holder crypto.AccountID) (uint64, error)

	// Transfer moves amount of token from one account to another.
	Transfer(ctx context.Context, token TokenID, from, to crypto.AccountID, amount uint64) error
}
