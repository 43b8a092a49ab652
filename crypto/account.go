package crypto

import (
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/sha3"
)

// accountIDDomain separates account-ID hashing from any other use of the
// same key material.
const accountIDDomain = "escrownet/account-id/v1"

// AccountID identifies a holder on the external token ledger.
// Account IDs are derived from public keys so that the ledger never needs
// to understand Ed25519 key material.
type AccountID [32]byte

// PublicKeyToAccountID derives the ledger account ID for a public key.
// The derivation is deterministic: the same key always maps to the same
// account.
func PublicKeyToAccountID(pk PublicKey) AccountID {
	h := sha3.New256()
	h.Write([]byte(accountIDDomain))
	h.Write(pk.Bytes())

	var id AccountID
	copy(id[:], h.Sum(nil))
	return id
}

// String returns a hex-encoded string representation of the account ID.
func (a AccountID) String() string {
	return hex.EncodeToString(a[:])
}

// MarshalText encodes the account ID as hex for JSON and YAML use.
func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes a hex-encoded account ID.
func (a *AccountID) UnmarshalText(text []byte) error {
	raw, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	if len(raw) != len(a) {
		return errors.New("account ID must be 32 bytes")
	}
	copy(a[:], raw)
	return nil
}
