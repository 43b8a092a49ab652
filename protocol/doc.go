// Package protocol defines the wire messages of the escrow auction service
// and the signed envelope that authenticates them.
//
// Every state-changing call carries an EscrowMessage, a tagged union of
// exactly one of Setup, Bid or Claim. Messages are submitted inside a
// Signed envelope whose Ed25519 signature covers the canonical JSON
// serialization of the message together with the signer's public key, so a
// signature cannot be replayed over a different payload or attributed to a
// different key.
package protocol
