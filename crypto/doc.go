// Package crypto provides the cryptographic primitives for the escrow
// auction service.
//
// Identities in escrownet are bare Ed25519 public keys: the auctioneer who
// opens an auction, every bidder, and the service's own escrow identity are
// all 32-byte public keys. The package implements:
//
//   - Digital signatures (Ed25519) for authenticating escrow messages
//   - Ledger account IDs derived from public keys (SHA3-256)
//
// All keys include helper methods for serialization and comparison.
package crypto
