// Package services wires the auction engine to its HTTP surface.
//
// AuctionHandler exposes the engine's operations as JSON endpoints:
// authenticated Setup/Bid/Claim submissions, auction lookup, the admin
// close trigger, and the ledger-height clock. Config describes a full
// service deployment (store backend, token ledger, keys, HTTP addresses)
// and is loaded from YAML with flag overrides in cmd/auctiond.
package services
