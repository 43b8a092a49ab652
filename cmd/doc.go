// Package cmd contains the escrownet binaries.
//
//   - auctiond: the auction service daemon
//   - auctionctl: signs and submits escrow messages from the command line
//
// Shared helpers (key loading, YAML configuration) live in cmd/common.
package cmd
