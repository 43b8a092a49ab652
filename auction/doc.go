// Package auction implements the escrow auction state machine.
//
// An auction is created by an authenticated Setup message once the auctioned
// asset sits in escrow, raised by Bid messages while open, closed by an
// external trigger, and settled exactly once by Claim. The engine holds no
// auction state between calls: every invocation reloads the persisted
// record, validates against it, mutates a copy and writes it back, so a
// failed call never leaves a partial mutation behind.
//
// Status moves along a fixed graph: Open to Closed (a qualifying bid was
// placed) or ClsdNoBid (none was), then to Claimed. Claimed is terminal.
// The top bid only ever increases, and settlement transfers run at most
// once per auction: the Claimed status is persisted before the token
// ledger is called, so a duplicate or reentrant Claim observes Claimed
// and fails without touching funds again.
package auction
