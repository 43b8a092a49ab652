// Package ledger defines the external token ledger the auction service
// settles against.
//
// The auction core needs exactly two facts from the ledger: the balance a
// holder has in a given token, and the ability to move value between two
// holders. Everything else about the ledger (issuance, supply, its own
// authorization rules) is out of scope and lives behind the TokenLedger
// interface.
//
// Two implementations are provided: an in-memory ledger for tests and dev
// deployments, and an HTTP client for an external ledger service. Handler
// exposes any TokenLedger over HTTP so the in-memory ledger can run as a
// sibling service in dev mode.
package ledger
