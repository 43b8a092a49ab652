// Package store provides persistence backends for auction records and the
// ledger-height counter.
//
// Three implementations cover the deployment spectrum: MemoryStore for
// tests and dev mode, LevelDBStore for single-node durable deployments, and
// PostgresStore for deployments that already run a database. All three
// implement auction.Store and auction.CounterStore.
package store
