// Package common holds identifiers shared across escrownet binaries.
package common

// PackageName identifies this service in logs and metrics.
const PackageName = "escrownet"

// Version is set at build time via -ldflags.
var Version = "dev"
