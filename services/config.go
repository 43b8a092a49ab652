package services

import (
	"fmt"

	"github.com/flashbots/escrownet/store"
)

// Store backends selectable in Config.
const (
	StoreMemory   = "memory"
	StoreLevelDB  = "leveldb"
	StorePostgres = "postgres"
)

// Ledger modes selectable in Config.
const (
	LedgerMemory = "memory"
	LedgerHTTP   = "http"
)

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend  string                `yaml:"backend"`
	Path     string                `yaml:"path"`
	Postgres *store.PostgresConfig `yaml:"postgres"`
}

// LedgerConfig selects the token ledger the service settles against.
// In memory mode the service runs its own mintable ledger, intended for
// dev deployments only.
type LedgerConfig struct {
	Mode string `yaml:"mode"`
	URL  string `yaml:"url"`
}

// Config describes a full auction service deployment.
type Config struct {
	// HTTPAddr is the public listen address.
	HTTPAddr string `yaml:"http_addr"`

	// MetricsAddr is the metrics listen address; empty disables metrics.
	MetricsAddr string `yaml:"metrics_addr"`

	// AdminToken protects the admin endpoints, formatted user:pass.
	AdminToken string `yaml:"admin_token"`

	// EscrowKey is the service's hex-encoded Ed25519 signing key. Its
	// derived account ID is the escrow identity on the token ledger.
	// Generated if empty.
	EscrowKey string `yaml:"escrow_key"`

	Store  StoreConfig  `yaml:"store"`
	Ledger LedgerConfig `yaml:"ledger"`

	// EnablePprof exposes the pprof API on the public listener.
	EnablePprof bool `yaml:"enable_pprof"`

	// LogJSON switches log output from text to JSON.
	LogJSON bool `yaml:"log_json"`

	// LogDebug lowers the log level to debug.
	LogDebug bool `yaml:"log_debug"`
}

// Validate checks the configuration for contradictions before any backend
// is opened.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required")
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreLevelDB:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the leveldb backend")
		}
	case StorePostgres:
		if c.Store.Postgres == nil {
			return fmt.Errorf("store.postgres is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Ledger.Mode {
	case LedgerMemory:
	case LedgerHTTP:
		if c.Ledger.URL == "" {
			return fmt.Errorf("ledger.url is required for the http ledger")
		}
	default:
		return fmt.Errorf("unknown ledger mode %q", c.Ledger.Mode)
	}

	return nil
}
