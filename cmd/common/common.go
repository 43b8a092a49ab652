// Package common provides shared utilities for escrownet CLI commands.
//
// This package contains helper functions used across the binaries to reduce
// code duplication:
//
//   - Key loading and generation for Ed25519 signing keys
//   - YAML configuration loading with defaults
package common

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flashbots/escrownet/crypto"
	"github.com/flashbots/escrownet/services"
)

// LoadOrGenerateSigningKey loads an Ed25519 private key from a hex string,
// or generates a new key pair if hexKey is empty.
func LoadOrGenerateSigningKey(hexKey string) (crypto.PrivateKey, error) {
	if hexKey != "" {
		keyBytes, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, fmt.Errorf("invalid hex: %w", err)
		}
		return crypto.NewPrivateKeyFromBytes(keyBytes), nil
	}
	_, privKey, err := crypto.GenerateKeyPair()
	return privKey, err
}

// DefaultConfig returns a config with dev-friendly defaults: in-memory
// store and in-process token ledger.
func DefaultConfig() *services.Config {
	return &services.Config{
		HTTPAddr: ":8080",
		Store:    services.StoreConfig{Backend: services.StoreMemory},
		Ledger:   services.LedgerConfig{Mode: services.LedgerMemory},
	}
}

// LoadConfig reads a YAML config file on top of the defaults. An empty
// path returns the defaults unchanged.
func LoadConfig(path string) (*services.Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(body, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
