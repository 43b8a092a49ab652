// Command auctiond runs the escrow auction service.
//
// The service accepts authenticated Setup, Bid and Claim messages, persists
// auction records in the configured store, and settles closed auctions
// against the configured token ledger.
//
// # Configuration File
//
// Create a YAML file with service settings:
//
//	http_addr: ":8080"
//	metrics_addr: ":9090"
//	admin_token: "admin:secret"
//	escrow_key: ""          # Hex-encoded Ed25519 key, generates if empty
//	store:
//	  backend: "leveldb"    # memory, leveldb, or postgres
//	  path: "/var/lib/escrownet"
//	ledger:
//	  mode: "http"          # memory (dev) or http
//	  url: "http://localhost:8090"
//
// # Dev Mode
//
// With --dev the service runs entirely in memory, including a mintable
// in-process token ledger, so a full auction lifecycle can be exercised on
// one machine.
//
// # Usage
//
//	go run ./cmd/auctiond --config=auctiond.yaml
//	go run ./cmd/auctiond --dev --admin-token=admin:secret
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flashbots/escrownet/cmd/common"
	"github.com/flashbots/escrownet/services"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		addr        = flag.String("addr", "", "HTTP listen address (overrides config)")
		metricsAddr = flag.String("metrics-addr", "", "Metrics listen address (overrides config)")
		adminToken  = flag.String("admin-token", "", "Admin token (user:pass, overrides config)")
		escrowKey   = flag.String("escrow-key", "", "Ed25519 escrow signing key (hex, overrides config)")
		dev         = flag.Bool("dev", false, "Run fully in memory with an in-process token ledger")
		logJSON     = flag.Bool("log-json", false, "Log in JSON format")
		logDebug    = flag.Bool("log-debug", false, "Enable debug logging")
	)
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *adminToken != "" {
		cfg.AdminToken = *adminToken
	}
	if *escrowKey != "" {
		cfg.EscrowKey = *escrowKey
	}
	if *logJSON {
		cfg.LogJSON = true
	}
	if *logDebug {
		cfg.LogDebug = true
	}
	if *dev {
		cfg.Store = services.StoreConfig{Backend: services.StoreMemory}
		cfg.Ledger = services.LedgerConfig{Mode: services.LedgerMemory}
	}

	signingKey, err := common.LoadOrGenerateSigningKey(cfg.EscrowKey)
	if err != nil {
		fmt.Printf("Escrow key error: %v\n", err)
		os.Exit(1)
	}

	svc, err := services.New(cfg, signingKey)
	if err != nil {
		fmt.Printf("Create service error: %v\n", err)
		os.Exit(1)
	}

	pubKey := svc.EscrowPublicKey
	fmt.Printf("Escrow public key: %s\n", pubKey.String())

	svc.RunInBackground()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	svc.Shutdown()
}
