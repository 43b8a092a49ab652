package services

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/flashbots/escrownet/api/httpserver"
	"github.com/flashbots/escrownet/auction"
	"github.com/flashbots/escrownet/crypto"
	"github.com/flashbots/escrownet/ledger"
	"github.com/flashbots/escrownet/store"
)

// auctionStore combines the two persistence interfaces every backend in
// the store package implements.
type auctionStore interface {
	auction.Store
	auction.CounterStore
}

// Service is a fully assembled auction service: engine, persistence, token
// ledger and HTTP surface.
type Service struct {
	cfg    *Config
	log    *slog.Logger
	engine *auction.Engine
	srv    *httpserver.BaseServer

	// EscrowPublicKey is the service's signing identity; its derived
	// account ID holds all escrowed assets.
	EscrowPublicKey crypto.PublicKey

	closers []io.Closer
}

// NewLogger builds the service logger according to config.
func NewLogger(cfg *Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.LogDebug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// New assembles a service from its configuration. The escrow signing key is
// loaded from config or generated; in memory ledger mode the service also
// serves a mintable in-process token ledger for dev use.
func New(cfg *Config, escrowKey crypto.PrivateKey) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := NewLogger(cfg)

	escrowPub, err := escrowKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("escrow key: %w", err)
	}
	escrowAccount := crypto.PublicKeyToAccountID(escrowPub)

	st, closers, err := openStore(&cfg.Store)
	if err != nil {
		return nil, err
	}

	var tokens ledger.TokenLedger
	var registrars []httpserver.RouteRegistrar

	switch cfg.Ledger.Mode {
	case LedgerMemory:
		mem := ledger.NewInMemoryLedger()
		tokens = mem
		registrars = append(registrars, ledger.NewHandler(mem))
		log.Info("Running with in-process token ledger (dev mode)")
	case LedgerHTTP:
		tokens = ledger.NewHTTPClient(cfg.Ledger.URL)
	}

	engine := auction.NewEngine(st, st, tokens, escrowAccount)
	registrars = append(registrars, NewAuctionHandler(engine, log, cfg.AdminToken))

	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               cfg.HTTPAddr,
		MetricsAddr:              cfg.MetricsAddr,
		EnablePprof:              cfg.EnablePprof,
		Log:                      log,
		DrainDuration:            10 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              10 * time.Second,
		WriteTimeout:             10 * time.Second,
	}, registrars...)
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, err
	}

	log.Info("Service assembled",
		"escrowPublicKey", escrowPub.String(),
		"escrowAccount", escrowAccount.String(),
		"store", cfg.Store.Backend,
		"ledger", cfg.Ledger.Mode)

	return &Service{
		cfg:             cfg,
		log:             log,
		engine:          engine,
		srv:             srv,
		EscrowPublicKey: escrowPub,
		closers:         closers,
	}, nil
}

func openStore(cfg *StoreConfig) (auctionStore, []io.Closer, error) {
	switch cfg.Backend {
	case StoreMemory:
		return store.NewMemoryStore(), nil, nil
	case StoreLevelDB:
		st, err := store.OpenLevelDBStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return st, []io.Closer{st}, nil
	case StorePostgres:
		st, err := store.NewPostgresStore(cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return st, []io.Closer{st}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Engine exposes the underlying state machine, mainly for tests.
func (s *Service) Engine() *auction.Engine {
	return s.engine
}

// RunInBackground starts the HTTP and metrics listeners.
func (s *Service) RunInBackground() {
	s.srv.RunInBackground()
}

// Shutdown gracefully stops the service and closes its backends.
func (s *Service) Shutdown() {
	s.srv.Shutdown()
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.log.Error("Closing store failed", "err", err)
		}
	}
}
