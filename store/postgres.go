package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/flashbots/escrownet/auction"
)

// PostgresStore implements auction.Store and auction.CounterStore with
// PostgreSQL persistence.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS auctions (
		auction_id BIGINT PRIMARY KEY,
		record JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS counters (
		name VARCHAR(64) PRIMARY KEY,
		value BIGINT NOT NULL DEFAULT 0
	);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Has reports whether an auction record exists for the ID.
func (s *PostgresStore) Has(id uint32) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM auctions WHERE auction_id = $1)", int64(id)).Scan(&exists)
	return exists, err
}

// Get loads the auction record, or auction.ErrAuctionNotFound.
func (s *PostgresStore) Get(id uint32) (*auction.Auction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var raw []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT record FROM auctions WHERE auction_id = $1", int64(id)).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", auction.ErrAuctionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading auction %d: %w", id, err)
	}

	var a auction.Auction
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decoding auction %d: %w", id, err)
	}
	return &a, nil
}

// Put writes the auction record, creating or replacing it.
func (s *PostgresStore) Put(id uint32, a *auction.Auction) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding auction %d: %w", id, err)
	}

	query := `
	INSERT INTO auctions (auction_id, record, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (auction_id) DO UPDATE SET
		record = EXCLUDED.record,
		updated_at = NOW()
	`

	_, err = s.db.ExecContext(ctx, query, int64(id), raw)
	return err
}

// Advance adds delta to the named counter and returns the new value.
// The increment is a single statement, so it is atomic on the database side.
func (s *PostgresStore) Advance(name string, delta uint64) (uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
	INSERT INTO counters (name, value)
	VALUES ($1, $2)
	ON CONFLICT (name) DO UPDATE SET value = counters.value + EXCLUDED.value
	RETURNING value
	`

	var value int64
	if err := s.db.QueryRowContext(ctx, query, name, int64(delta)).Scan(&value); err != nil {
		return 0, fmt.Errorf("advancing counter %s: %w", name, err)
	}
	return uint64(value), nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
