package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/haguru/choji/config"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the default maximum number of idle connections to the database.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 30 * time.Second
)

// PostgresDatabaseClient owns the *sql.DB pool shared by the PostgreSQL repositories.
type PostgresDatabaseClient struct {
	db              *sql.DB
	MaxOpenConns    int           // MaxOpenConns is the maximum number of open connections to the database
	MaxIdleConns    int           // MaxIdleConns is the maximum number of idle connections to the database
	ConnMaxLifetime time.Duration // ConnMaxLifetime is the maximum amount of time a connection may be reused
}

// NewPostgresDatabaseClient creates an unconnected client with pool settings
// from cfg, falling back to the defaults for zero values.
func NewPostgresDatabaseClient(cfg *config.PostgresConfig) *PostgresDatabaseClient {
	p := &PostgresDatabaseClient{
		MaxOpenConns:    DefaultMaxOpenConns,
		MaxIdleConns:    DefaultMaxIdleConns,
		ConnMaxLifetime: DefaultConnMaxLifetime,
	}
	if cfg == nil {
		return p
	}
	if cfg.Options.MaxOpenConns > 0 {
		p.MaxOpenConns = cfg.Options.MaxOpenConns
	}
	if cfg.Options.MaxIdleConns > 0 {
		p.MaxIdleConns = cfg.Options.MaxIdleConns
	}
	if cfg.Options.ConnMaxLifetime > 0 {
		p.ConnMaxLifetime = cfg.Options.ConnMaxLifetime
	}
	return p
}

// NewPostgresDatabaseClientFromDB wraps an already opened pool.
func NewPostgresDatabaseClientFromDB(db *sql.DB) *PostgresDatabaseClient {
	return &PostgresDatabaseClient{db: db}
}

// Connect establishes a connection to a PostgreSQL database.
func (p *PostgresDatabaseClient) Connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("PostgresDatabaseClient: DSN is empty")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	db.SetMaxOpenConns(p.MaxOpenConns)
	db.SetMaxIdleConns(p.MaxIdleConns)
	db.SetConnMaxLifetime(p.ConnMaxLifetime)
	p.db = db

	return p.Ping(ctx)
}

// Disconnect closes the PostgreSQL database connection.
func (p *PostgresDatabaseClient) Disconnect(_ context.Context) error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Ping checks the health of the PostgreSQL connection.
func (p *PostgresDatabaseClient) Ping(ctx context.Context) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	return p.db.PingContext(ctx)
}

// DB returns the underlying pool.
func (p *PostgresDatabaseClient) DB() *sql.DB {
	return p.db
}

// EnsureSchema runs the given DDL statements in order. Statements are expected
// to be idempotent (CREATE ... IF NOT EXISTS).
func (p *PostgresDatabaseClient) EnsureSchema(ctx context.Context, statements ...string) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
