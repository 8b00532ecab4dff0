// Package postgres implements the catalog on PostgreSQL via pgx. It is the
// driver for multi-replica deployments where the database is the coordination
// point; single-node setups can use the gorm or badger drivers instead.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marmos91/shelf/internal/logger"
)

// Store is a PostgreSQL-backed catalog.
type Store struct {
	pool   *pgxpool.Pool
	config *Config
	logger *slog.Logger
}

// New creates a PostgreSQL catalog store: builds the connection pool, runs
// the embedded migrations when AutoMigrate is set, and verifies the
// connection with a ping.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.With("component", "postgres_catalog")

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns

	// Server-side statement timeout; individual queries do not carry their
	// own deadlines.
	if cfg.QueryTimeout > 0 {
		poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%dms", cfg.QueryTimeout.Milliseconds())
	}
	if cfg.Schema != "" {
		poolConfig.ConnConfig.RuntimeParams["search_path"] = cfg.Schema
	}

	if cfg.TestBeforeAcquire {
		poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
			return conn.Ping(ctx) == nil
		}
	}

	log.Info("Creating PostgreSQL connection pool",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database,
		"user", cfg.User,
		"schema", cfg.Schema,
		"max_conns", cfg.MaxConns,
		"min_conns", cfg.MinConns,
		"ssl_mode", cfg.SSLMode,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if cfg.AutoMigrate {
		log.Info("AutoMigrate is enabled, running migrations...")
		if err := runMigrations(ctx, cfg.ConnectionString(), log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	log.Info("PostgreSQL catalog store initialized")

	return &Store{
		pool:   pool,
		config: cfg,
		logger: log,
	}, nil
}

// Ping verifies the catalog is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.logger.Info("Closing PostgreSQL connection pool...")
	s.pool.Close()
	return nil
}

// acquire checks out one connection, bounded by the configured acquire
// timeout. Acquisitions slower than the configured threshold are logged as
// warnings; they usually mean the pool is undersized for the load.
func (s *Store) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	acquireCtx, cancel := context.WithTimeout(ctx, s.config.AcquireTimeout)
	defer cancel()

	start := time.Now()
	conn, err := s.pool.Acquire(acquireCtx)
	elapsed := time.Since(start)

	if elapsed >= s.config.AcquireSlowThreshold {
		s.logger.Warn("Slow connection acquisition",
			"elapsed", elapsed.String(),
			"threshold", s.config.AcquireSlowThreshold.String(),
		)
	}

	if err != nil {
		if acquireCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, fmt.Errorf("connection acquire timeout after %v: pool may be exhausted", s.config.AcquireTimeout)
		}
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return conn, nil
}

// exec runs one statement on a pooled connection.
func (s *Store) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	defer conn.Release()

	return conn.Exec(ctx, sql, args...)
}

// queryRow runs a query expected to return at most one row. The connection
// is released when the row is scanned.
func (s *Store) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	conn, err := s.acquire(ctx)
	if err != nil {
		return errorRow{err: err}
	}
	return poolRow{row: conn.QueryRow(ctx, sql, args...), conn: conn}
}

// query runs a query returning multiple rows. The caller must close the
// returned rows; closing releases the connection.
func (s *Store) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		conn.Release()
		return nil, err
	}
	return &poolRows{Rows: rows, conn: conn}, nil
}

type errorRow struct {
	err error
}

func (r errorRow) Scan(dest ...any) error {
	return r.err
}

type poolRow struct {
	row  pgx.Row
	conn *pgxpool.Conn
}

func (r poolRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	r.conn.Release()
	return err
}

type poolRows struct {
	pgx.Rows
	conn *pgxpool.Conn
}

func (r *poolRows) Close() {
	r.Rows.Close()
	r.conn.Release()
}
