package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrClosed is returned when a session is requested after Close.
	ErrClosed = errors.New("postgres: database handle is closed")
	// ErrPoolTimeout is returned when no pooled connection became available
	// within the acquire timeout.
	ErrPoolTimeout = errors.New("postgres: timed out waiting for a pooled connection")
)

// Options configures the process-wide connection pool.
type Options struct {
	DSN string
	// PoolSize is the number of idle connections kept for reuse.
	PoolSize int
	// MaxOverflow is how many connections may be opened above PoolSize under
	// load. Overflow connections are closed when released.
	MaxOverflow int
	// PrePing validates a pooled connection before lending it.
	PrePing bool
	// QueryLogging traces every statement through the application logger.
	QueryLogging bool
	// AcquireTimeout bounds the wait for a free connection. Zero waits for as
	// long as the caller's context allows.
	AcquireTimeout time.Duration
}

// DefaultOptions returns the pool settings used when nothing is configured.
func DefaultOptions(dsn string) Options {
	return Options{
		DSN:            dsn,
		PoolSize:       10,
		MaxOverflow:    20,
		PrePing:        true,
		AcquireTimeout: 30 * time.Second,
	}
}

// Pool is the subset of *pgxpool.Pool the session manager relies on.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// DB owns the connection pool. Create it once at startup with Connect, pass it
// to whatever needs store access and Close it on shutdown.
type DB struct {
	pool           Pool
	acquireTimeout time.Duration
	closed         atomic.Bool
}

// New wraps an existing pool.
func New(pool Pool, acquireTimeout time.Duration) *DB {
	return &DB{pool: pool, acquireTimeout: acquireTimeout}
}

// Connect opens a pgx connection pool and performs a Ping to ensure connectivity.
func Connect(ctx context.Context, opts Options) (*DB, error) {
	var current atomic.Pointer[pgxpool.Pool]
	config, err := poolConfig(opts, func() int32 {
		if p := current.Load(); p != nil {
			return p.Stat().IdleConns()
		}
		return 0
	})
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}
	current.Store(pool)
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(pool, opts.AcquireTimeout), nil
}

// poolConfig translates Options into a pgxpool config. idle reports the
// pool's current idle connection count and drives overflow shedding.
func poolConfig(opts Options, idle func() int32) (*pgxpool.Config, error) {
	if opts.PoolSize <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", opts.PoolSize)
	}
	if opts.MaxOverflow < 0 {
		return nil, fmt.Errorf("max overflow must not be negative, got %d", opts.MaxOverflow)
	}
	config, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	config.MaxConns = int32(opts.PoolSize + opts.MaxOverflow)
	config.MinConns = 0
	config.MaxConnLifetime = time.Hour
	config.HealthCheckPeriod = 30 * time.Second

	poolSize := int32(opts.PoolSize)
	config.AfterRelease = func(*pgx.Conn) bool {
		// false destroys the connection instead of returning it to the idle set
		return idle() < poolSize
	}
	if opts.PrePing {
		config.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
			return conn.Ping(ctx) == nil
		}
	}
	if opts.QueryLogging {
		config.ConnConfig.Tracer = newQueryTracer()
	}
	return config, nil
}

// Ping checks that the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if db.closed.Load() {
		return ErrClosed
	}
	return db.pool.Ping(ctx)
}

// Close disposes of the pool. It is safe to call more than once; only the
// first call closes the pool.
func (db *DB) Close() {
	if db.closed.Swap(true) {
		return
	}
	db.pool.Close()
}
