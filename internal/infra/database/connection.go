package database

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// DB is the part of a pgx pool the repository uses. *pgxpool.Pool, *Pool
// and pgxmock pools all satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// Pool connects on first use. A failed connect is not cached, so the next
// call retries.
type Pool struct {
	dsn string
	cfg PoolConfig

	mu   sync.Mutex
	pool atomic.Pointer[pgxpool.Pool]
}

func NewPool(dsn string, cfg PoolConfig) *Pool {
	return &Pool{dsn: dsn, cfg: cfg}
}

func (p *Pool) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	if pool := p.pool.Load(); pool != nil {
		return pool, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pool := p.pool.Load(); pool != nil {
		return pool, nil
	}

	pgxCfg, err := pgxpool.ParseConfig(p.dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 0
	pgxCfg.MaxConnLifetime = 5 * time.Minute
	if p.cfg.MaxConns > 0 {
		pgxCfg.MaxConns = p.cfg.MaxConns
	}
	if p.cfg.MinConns > 0 {
		pgxCfg.MinConns = p.cfg.MinConns
	}
	if p.cfg.MaxConnLifetime > 0 {
		pgxCfg.MaxConnLifetime = p.cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	p.pool.Store(pool)
	return pool, nil
}

func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	pool, err := p.Connect(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return pool.Exec(ctx, sql, args...)
}

func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	pool, err := p.Connect(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return pool.QueryRow(ctx, sql, args...)
}

func (p *Pool) Ping(ctx context.Context) error {
	pool, err := p.Connect(ctx)
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Close is safe to call when the pool never connected.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pool := p.pool.Swap(nil); pool != nil {
		pool.Close()
	}
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }
