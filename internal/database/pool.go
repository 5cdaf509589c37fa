package database

import (
	"context"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
)

const DefaultMaxConns = 10
const DefaultConnectTimeout = 5 * time.Second

type Config struct {
	URL string

	// MaxConns caps the pool size. If 0, DefaultMaxConns is used.
	MaxConns int32

	ConnectTimeout time.Duration
}

// Queryer sends SQL commands.
//
// It is the subset of *pgxpool.Pool, *pgxpool.Conn and pgx.Tx used by repositories.
type Queryer interface {
	// Exec sends a command which does not return rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)

	// Query sends a command which returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)

	// QueryRow sends a command which returns at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type Pinger interface {
	Ping(ctx context.Context) error
}

var _ Queryer = (*pgxpool.Pool)(nil)
var _ Pinger = (*pgxpool.Pool)(nil)

// Connect creates a connection pool and verifies that the database is reachable.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid database url")
	}

	poolCfg.MaxConns = DefaultMaxConns
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	poolCfg.ConnConfig.ConnectTimeout = DefaultConnectTimeout
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pool")
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "database is unreachable")
	}

	return pool, nil
}
