// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

// Package store provides PostgreSQL connectivity, the per-request
// transaction boundary, and schema migrations.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DBTX is the subset of pgx querying shared by *pgxpool.Pool, pgx.Tx, and
// the pgxmock pool used in tests. Repositories are written against it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner runs a function inside a single database transaction. Every
// governance operation executes through it: the transaction is the sole
// serialization point for check-then-act invariant enforcement.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// Querier returns the transaction bound to ctx when one is active,
// falling back to db. Repositories call this so the same code runs both
// inside and outside a transaction.
func Querier(ctx context.Context, db DBTX) DBTX {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

// Pool wraps a pgx connection pool and implements TxRunner.
type Pool struct {
	pool *pgxpool.Pool
}

// Connection retry parameters for startup. The database frequently comes up
// a moment after the service under docker-compose.
const (
	connectBaseDelay  = 500 * time.Millisecond
	connectMaxRetries = 6
)

// Connect opens a connection pool against databaseURL and verifies it with
// a ping, retrying with exponential backoff while the database comes up.
func Connect(ctx context.Context, databaseURL string) (*Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectMaxRetries, retry.NewExponential(connectBaseDelay))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	}); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping database").Wrap(err)
	}

	return &Pool{pool: pool}, nil
}

// DB exposes the pool for repository construction.
func (p *Pool) DB() DBTX {
	return p.pool
}

// Ping verifies database connectivity. Used by the readiness probe.
func (p *Pool) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return oops.Code("DB_PING_FAILED").Wrap(err)
	}
	return nil
}

// Close closes the underlying pool.
func (p *Pool) Close() {
	p.pool.Close()
}

// InTx runs fn inside a transaction bound to the context. A nested call
// joins the transaction already on the context instead of opening a second
// one, so a service can compose helpers that each demand a transaction.
func (p *Pool) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return oops.Code("DB_TX_BEGIN_FAILED").Wrap(err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx) //nolint:errcheck // the fn error takes precedence
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("DB_TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// PassthroughTx is a TxRunner that runs fn directly, with no transaction.
// It backs unit tests that exercise services against in-memory fakes.
type PassthroughTx struct{}

// InTx invokes fn with the unmodified context.
func (PassthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Compile-time interface checks.
var (
	_ TxRunner = (*Pool)(nil)
	_ TxRunner = PassthroughTx{}
)
