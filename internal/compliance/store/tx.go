// Package store persists the subject-owned rows the compliance lifecycle
// exports and erases.
package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"trustplane/pkg/platform/sentinel"
	"trustplane/pkg/platform/tx"
)

var ErrNotFound = sentinel.ErrNotFound

// TxMode selects the isolation a unit of work needs.
type TxMode int

const (
	// TxSnapshot is a read-only repeatable-read transaction.
	TxSnapshot TxMode = iota
	// TxReadWrite is a read-committed read-write transaction.
	TxReadWrite
)

const defaultTxTimeout = 5 * time.Second

// PostgresTx runs work in one database transaction. Stores that use
// tx.ExecutorFor join it through the context.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db, timeout: defaultTxTimeout}
}

func (t *PostgresTx) RunInTx(ctx context.Context, mode TxMode, fn func(ctx context.Context) error) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	opts := &sql.TxOptions{}
	if mode == TxSnapshot {
		opts.Isolation = sql.LevelRepeatableRead
		opts.ReadOnly = true
	}
	return tx.Run(ctx, t.db, opts, func(ctx context.Context, _ *sql.Tx) error {
		return fn(ctx)
	})
}

// InMemoryTx serializes units of work so each sees a stable view of the
// in-memory stores. There is no rollback.
type InMemoryTx struct {
	mu sync.Mutex
}

func NewInMemoryTx() *InMemoryTx {
	return &InMemoryTx{}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, _ TxMode, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
