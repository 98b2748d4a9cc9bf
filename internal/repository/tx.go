// Package repository implements the engine's port interfaces on sqlite.
// Repositories are plain SQL scanners; transactional scope is carried through
// the context so a service composes several repository calls into one unit of
// work without the repositories knowing.
package repository

import (
	"context"
	"database/sql"

	"github.com/flowchain/approval-engine/pkg/database"
)

type txContextKey struct{}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// queryable resolves the transaction from the context, falling back to the
// bare connection for reads outside any unit of work.
func queryable(ctx context.Context, db *database.DB) querier {
	if tx, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return tx
	}
	return db.DB
}

// TxManager implements port.TransactionManager. Nested calls join the
// enclosing transaction instead of opening a second one.
type TxManager struct {
	db *database.DB
}

// NewTxManager creates a new TxManager
func NewTxManager(db *database.DB) *TxManager {
	return &TxManager{db: db}
}

// WithTransaction executes fn inside a transaction carried via the context.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	return m.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}
