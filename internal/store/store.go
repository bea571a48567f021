// Package store is the append-only identity store. Every write is an
// INSERT; no update or delete statement exists anywhere in the package.
// Current state is always read through latest-row-wins lookups.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// every query can run either standalone or inside a workflow transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// Postgres is the production store backed by a pooled *sql.DB. Workflow
// atomicity comes from explicit transaction scopes, not from serializing
// the connection.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open, pinged database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// RunInTx executes fn inside a transaction. Store methods called with the
// context passed to fn join the transaction; all statements commit or none
// do. Mail and other side effects must stay outside fn.
func (s *Postgres) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// q returns the transaction bound to ctx if there is one, else the pool.
func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}
