// Package db wires the generated queries to a pgx pool and runs
// multi-statement writes inside transactions.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

// Transactor runs fn against queries bound to a single transaction.
// fn's error rolls the transaction back.
type Transactor interface {
	InTx(ctx context.Context, fn func(q dbgen.Querier) error) error
}

// PoolTransactor opens transactions on a pgx pool.
type PoolTransactor struct {
	Pool *pgxpool.Pool
	Q    *dbgen.Queries
}

// NewPoolTransactor binds queries to pool.
func NewPoolTransactor(pool *pgxpool.Pool) *PoolTransactor {
	return &PoolTransactor{Pool: pool, Q: dbgen.New(pool)}
}

// InTx implements Transactor.
func (t *PoolTransactor) InTx(ctx context.Context, fn func(q dbgen.Querier) error) error {
	tx, err := t.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(t.Q.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Direct runs fn on Q without a transaction. Tests use it with stub queriers.
type Direct struct {
	Q dbgen.Querier
}

// InTx implements Transactor.
func (d Direct) InTx(_ context.Context, fn func(q dbgen.Querier) error) error {
	return fn(d.Q)
}
