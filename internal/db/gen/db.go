// Package gen holds the typed query layer over the PostgreSQL schema in
// migrations/. It follows the sqlc layout: a Queries value bound to a DBTX,
// one method per statement and a Querier interface for stubbing.
package gen

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// New binds the queries to a connection or pool.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries executes statements against the bound DBTX.
type Queries struct {
	db DBTX
}

// WithTx returns a copy of the queries bound to tx.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}
