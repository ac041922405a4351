// Package store persists users, API keys, rate limit policies, clues
// and trivia questions in PostgreSQL.
package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements every store interface on top of a shared
// connection pool. Both the API server and the batch processor hold
// exactly one of these.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}
