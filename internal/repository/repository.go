package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the single handle to the durable store. It is constructed once at
// process start and injected into every component that needs it.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
