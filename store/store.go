// Package store is the Postgres persistence layer. Queries use plain
// database/sql with lib/pq; multi-row mutations that must stay atomic
// (join accepts, trip status changes) run inside transactions with row
// locks on the trip.
package store

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
