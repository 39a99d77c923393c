package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"carpool-matching-service/config"
)

// Open connects to Postgres and verifies the connection with a ping.
func Open(cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
