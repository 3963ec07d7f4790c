// Package repository implements the PostgreSQL record store of the reminder
// engine: vehicles, notification preferences, the reminder attempt ledger and
// email templates.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// pgx driver registration for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Sentinel errors shared with the service layer.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateAttempt is returned when an attempt insert hits the
	// unique (vehicle_id, offset_label) constraint. The ledger row is the
	// source of truth for "already sent", so callers absorb this error.
	ErrDuplicateAttempt = errors.New("reminder attempt already recorded")
)

// Storage encapsulates the PostgreSQL connection.
type Storage struct {
	DB *sql.DB
}

// New opens a connection to PostgreSQL and verifies it with a ping.
func New(storageConnectionString string) (*Storage, error) {
	const op = "repository.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady verifies the schema has been migrated.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'reminder_attempts'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table reminder_attempts missing or query error: %w", err)
	}
	return nil
}
