// Package storage persists the finbook domain in SQLite. Loan and schedule
// rows carry a version column; version-checked updates return
// core.ErrVersionConflict so callers can re-read and retry.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finbook/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Dates are stored as ISO text so lexicographic comparison in SQL matches
// chronological order.
const dateLayout = "2006-01-02"

func formatDate(d core.Date) string {
	return d.Format(dateLayout)
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.DateOf(t), nil
}

// nullDate maps optional dates: the zero Date is stored as NULL.
func nullDate(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(d), Valid: true}
}

func dateFromNull(ns sql.NullString) (core.Date, error) {
	if !ns.Valid {
		return core.Date{}, nil
	}
	return parseDate(ns.String)
}

// nullUUID maps optional references: uuid.Nil is stored as NULL.
func nullUUID(id uuid.UUID) sql.NullString {
	if id == uuid.Nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func uuidFromNull(ns sql.NullString) (uuid.UUID, error) {
	if !ns.Valid {
		return uuid.Nil, nil
	}
	return uuid.Parse(ns.String)
}

// ownerFilter builds the placeholder list and args for a user_id IN (...)
// clause over the resolved owner set.
func ownerFilter(owners []uuid.UUID) (string, []any) {
	if len(owners) == 0 {
		// No owners can match; an impossible filter keeps the SQL valid.
		return "(NULL)", nil
	}
	placeholders := make([]string, len(owners))
	args := make([]any, len(owners))
	for i, id := range owners {
		placeholders[i] = "?"
		args[i] = id.String()
	}
	return "(" + strings.Join(placeholders, ", ") + ")", args
}
