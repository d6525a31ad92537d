// Package audit keeps an append-only journal of booking outcomes for
// reporting. The journal is observational; it is never consulted for
// conflict decisions.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one journal record.
type Entry struct {
	ID            int64
	Action        string
	CustomerName  string
	CustomerPhone string
	Service       string
	Staff         string
	Date          string
	StartTime     string
	EndTime       string
	Outcome       string // "success" or an error code
	CreatedAt     time.Time
}

// Journal wraps the SQLite store.
type Journal struct {
	*sql.DB
}

// NewJournal opens the journal database at path and runs migrations.
func NewJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &Journal{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS booking_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			customer_name TEXT,
			customer_phone TEXT,
			service TEXT,
			staff TEXT,
			date TEXT,
			start_time TEXT,
			end_time TEXT,
			outcome TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_log_created ON booking_log(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_booking_log_phone ON booking_log(customer_phone)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// Record appends one entry.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	_, err := j.ExecContext(ctx, `
		INSERT INTO booking_log (
			action, customer_name, customer_phone, service, staff,
			date, start_time, end_time, outcome, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Action, e.CustomerName, e.CustomerPhone, e.Service, e.Staff,
		e.Date, e.StartTime, e.EndTime, e.Outcome, time.Now(),
	)
	return err
}

// List returns entries created within [from, to] in ascending order.
func (j *Journal) List(ctx context.Context, from, to time.Time) ([]Entry, error) {
	rows, err := j.QueryContext(ctx, `
		SELECT id, action, customer_name, customer_phone, service, staff,
		       date, start_time, end_time, outcome, created_at
		FROM booking_log
		WHERE created_at BETWEEN ? AND ?
		ORDER BY created_at ASC`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.Action, &e.CustomerName, &e.CustomerPhone, &e.Service,
			&e.Staff, &e.Date, &e.StartTime, &e.EndTime, &e.Outcome, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
