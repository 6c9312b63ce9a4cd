// Package audit persists an append-only record of completed research
// requests (never in-flight state — ResearchState itself is explicitly not
// persisted) for after-the-fact inspection, grounded on the teacher's sqlx
// usage pattern against a relational store.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Record is one completed request: its mode, the final three-line answer,
// how many hops it took and why it stopped.
type Record struct {
	ID           int64     `db:"id"`
	RequestID    string    `db:"request_id"`
	Mode         string    `db:"mode"`
	Question     string    `db:"question"`
	Answer       string    `db:"answer"`
	Hops         int       `db:"hops"`
	StopReason   string    `db:"stop_reason"`
	FindingCount int       `db:"finding_count"`
	DurationMs   int64     `db:"duration_ms"`
	CompletedAt  time.Time `db:"completed_at"`
}

// Store wraps a sqlite-backed audit log.
type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS research_audit (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	mode TEXT NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	hops INTEGER NOT NULL,
	stop_reason TEXT NOT NULL,
	finding_count INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	completed_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_research_audit_request_id ON research_audit(request_id);
`

// Open connects to a sqlite database at dsn and ensures the audit table
// exists.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordCompletion appends a finished request. Never called mid-loop; the
// loop itself carries no persistence.
func (s *Store) RecordCompletion(ctx context.Context, r Record) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO research_audit
			(request_id, mode, question, answer, hops, stop_reason, finding_count, duration_ms, completed_at)
		VALUES
			(:request_id, :mode, :question, :answer, :hops, :stop_reason, :finding_count, :duration_ms, :completed_at)
	`, r)
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}

// RecentByMode returns the most recent n completed requests for mode,
// newest first.
func (s *Store) RecentByMode(ctx context.Context, mode string, n int) ([]Record, error) {
	var records []Record
	err := s.db.SelectContext(ctx, &records, `
		SELECT id, request_id, mode, question, answer, hops, stop_reason, finding_count, duration_ms, completed_at
		FROM research_audit
		WHERE mode = ?
		ORDER BY completed_at DESC
		LIMIT ?
	`, mode, n)
	if err != nil {
		return nil, fmt.Errorf("query recent audit records: %w", err)
	}
	return records, nil
}
