// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records conversion runs in a SQLite database so batch
// history survives across invocations.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pagemill/pkg/types"
)

const dbFile = "pagemill.db"

// Store manages the conversion ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at dir/pagemill.db, creating
// the schema if it does not exist.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			documents INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			source TEXT NOT NULL,
			output TEXT,
			pages INTEGER NOT NULL,
			images INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			duration_ms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_run_id ON documents(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun inserts one run and its per-document rows. It returns the
// generated run ID.
func (s *Store) RecordRun(started time.Time, result types.BatchResult) (string, error) {
	runID := uuid.New().String()
	finished := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, started_at, finished_at, documents, failed) VALUES (?, ?, ?, ?, ?)`,
		runID,
		started.UTC().Format(time.RFC3339),
		finished.Format(time.RFC3339),
		result.Total(),
		result.Failed,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for _, doc := range result.Documents {
		errMsg := ""
		if doc.Err != nil {
			errMsg = doc.Err.Error()
		}
		_, err = tx.Exec(
			`INSERT INTO documents (run_id, source, output, pages, images, status, error, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, doc.Source, doc.Output, doc.Pages, doc.Images,
			string(doc.Status), errMsg, doc.Duration.Milliseconds(),
		)
		if err != nil {
			return "", fmt.Errorf("inserting document row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// RunSummary is one row from the runs table.
type RunSummary struct {
	RunID      string
	StartedAt  string
	FinishedAt string
	Documents  int
	Failed     int
}

// Runs returns recorded runs, newest first.
func (s *Store) Runs(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT run_id, started_at, finished_at, documents, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.FinishedAt, &r.Documents, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DocumentsForRun returns the per-document rows of a run in insertion
// order.
func (s *Store) DocumentsForRun(runID string) ([]types.DocumentResult, error) {
	rows, err := s.db.Query(
		`SELECT source, output, pages, images, status, duration_ms
		 FROM documents WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var out []types.DocumentResult
	for rows.Next() {
		var d types.DocumentResult
		var status string
		var durationMS int64
		if err := rows.Scan(&d.Source, &d.Output, &d.Pages, &d.Images, &status, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.Status = types.DocumentStatus(status)
		d.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, d)
	}
	return out, rows.Err()
}
