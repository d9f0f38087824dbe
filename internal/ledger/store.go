// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records pipeline runs and their per-image outcomes in a
// SQLite database so earlier runs can be listed and exported.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/grayscaler/pkg/types"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const defaultListLimit = 20

// ErrRunNotFound is returned when a run ID is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is the list view of a recorded run.
type RunRecord struct {
	ID             string    `json:"id" yaml:"id"`
	StartedAt      time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time `json:"finished_at" yaml:"finished_at"`
	Archive        string    `json:"archive" yaml:"archive"`
	ExtractDir     string    `json:"extract_dir" yaml:"extract_dir"`
	OutputDir      string    `json:"output_dir" yaml:"output_dir"`
	Extracted      int       `json:"extracted" yaml:"extracted"`
	ExtractedBytes int64     `json:"extracted_bytes" yaml:"extracted_bytes"`
	Found          int       `json:"found" yaml:"found"`
	Converted      int       `json:"converted" yaml:"converted"`
	Failed         int       `json:"failed" yaml:"failed"`
	Error          string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Succeeded reports whether the run finished without any failure.
func (r RunRecord) Succeeded() bool {
	return r.Error == "" && r.Failed == 0
}

// Store manages the ledger database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the ledger database at cfg.Path, creating the
// parent directory and schema if they do not exist.
func NewStore(cfg types.LedgerConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = types.DefaultLedgerPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			archive TEXT,
			extract_dir TEXT,
			output_dir TEXT,
			extracted INTEGER,
			extracted_bytes INTEGER,
			found INTEGER,
			converted INTEGER,
			failed INTEGER,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			input TEXT NOT NULL,
			output TEXT,
			status TEXT NOT NULL,
			width INTEGER,
			height INTEGER,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_files_run_id ON files(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores summary and its file results in one transaction.
// Recording the same run ID again replaces the earlier entry.
func (s *Store) RecordRun(ctx context.Context, summary *types.RunSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE run_id = ?`, summary.ID); err != nil {
		return fmt.Errorf("clearing files for run %s: %w", summary.ID, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs
			(id, started_at, finished_at, archive, extract_dir, output_dir,
			 extracted, extracted_bytes, found, converted, failed, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.ID,
		formatTime(summary.StartedAt),
		formatTime(summary.FinishedAt),
		summary.Archive,
		summary.ExtractDir,
		summary.OutputDir,
		summary.Extracted,
		summary.ExtractedBytes,
		summary.Found(),
		summary.Converted(),
		summary.Failed(),
		summary.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", summary.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO files (run_id, input, output, status, width, height, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing file insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range summary.Files {
		if _, err := stmt.ExecContext(ctx, summary.ID, f.Input, f.Output, string(f.Status), f.Width, f.Height, f.Error); err != nil {
			return fmt.Errorf("inserting file %s: %w", f.Input, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns up to limit runs, newest first. A limit of 0 or less
// uses the default of 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, archive, extract_dir, output_dir,
		        extracted, extracted_bytes, found, converted, failed, error
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Run loads the full summary of one run, including its file results.
func (s *Store) Run(ctx context.Context, id string) (*types.RunSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, archive, extract_dir, output_dir,
		        extracted, extracted_bytes, found, converted, failed, error
		 FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	summary := &types.RunSummary{
		ID:             r.ID,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Archive:        r.Archive,
		ExtractDir:     r.ExtractDir,
		OutputDir:      r.OutputDir,
		Extracted:      r.Extracted,
		ExtractedBytes: r.ExtractedBytes,
		Error:          r.Error,
	}

	files, err := s.runFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	summary.Files = files
	return summary, nil
}

func (s *Store) runFiles(ctx context.Context, runID string) ([]types.FileResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT input, output, status, width, height, error
		 FROM files WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying files for run %s: %w", runID, err)
	}
	defer rows.Close()

	var files []types.FileResult
	for rows.Next() {
		var (
			f              types.FileResult
			status         string
			output, errMsg sql.NullString
		)
		if err := rows.Scan(&f.Input, &output, &status, &f.Width, &f.Height, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		f.Output = output.String
		f.Status = types.FileStatus(status)
		f.Error = errMsg.String
		files = append(files, f)
	}
	return files, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		r                     RunRecord
		started               string
		finished, errMsg      sql.NullString
		archive, extract, out sql.NullString
	)
	err := row.Scan(&r.ID, &started, &finished, &archive, &extract, &out,
		&r.Extracted, &r.ExtractedBytes, &r.Found, &r.Converted, &r.Failed, &errMsg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scanning run row: %w", err)
	}

	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished.String)
	r.Archive = archive.String
	r.ExtractDir = extract.String
	r.OutputDir = out.String
	r.Error = errMsg.String
	return r, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
