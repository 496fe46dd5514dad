package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leofalp/tabscrape/core/table"

	// Register modernc SQLite driver with database/sql.
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	created_at TEXT NOT NULL,
	columns    TEXT NOT NULL,
	row_count  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_rows (
	run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	row_index INTEGER NOT NULL,
	record    TEXT NOT NULL,
	PRIMARY KEY (run_id, row_index)
);`

// Run is one table stored by the SQLite sink.
type Run struct {
	ID        string
	Source    string
	CreatedAt time.Time
	Columns   []string
	RowCount  int
}

// SQLite stores every written table as a run with one JSON record per row.
type SQLite struct {
	db      *sql.DB
	path    string
	owned   bool
	source  string
	now     func() time.Time
	lastRun string
}

// SQLiteOption configures the SQLite sink.
type SQLiteOption func(*SQLite)

// WithSource records where the table came from (a URL or file name).
func WithSource(source string) SQLiteOption {
	return func(s *SQLite) {
		s.source = source
	}
}

// OpenSQLite opens or creates the database at path and prepares the schema.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s, err := NewSQLite(ctx, db, opts...)
	if err != nil {
		_ = db.Close() // Close error less important than schema error
		return nil, err
	}
	s.path = path
	s.owned = true
	return s, nil
}

// NewSQLite uses an already open database and prepares the schema.
func NewSQLite(ctx context.Context, db *sql.DB, opts ...SQLiteOption) (*SQLite, error) {
	if db == nil {
		return nil, errors.New("sqlite sink: database is required")
	}
	s := &SQLite{db: db, path: "sqlite", now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database when the sink opened it.
func (s *SQLite) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Name() string { return "sqlite" }

// LastRunID returns the id of the most recent successful Write.
func (s *SQLite) LastRunID() string {
	return s.lastRun
}

// Write stores t as a new run in a single transaction.
func (s *SQLite) Write(ctx context.Context, t table.Table) error {
	err := s.write(ctx, t)
	report(ctx, s.Name(), s.path, t, err)
	return err
}

func (s *SQLite) write(ctx context.Context, t table.Table) (err error) {
	columns, err := json.Marshal(t.Header())
	if err != nil {
		return fmt.Errorf("encode columns: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() // Rollback error less important than the write error
		}
	}()

	id := uuid.NewString()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, created_at, columns, row_count) VALUES (?, ?, ?, ?, ?)`,
		id, s.source, s.now().UTC().Format(time.RFC3339Nano), string(columns), t.Len(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_rows (run_id, row_index, record) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range t.Records() {
		if _, err = stmt.ExecContext(ctx, id, i, string(MarshalRecord(rec))); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.lastRun = id
	return nil
}

// Runs lists stored runs, newest first.
func (s *SQLite) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, created_at, columns, row_count FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			created string
			columns string
		)
		if err := rows.Scan(&r.ID, &r.Source, &created, &columns, &r.RowCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse run time: %w", err)
		}
		if err := json.Unmarshal([]byte(columns), &r.Columns); err != nil {
			return nil, fmt.Errorf("decode run columns: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Records returns the JSON records stored for a run, in row order.
func (s *SQLite) Records(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM run_rows WHERE run_id = ? ORDER BY row_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []string
	for rows.Next() {
		var rec string
		if err := rows.Scan(&rec); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
