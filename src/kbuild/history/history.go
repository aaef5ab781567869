// Package history records completed build runs in a SQLite ledger so past
// builds can be inspected after logs have been rotated away.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sdunnagan/kbuild-centos/src/common/paths"
)

// DefaultPath is the default location of the build history database.
const DefaultPath = "~/.kbuild/history.db"

// Run describes one completed build invocation.
type Run struct {
	ID       string
	Stream   string
	Arch     string
	Success  bool
	Duration time.Duration
	LogPath  string
	Created  time.Time
}

// Ledger wraps the SQLite connection holding the build history.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Ledger, error) {
	dbPath := paths.Expand(path)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	ledger := &Ledger{
		db:   db,
		path: dbPath,
	}

	if err := ledger.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return ledger, nil
}

// initSchema creates the history table
func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		stream TEXT NOT NULL,
		arch TEXT NOT NULL,
		success INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		log_path TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_created ON builds(created_at);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Record inserts a run into the ledger. If the run has no ID yet a new
// one is generated and written back.
func (l *Ledger) Record(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Created.IsZero() {
		run.Created = time.Now()
	}

	_, err := l.db.Exec(`
		INSERT INTO builds (id, stream, arch, success, duration_seconds, log_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Stream, run.Arch, run.Success,
		int64(run.Duration.Seconds()), run.LogPath, run.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to record build: %w", err)
	}

	return nil
}

// Recent returns the most recent runs, newest first.
func (l *Ledger) Recent(limit int) ([]Run, error) {
	rows, err := l.db.Query(`
		SELECT id, stream, arch, success, duration_seconds, log_path, created_at
		FROM builds ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query build history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var seconds int64
		if err := rows.Scan(&run.ID, &run.Stream, &run.Arch, &run.Success,
			&seconds, &run.LogPath, &run.Created); err != nil {
			return nil, fmt.Errorf("failed to scan build row: %w", err)
		}
		run.Duration = time.Duration(seconds) * time.Second
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Path returns the filesystem path of the history database.
func (l *Ledger) Path() string {
	return l.path
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}
