// Package cache provides the sqlite query cache for the dashboard.
//
// The CSV files under the data directory are the source of truth; this
// cache mirrors them so the dashboard can answer status and summary
// queries without re-parsing files on every request. The watch daemon
// resyncs the cache whenever the files change.
//
// The database runs embedded (ncruces/go-sqlite3) with WAL mode so the
// dashboard can read while a resync writes.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/sjvdm/roadprog/internal/completion"
	"github.com/sjvdm/roadprog/internal/reconcile"
	"github.com/sjvdm/roadprog/internal/roster"
)

// DB wraps the sqlite connection holding the mirrored progress state.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the cache database at path.
//
// The caller MUST call Close() when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path}

	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Close closes the database, checkpointing the WAL first.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close cache database: %w", err)
	}
	db.conn = nil
	return nil
}

// InitSchema creates the cache tables. Idempotent.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the cache tables with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS suburbs (
		name TEXT PRIMARY KEY,
		assigned_editor TEXT,
		state TEXT NOT NULL DEFAULT 'Not Started',
		completed_by TEXT
	);

	CREATE TABLE IF NOT EXISTS completions (
		editor TEXT NOT NULL,
		suburb TEXT NOT NULL,
		PRIMARY KEY (editor, suburb)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_suburbs_state ON suburbs(state);
	CREATE INDEX IF NOT EXISTS idx_suburbs_assigned ON suburbs(assigned_editor);
	CREATE INDEX IF NOT EXISTS idx_completions_suburb ON completions(suburb);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return nil
}

// Resync replaces the cache content with the given roster and completion
// state in a single transaction, recording the sync time in meta.
func (db *DB) Resync(ctx context.Context, records []roster.Suburb, sets completion.Sets) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin resync transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"suburbs", "completions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	rows := reconcile.StatusTable(records, sets)
	for _, r := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO suburbs (name, assigned_editor, state, completed_by)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				assigned_editor = excluded.assigned_editor,
				state = excluded.state,
				completed_by = excluded.completed_by
		`, r.Suburb, r.AssignedEditor, string(r.State), r.CompletedBy)
		if err != nil {
			return fmt.Errorf("failed to upsert suburb %s: %w", r.Suburb, err)
		}
	}

	for _, editor := range sets.Editors() {
		for suburb := range sets[editor] {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO completions (editor, suburb) VALUES (?, ?)
				ON CONFLICT(editor, suburb) DO NOTHING
			`, editor, suburb)
			if err != nil {
				return fmt.Errorf("failed to upsert completion %s/%s: %w", editor, suburb, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ('synced_at', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record sync time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit resync: %w", err)
	}
	return nil
}

// StatusRows returns the mirrored per-suburb status table in name order.
func (db *DB) StatusRows(ctx context.Context) ([]reconcile.StatusRow, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT name, COALESCE(assigned_editor, ''), state, COALESCE(completed_by, '')
		FROM suburbs ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query status rows: %w", err)
	}
	defer rows.Close()

	var out []reconcile.StatusRow
	for rows.Next() {
		var r reconcile.StatusRow
		var state string
		if err := rows.Scan(&r.Suburb, &r.AssignedEditor, &state, &r.CompletedBy); err != nil {
			return nil, fmt.Errorf("failed to scan status row: %w", err)
		}
		r.State = reconcile.State(state)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats summarizes the mirrored state: suburb total, completed count, and
// distinct completing editors.
type Stats struct {
	Suburbs   int       `json:"suburbs"`
	Completed int       `json:"completed"`
	Editors   int       `json:"editors"`
	SyncedAt  time.Time `json:"synced_at,omitempty"`
}

// GetStats returns aggregate counts from the cache.
func (db *DB) GetStats(ctx context.Context) (Stats, error) {
	var s Stats
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM suburbs),
			(SELECT COUNT(*) FROM suburbs WHERE state = 'Complete'),
			(SELECT COUNT(DISTINCT editor) FROM completions)
	`).Scan(&s.Suburbs, &s.Completed, &s.Editors)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query cache stats: %w", err)
	}

	var syncedAt string
	err = db.conn.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'synced_at'`).Scan(&syncedAt)
	if err == nil {
		if t, perr := time.Parse(time.RFC3339, syncedAt); perr == nil {
			s.SyncedAt = t
		}
	} else if err != sql.ErrNoRows {
		return Stats{}, fmt.Errorf("failed to query sync time: %w", err)
	}

	return s, nil
}

// SuburbCount returns the number of mirrored suburbs.
func (db *DB) SuburbCount(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM suburbs").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count suburbs: %w", err)
	}
	return n, nil
}

// CompletionCount returns the number of mirrored completion facts.
func (db *DB) CompletionCount(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM completions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count completions: %w", err)
	}
	return n, nil
}
