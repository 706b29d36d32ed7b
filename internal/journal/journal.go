// Package journal keeps a durable history of applied patches in SQLite.
//
// Every successful apply records the patch wire format alongside its
// stats, so any entry can be re-applied or inverted later.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/tandemhq/tandem/pkg/patch"
)

// openDB is swappable in tests.
var openDB = sql.Open

// ErrNotFound reports a journal entry that does not exist.
var ErrNotFound = errors.New("journal: entry not found")

// Entry is one recorded patch application.
type Entry struct {
	ID         int64  `json:"id"`
	Path       string `json:"path"`
	Patch      string `json:"patch"`
	Note       string `json:"note,omitempty"`
	Hunks      int    `json:"hunks"`
	Insertions int    `json:"insertions"`
	Deletions  int    `json:"deletions"`
	CreatedAt  string `json:"created_at"`
}

// Set decodes the entry's stored patch.
func (e Entry) Set() (patch.Set, error) {
	return patch.Decode([]byte(e.Patch))
}

// Journal is the patch history store backed by SQLite.
type Journal struct {
	db *sql.DB
}

// Open creates the journal database at path if needed and opens it with
// WAL mode enabled.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("journal: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			path       TEXT    NOT NULL,
			patch      TEXT    NOT NULL,
			note       TEXT    NOT NULL DEFAULT '',
			hunks      INTEGER NOT NULL,
			insertions INTEGER NOT NULL,
			deletions  INTEGER NOT NULL,
			created_at TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_entries_path    ON entries(path);
		CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at DESC);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record stores one applied patch and returns its entry id.
func (j *Journal) Record(ctx context.Context, path string, set patch.Set, note string) (int64, error) {
	encoded, err := set.Encode()
	if err != nil {
		return 0, fmt.Errorf("journal: encode patch: %w", err)
	}
	stats := set.Stats()

	res, err := j.db.ExecContext(ctx,
		`INSERT INTO entries (path, patch, note, hunks, insertions, deletions)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		path, string(encoded), note, stats.Hunks, stats.Insertions, stats.Deletions,
	)
	if err != nil {
		return 0, fmt.Errorf("journal: record %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("journal: last insert id: %w", err)
	}
	return id, nil
}

// List returns the newest entries first. A non-positive limit returns
// everything.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, path, patch, note, hunks, insertions, deletions, created_at
		   FROM entries
		  ORDER BY id DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Path, &e.Patch, &e.Note, &e.Hunks, &e.Insertions, &e.Deletions, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given id.
func (j *Journal) Get(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	err := j.db.QueryRowContext(ctx,
		`SELECT id, path, patch, note, hunks, insertions, deletions, created_at
		   FROM entries
		  WHERE id = ?`, id).
		Scan(&e.ID, &e.Path, &e.Patch, &e.Note, &e.Hunks, &e.Insertions, &e.Deletions, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("journal: get entry %d: %w", id, err)
	}
	return e, nil
}

// Latest returns the newest entry, optionally restricted to one path.
func (j *Journal) Latest(ctx context.Context, path string) (Entry, error) {
	query := `SELECT id, path, patch, note, hunks, insertions, deletions, created_at FROM entries`
	args := []any{}
	if path != "" {
		query += ` WHERE path = ?`
		args = append(args, path)
	}
	query += ` ORDER BY id DESC LIMIT 1`

	var e Entry
	err := j.db.QueryRowContext(ctx, query, args...).
		Scan(&e.ID, &e.Path, &e.Patch, &e.Note, &e.Hunks, &e.Insertions, &e.Deletions, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		if path != "" {
			return Entry{}, fmt.Errorf("%w: path %s", ErrNotFound, path)
		}
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("journal: latest entry: %w", err)
	}
	return e, nil
}

// Prune deletes all but the newest keep entries and reports how many
// were removed. keep <= 0 keeps everything.
func (j *Journal) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := j.db.ExecContext(ctx,
		`DELETE FROM entries
		  WHERE id NOT IN (SELECT id FROM entries ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("journal: prune rows affected: %w", err)
	}
	return int(n), nil
}
