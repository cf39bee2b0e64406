// Package export persists scan results to SQLite.
package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/joe/fsinfo/pkg/scanner"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY,
	root       TEXT NOT NULL,
	recursive  INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	entries    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	scan_id     TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
	path        TEXT NOT NULL,
	type        TEXT NOT NULL,
	size        INTEGER,
	mode        INTEGER,
	uid         INTEGER,
	gid         INTEGER,
	mtime       INTEGER,
	link_target TEXT,
	PRIMARY KEY (scan_id, path)
);
CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(scan_id, type);
`

// ErrScanNotFound is returned when no scan has the requested id.
var ErrScanNotFound = errors.New("scan not found")

// Store is a SQLite database of scan results.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;
		PRAGMA foreign_keys = ON;
	`)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to set database pragmas: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close() //nolint:wrapcheck // nothing to add
}

// ScanRecord is one row of the scans table.
type ScanRecord struct {
	ID        string
	Root      string
	Recursive bool
	StartedAt time.Time
	Entries   int
}

// EntryRecord is one row of the entries table. Attribute columns are null
// when the entry's attributes could not be read, e.g. a dangling link.
type EntryRecord struct {
	Path       string
	Type       string
	Size       sql.NullInt64
	Mode       sql.NullInt64
	UID        sql.NullInt64
	GID        sql.NullInt64
	MTime      sql.NullInt64
	LinkTarget sql.NullString
}

// Write stores result under a fresh id and returns it. Attributes are read
// from each entry's Info, so live entries are re-validated as they are
// written.
func (s *Store) Write(ctx context.Context, result *scanner.Result, startedAt time.Time) (string, error) {
	if startedAt.IsZero() {
		startedAt = s.now()
	}

	rows := make([]EntryRecord, 0, result.Len())

	for _, entry := range result.Entries {
		row, err := recordFor(ctx, entry)
		if err != nil {
			return "", err
		}

		rows = append(rows, row)
	}

	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scans (id, root, recursive, started_at, entries) VALUES (?, ?, ?, ?, ?)`,
		id, result.Root, result.Recursive, startedAt.UnixNano(), len(rows))
	if err != nil {
		_ = tx.Rollback()

		return "", fmt.Errorf("failed to insert scan: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries
		(scan_id, path, type, size, mode, uid, gid, mtime, link_target)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()

		return "", fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx, id, row.Path, row.Type,
			row.Size, row.Mode, row.UID, row.GID, row.MTime, row.LinkTarget)
		if err != nil {
			_ = tx.Rollback()

			return "", fmt.Errorf("failed to insert entry %s: %w", row.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit scan: %w", err)
	}

	return id, nil
}

func recordFor(ctx context.Context, entry scanner.Entry) (EntryRecord, error) {
	row := EntryRecord{Path: entry.Path}

	typ, err := entry.Info.Type(ctx)
	if err != nil {
		return row, fmt.Errorf("failed to classify %s: %w", entry.Path, err)
	}

	row.Type = typ.String()

	attrs, err := entry.Info.Stat(ctx)
	if err != nil && ctx.Err() != nil {
		return row, ctx.Err() //nolint:wrapcheck // cancellation passes through
	}

	if attrs != nil {
		row.Size = sql.NullInt64{Int64: attrs.Size, Valid: true}
		row.Mode = sql.NullInt64{Int64: int64(attrs.Mode), Valid: true}
		row.UID = sql.NullInt64{Int64: int64(attrs.UID), Valid: true}
		row.GID = sql.NullInt64{Int64: int64(attrs.GID), Valid: true}
		row.MTime = sql.NullInt64{Int64: attrs.MTime.UnixNano(), Valid: true}
	}

	if isLink, _ := entry.Info.IsLink(ctx); isLink {
		if target, err := entry.Info.LinkTarget(ctx); err == nil {
			row.LinkTarget = sql.NullString{String: target, Valid: true}
		}
	}

	return row, nil
}

// Scans lists stored scans, newest first.
func (s *Store) Scans(ctx context.Context) ([]ScanRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, root, recursive, started_at, entries FROM scans ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []ScanRecord

	for rows.Next() {
		var (
			rec     ScanRecord
			started int64
		)

		if err := rows.Scan(&rec.ID, &rec.Root, &rec.Recursive, &started, &rec.Entries); err != nil {
			return nil, fmt.Errorf("failed to read scan: %w", err)
		}

		rec.StartedAt = time.Unix(0, started).UTC()
		scans = append(scans, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scans: %w", err)
	}

	return scans, nil
}

// Entries returns the entries stored for scanID in path order.
func (s *Store) Entries(ctx context.Context, scanID string) ([]EntryRecord, error) {
	var exists int

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scans WHERE id = ?`, scanID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up scan: %w", err)
	}

	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrScanNotFound, scanID)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT path, type, size, mode, uid, gid, mtime, link_target
		FROM entries WHERE scan_id = ? ORDER BY path`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []EntryRecord

	for rows.Next() {
		var rec EntryRecord

		err := rows.Scan(&rec.Path, &rec.Type, &rec.Size, &rec.Mode, &rec.UID, &rec.GID, &rec.MTime, &rec.LinkTarget)
		if err != nil {
			return nil, fmt.Errorf("failed to read entry: %w", err)
		}

		entries = append(entries, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}

	return entries, nil
}
