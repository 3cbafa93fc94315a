// Package history keeps the catalog versions observed for each mod in a
// small SQLite database next to the instance state.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/sqlite"

	"github.com/caedis/mod-update-checker/internal/library"
)

const DBFile = ".mod-update-checker-history.db"

// Entry is one observed version.
type Entry struct {
	Filename   string
	CatalogID  string
	DownloadID string
	Version    string
	ObservedAt time.Time
}

// Store records observed versions. It satisfies reconcile.VersionTracker.
type Store struct {
	db   *sql.DB
	Path string
}

// Open opens or creates the history database inside dir.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("history directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, DBFile)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout=5000&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing history: %w", err)
	}
	return &Store{db: db, Path: path}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS versions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT NOT NULL,
			catalog_id TEXT,
			download_id TEXT,
			version TEXT NOT NULL,
			observed_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_versions_filename ON versions(filename COLLATE NOCASE, id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordNewVersion appends the version in info for mod unless it is empty or
// equal to the last version recorded for the same file.
func (s *Store) RecordNewVersion(mod *library.ManagedMod, info library.RemoteModInfo) error {
	v := info.HumanReadableVersion
	if v == "" {
		v = info.MachineVersion.String()
	}
	if v == "" {
		return nil
	}

	var last string
	err := s.db.QueryRow(`SELECT version FROM versions WHERE filename = ? COLLATE NOCASE ORDER BY id DESC LIMIT 1`, mod.Filename).Scan(&last)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("reading last version of %s: %w", mod.Filename, err)
	case last == v:
		return nil
	}

	catalogID := info.CatalogID
	if !library.IsRealID(catalogID) {
		catalogID = mod.CatalogID
	}
	_, err = s.db.Exec(`INSERT INTO versions(filename, catalog_id, download_id, version, observed_at) VALUES(?,?,?,?,?)`,
		mod.Filename, catalogID, info.DownloadID, v, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("recording version of %s: %w", mod.Filename, err)
	}
	return nil
}

// List returns recorded versions, newest first. An empty filename lists
// every mod; limit <= 0 means no limit.
func (s *Store) List(filename string, limit int) ([]Entry, error) {
	query := `SELECT filename, COALESCE(catalog_id, ''), COALESCE(download_id, ''), version, observed_at FROM versions`
	var args []any
	if filename != "" {
		query += ` WHERE filename = ? COLLATE NOCASE`
		args = append(args, filename)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var observed int64
		if err := rows.Scan(&e.Filename, &e.CatalogID, &e.DownloadID, &e.Version, &observed); err != nil {
			return nil, err
		}
		e.ObservedAt = time.Unix(0, observed)
		out = append(out, e)
	}
	return out, rows.Err()
}
