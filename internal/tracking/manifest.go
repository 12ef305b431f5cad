// Package tracking keeps a local sqlite manifest of completed clip
// downloads so a re-run can skip work that already finished.
package tracking

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultCacheSize = -2000 // 2MB
	busyTimeout      = 5000  // milliseconds
	maxOpenConns     = 5
	maxIdleConns     = 2
)

// Entry is one recorded download.
type Entry struct {
	ShotID       string    `json:"shot_id"`
	Path         string    `json:"path"`
	SizeBytes    int64     `json:"size_bytes"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Manifest wraps the sqlite database. A nil *Manifest is valid and turns
// every operation into a no-op, so the pipeline degrades to plain
// filesystem existence checks when sqlite is unavailable.
type Manifest struct {
	db       *sql.DB
	upsertPS *sql.Stmt
	getPS    *sql.Stmt
}

// Open creates or opens the manifest database at dbPath.
func Open(dbPath string) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	// Windows paths need forward slashes inside the sqlite URI.
	uriPath := dbPath
	if runtime.GOOS == "windows" {
		uriPath = strings.ReplaceAll(dbPath, "\\", "/")
	}
	dsn := fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d&_cache_size=%d",
		uriPath, busyTimeout, defaultCacheSize,
	)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	schema := `CREATE TABLE IF NOT EXISTS downloads (
		shot_id       TEXT PRIMARY KEY,
		path          TEXT    NOT NULL,
		size_bytes    INTEGER NOT NULL CHECK(size_bytes >= 0),
		downloaded_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize manifest schema: %w", err)
	}

	upsert, err := db.Prepare(`INSERT INTO downloads (shot_id, path, size_bytes, downloaded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(shot_id) DO UPDATE SET
			path = excluded.path,
			size_bytes = excluded.size_bytes,
			downloaded_at = excluded.downloaded_at`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare upsert: %w", err)
	}

	get, err := db.Prepare(`SELECT shot_id, path, size_bytes, downloaded_at
		FROM downloads WHERE shot_id = ?`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare lookup: %w", err)
	}

	return &Manifest{db: db, upsertPS: upsert, getPS: get}, nil
}

// Record stores or refreshes the entry for a completed download.
func (m *Manifest) Record(shotID, path string, sizeBytes int64) error {
	if m == nil {
		return nil
	}
	_, err := m.upsertPS.Exec(shotID, path, sizeBytes, time.Now().UTC().Unix())
	return err
}

// Lookup returns the recorded entry for a shot, or nil when none exists.
func (m *Manifest) Lookup(shotID string) (*Entry, error) {
	if m == nil {
		return nil, nil
	}

	var (
		e  Entry
		ts int64
	)
	err := m.getPS.QueryRow(shotID).Scan(&e.ShotID, &e.Path, &e.SizeBytes, &ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.DownloadedAt = time.Unix(ts, 0).UTC()
	return &e, nil
}

// Count returns how many downloads the manifest records.
func (m *Manifest) Count() (int, error) {
	if m == nil {
		return 0, nil
	}
	var n int
	err := m.db.QueryRow(`SELECT COUNT(*) FROM downloads`).Scan(&n)
	return n, err
}

// Close releases the database handle.
func (m *Manifest) Close() error {
	if m == nil {
		return nil
	}
	if m.upsertPS != nil {
		_ = m.upsertPS.Close()
	}
	if m.getPS != nil {
		_ = m.getPS.Close()
	}
	return m.db.Close()
}
