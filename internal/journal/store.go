// Package journal keeps a history of every document Polly writes.
//
// It is a SQLite database under the data directory with one row per
// successful write. The journal is history only: the resolver never reads
// it, so deleting journal.db changes nothing about a project's state.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// DBFile is the journal file name inside the data directory.
const DBFile = "journal.db"

// ─── Types ───────────────────────────────────────────────────────────────────

// Session is one run of the server or CLI.
type Session struct {
	ID        string `json:"id"`
	Project   string `json:"project"`
	StartedAt string `json:"started_at"`
}

// Entry is one journaled write.
type Entry struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Project   string `json:"project"`
	Operation string `json:"operation"`
	Kind      string `json:"kind"`
	Slug      string `json:"slug"`
	Path      string `json:"path"`
	Digest    string `json:"digest"`
	CreatedAt string `json:"created_at"`
}

// Stats holds aggregate journal counts.
type Stats struct {
	TotalSessions int            `json:"total_sessions"`
	TotalEntries  int            `json:"total_entries"`
	ByKind        map[string]int `json:"by_kind"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds journal configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default journal configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".polly")}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed journal.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New opens (creating if needed) the journal in cfg.DataDir.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("journal: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, DBFile)
	db, err := openDB("sqlite", dbPath)
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
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return filepath.Join(s.cfg.DataDir, DBFile)
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			project    TEXT NOT NULL,
			started_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS entries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			project    TEXT NOT NULL,
			operation  TEXT NOT NULL,
			kind       TEXT NOT NULL,
			slug       TEXT NOT NULL DEFAULT '',
			path       TEXT NOT NULL,
			digest     TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_entries_project ON entries(project, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_entries_slug    ON entries(slug);
	`)
	return err
}

// ─── Sessions ────────────────────────────────────────────────────────────────

// CreateSession registers a session. Re-registering an id is a no-op.
func (s *Store) CreateSession(id, project string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO sessions (id, project, started_at) VALUES (?, ?, ?)`,
		id, project, timeNow().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("journal: create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(`SELECT id, project, started_at FROM sessions WHERE id = ?`, id)
	var sess Session
	if err := row.Scan(&sess.ID, &sess.Project, &sess.StartedAt); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ─── Entries ─────────────────────────────────────────────────────────────────

// Record appends an entry and returns its id. CreatedAt defaults to now.
func (s *Store) Record(e Entry) (int64, error) {
	if e.CreatedAt == "" {
		e.CreatedAt = timeNow().UTC().Format(time.RFC3339)
	}
	res, err := s.db.Exec(
		`INSERT INTO entries (session_id, project, operation, kind, slug, path, digest, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Project, e.Operation, e.Kind, e.Slug, e.Path, e.Digest, e.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("journal: record: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns the newest entries, optionally filtered by project and
// slug. limit <= 0 defaults to 20.
func (s *Store) Recent(project, slug string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, session_id, project, operation, kind, slug, path, digest, created_at
		FROM entries
		WHERE 1=1
	`
	args := []any{}
	if project != "" {
		query += " AND project = ?"
		args = append(args, project)
	}
	if slug != "" {
		query += " AND slug = ?"
		args = append(args, slug)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Project, &e.Operation, &e.Kind, &e.Slug, &e.Path, &e.Digest, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats returns aggregate counts for project ("" for all projects).
func (s *Store) Stats(project string) (*Stats, error) {
	st := &Stats{ByKind: make(map[string]int)}

	where, args := "", []any{}
	if project != "" {
		where, args = " WHERE project = ?", []any{project}
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`+where, args...).Scan(&st.TotalSessions); err != nil {
		return nil, fmt.Errorf("journal: stats: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`+where, args...).Scan(&st.TotalEntries); err != nil {
		return nil, fmt.Errorf("journal: stats: %w", err)
	}

	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM entries`+where+` GROUP BY kind`, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: stats: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		st.ByKind[kind] = n
	}
	return st, rows.Err()
}
