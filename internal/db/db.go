// Package db is the SQLite audit store for blocked commands.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps the audit database connection.
type DB struct {
	*sql.DB
	path string
}

// OpenOptions controls how the database file is opened.
type OpenOptions struct {
	CreateIfNotExists bool
	InitSchema        bool
	ReadOnly          bool
}

// DefaultOpenOptions creates the file and schema when missing.
func DefaultOpenOptions() OpenOptions {
	return OpenOptions{CreateIfNotExists: true, InitSchema: true}
}

// Open opens the database at path with default options.
func Open(path string) (*DB, error) {
	return OpenWithOptions(path, DefaultOpenOptions())
}

// OpenAndMigrate opens the database and applies the schema.
func OpenAndMigrate(path string) (*DB, error) {
	opts := DefaultOpenOptions()
	opts.InitSchema = true
	return OpenWithOptions(path, opts)
}

// OpenWithOptions opens the database at path.
func OpenWithOptions(path string, opts OpenOptions) (*DB, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat database: %w", err)
		}
		if !opts.CreateIfNotExists || opts.ReadOnly {
			return nil, fmt.Errorf("database %s does not exist", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if opts.ReadOnly {
		dsn = "file:" + path + "?mode=ro&_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	db := &DB{DB: conn, path: path}
	if opts.InitSchema && !opts.ReadOnly {
		if err := db.migrate(); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL DEFAULT '',
	platform   TEXT NOT NULL DEFAULT '',
	cwd        TEXT NOT NULL DEFAULT '',
	command    TEXT NOT NULL,
	segment    TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions(created_at);
CREATE INDEX IF NOT EXISTS idx_decisions_session ON decisions(session_id);
`

func (db *DB) migrate() error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
