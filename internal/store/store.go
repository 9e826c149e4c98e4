// Package store provides the SQLite storage layer for lineage.
//
// Families group tree documents. Each tree is one JSON document as produced
// by the import engine (or uploaded as-is), addressed by family and file name.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.lineage/lineage.db"

var (
	// ErrNotFound is returned when a family or tree does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when a family or tree name is already taken.
	ErrExists = errors.New("already exists")
	// ErrInvalidName is returned for blank family names.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidContent is returned when a tree is not valid JSON.
	ErrInvalidContent = errors.New("tree content is not valid JSON")
)

// Family is a named folder of trees.
type Family struct {
	Name      string
	CreatedAt time.Time
}

// Tree is one stored tree document.
type Tree struct {
	Family    string
	FileName  string
	Content   []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoreConfig holds configuration for NewStore.
type StoreConfig struct {
	DBPath string
}

// Store defines the tree storage interface.
type Store interface {
	// Families
	CreateFamily(ctx context.Context, name string) (string, error)
	FamilyExists(ctx context.Context, name string) (bool, error)
	ListFamilies(ctx context.Context) ([]string, error)
	DeleteFamily(ctx context.Context, name string) error

	// Trees
	SaveTree(ctx context.Context, family, fileName string, content []byte) (string, error)
	GetTree(ctx context.Context, family, fileName string) (*Tree, error)
	ListTrees(ctx context.Context, family string) ([]string, error)
	RenameTree(ctx context.Context, family, oldName, newName string) (string, error)
	DeleteTree(ctx context.Context, family, fileName string) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new SQLite-backed Store.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(cfg StoreConfig) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}

	// Create parent directory for non-memory databases
	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	if cfg.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
