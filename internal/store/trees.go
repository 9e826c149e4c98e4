package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var unsafeNameRE = regexp.MustCompile(`[\s\\/:*?"<>|]`)

// SanitizeFamilyName replaces whitespace and path-hostile characters with
// underscores. A blank name becomes "_".
func SanitizeFamilyName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "_"
	}
	return unsafeNameRE.ReplaceAllString(name, "_")
}

// SanitizeFileName sanitizes like SanitizeFamilyName and forces a .json
// extension. A blank name becomes "file.json".
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "file.json"
	}
	name = unsafeNameRE.ReplaceAllString(name, "_")
	if !strings.HasSuffix(strings.ToLower(name), ".json") {
		name += ".json"
	}
	return name
}

// CreateFamily creates a family and returns the sanitized name it is stored
// under.
func (s *SQLiteStore) CreateFamily(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("family name: %w", ErrInvalidName)
	}
	safe := SanitizeFamilyName(name)

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO families (name, created_at) VALUES (?, ?)",
		safe, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("family %q: %w", safe, ErrExists)
		}
		return "", fmt.Errorf("creating family: %w", err)
	}
	return safe, nil
}

// FamilyExists reports whether a family exists, ignoring case.
func (s *SQLiteStore) FamilyExists(ctx context.Context, name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, nil
	}
	_, err := s.familyName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ListFamilies returns all family names in order.
func (s *SQLiteStore) ListFamilies(ctx context.Context) ([]string, error) {
	return s.queryNames(ctx, "SELECT name FROM families ORDER BY name")
}

// DeleteFamily removes a family and all of its trees.
func (s *SQLiteStore) DeleteFamily(ctx context.Context, name string) error {
	family, err := s.familyName(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM trees WHERE family = ?", family); err != nil {
		return fmt.Errorf("deleting trees: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM families WHERE name = ?", family); err != nil {
		return fmt.Errorf("deleting family: %w", err)
	}
	return tx.Commit()
}

// SaveTree creates or replaces a tree document and returns the sanitized
// file name it is stored under. The family must exist.
func (s *SQLiteStore) SaveTree(ctx context.Context, family, fileName string, content []byte) (string, error) {
	fam, err := s.familyName(ctx, family)
	if err != nil {
		return "", err
	}
	if !json.Valid(content) {
		return "", ErrInvalidContent
	}
	safe := SanitizeFileName(fileName)

	// An update keeps the spelling already on disk.
	var stored string
	now := time.Now().UTC()
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO trees (family, file_name, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(family, file_name) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
		 RETURNING file_name`,
		fam, safe, content, now, now,
	).Scan(&stored)
	if err != nil {
		return "", fmt.Errorf("saving tree: %w", err)
	}
	return stored, nil
}

// GetTree returns one tree document.
func (s *SQLiteStore) GetTree(ctx context.Context, family, fileName string) (*Tree, error) {
	fam, err := s.familyName(ctx, family)
	if err != nil {
		return nil, err
	}

	t := &Tree{}
	err = s.db.QueryRowContext(ctx,
		`SELECT family, file_name, content, created_at, updated_at
		 FROM trees WHERE family = ? AND file_name = ?`,
		fam, SanitizeFileName(fileName),
	).Scan(&t.Family, &t.FileName, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tree %q: %w", fileName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting tree: %w", err)
	}
	return t, nil
}

// ListTrees returns the file names of a family's trees in order.
func (s *SQLiteStore) ListTrees(ctx context.Context, family string) ([]string, error) {
	fam, err := s.familyName(ctx, family)
	if err != nil {
		return nil, err
	}
	return s.queryNames(ctx, "SELECT file_name FROM trees WHERE family = ? ORDER BY file_name", fam)
}

// RenameTree renames a tree and returns the new sanitized name. Renaming
// onto another existing tree fails with ErrExists; changing only the case of
// a name is allowed.
func (s *SQLiteStore) RenameTree(ctx context.Context, family, oldName, newName string) (string, error) {
	fam, err := s.familyName(ctx, family)
	if err != nil {
		return "", err
	}
	oldSafe := SanitizeFileName(oldName)
	newSafe := SanitizeFileName(newName)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning rename: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM trees WHERE family = ? AND file_name = ?", fam, oldSafe,
	).Scan(&exists); err != nil {
		return "", fmt.Errorf("checking tree: %w", err)
	}
	if exists == 0 {
		return "", fmt.Errorf("tree %q: %w", oldName, ErrNotFound)
	}

	if !strings.EqualFold(oldSafe, newSafe) {
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM trees WHERE family = ? AND file_name = ?", fam, newSafe,
		).Scan(&exists); err != nil {
			return "", fmt.Errorf("checking tree: %w", err)
		}
		if exists > 0 {
			return "", fmt.Errorf("tree %q: %w", newSafe, ErrExists)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE trees SET file_name = ?, updated_at = ? WHERE family = ? AND file_name = ?",
		newSafe, time.Now().UTC(), fam, oldSafe,
	); err != nil {
		return "", fmt.Errorf("renaming tree: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing rename: %w", err)
	}
	return newSafe, nil
}

// DeleteTree removes one tree.
func (s *SQLiteStore) DeleteTree(ctx context.Context, family, fileName string) error {
	fam, err := s.familyName(ctx, family)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM trees WHERE family = ? AND file_name = ?", fam, SanitizeFileName(fileName),
	)
	if err != nil {
		return fmt.Errorf("deleting tree: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting tree: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("tree %q: %w", fileName, ErrNotFound)
	}
	return nil
}

// familyName resolves a family to its stored spelling.
func (s *SQLiteStore) familyName(ctx context.Context, name string) (string, error) {
	var stored string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM families WHERE name = ?", SanitizeFamilyName(name),
	).Scan(&stored)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("family %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("looking up family: %w", err)
	}
	return stored, nil
}

func (s *SQLiteStore) queryNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scanning name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "primary key must be unique")
}
