// Package scores keeps the best score per game key in SQLite.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package scores

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store persists best scores.
type Store struct {
	db *sql.DB
}

// Entry is one stored best score.
type Entry struct {
	Key       string
	Score     int
	UpdatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("scores: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("scores: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("scores: cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("scores: cannot connect to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("scores: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS best_scores (
			key TEXT PRIMARY KEY,
			score INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Best returns the stored score for key. ok is false when nothing has been
// submitted under key yet.
func (s *Store) Best(key string) (score int, ok bool, err error) {
	err = s.db.QueryRow("SELECT score FROM best_scores WHERE key = ?", key).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("scores: cannot read %s: %w", key, err)
	}
	return score, true, nil
}

// Submit stores score under key if it beats the current best and reports
// whether it did.
func (s *Store) Submit(key string, score int) (bool, error) {
	if key == "" {
		return false, errors.New("scores: empty key")
	}
	res, err := s.db.Exec(`
		INSERT INTO best_scores (key, score) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE
			SET score = excluded.score, updated_at = CURRENT_TIMESTAMP
			WHERE excluded.score > best_scores.score`,
		key, score,
	)
	if err != nil {
		return false, fmt.Errorf("scores: cannot save %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("scores: cannot get affected rows: %w", err)
	}
	return n > 0, nil
}

// Keys returns every key with a stored score, sorted.
func (s *Store) Keys() ([]string, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys, nil
}

// Entries returns every stored score ordered by key.
func (s *Store) Entries() ([]Entry, error) {
	rows, err := s.db.Query("SELECT key, score, updated_at FROM best_scores ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("scores: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updatedAt any
		if err := rows.Scan(&e.Key, &e.Score, &updatedAt); err != nil {
			return nil, fmt.Errorf("scores: cannot scan row: %w", err)
		}
		switch v := updatedAt.(type) {
		case time.Time:
			e.UpdatedAt = v
		case string:
			if parsed, err := time.Parse(time.DateTime, v); err == nil {
				e.UpdatedAt = parsed
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scores: row iteration error: %w", err)
	}
	return entries, nil
}
