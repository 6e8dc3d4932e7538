package recorder

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const stateFileName = "replay-state.db"

// StateDB tracks which recording files have already been replayed into the
// database so re-running the CLI over a directory is idempotent.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database inside dir.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, stateFileName))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS imported_recordings (
		path        TEXT PRIMARY KEY,
		size        INTEGER NOT NULL,
		hash        TEXT NOT NULL,
		imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// IsImported reports whether a recording was already replayed with the same
// size and hash. A recording that grew or changed replays again.
func (s *StateDB) IsImported(relPath string, size int64, hash string) (bool, error) {
	var gotSize int64
	var gotHash string
	err := s.db.QueryRow(
		`SELECT size, hash FROM imported_recordings WHERE path = ?`,
		relPath,
	).Scan(&gotSize, &gotHash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying state for %s: %w", relPath, err)
	}
	return gotSize == size && gotHash == hash, nil
}

// MarkImported records that a recording was successfully replayed.
func (s *StateDB) MarkImported(relPath string, size int64, hash string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO imported_recordings (path, size, hash) VALUES (?, ?, ?)`,
		relPath, size, hash,
	)
	if err != nil {
		return fmt.Errorf("recording state for %s: %w", relPath, err)
	}
	return nil
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashFile computes the SHA-256 hash of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
