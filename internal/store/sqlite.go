// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Persists the whole conversation collection as one serialized record

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// collectionRecord is the name of the single record holding the serialized
// conversation collection.
const collectionRecord = "conversations"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			name TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the persisted collection. An absent or unreadable record is
// treated as an empty collection, never as an error.
func (s *SQLiteStore) Load(ctx context.Context) (Collection, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM records WHERE name = ?", collectionRecord).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading collection: %w", err)
	}

	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		s.logger.Warn("persisted collection is malformed, starting empty", "error", err)
		return Collection{}, nil
	}
	return c, nil
}

// Save replaces the persisted collection. An empty collection deletes the
// record so no stale data is left behind.
func (s *SQLiteStore) Save(ctx context.Context, c Collection) error {
	if len(c) == 0 {
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM records WHERE name = ?", collectionRecord); err != nil {
			return fmt.Errorf("deleting collection record: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("serializing collection: %w", err)
	}
	return s.writeRecord(ctx, s.db, data)
}

// Upsert replaces-or-inserts one conversation inside a transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, conv Conversation) error {
	return s.withCollection(ctx, func(c Collection) (Collection, error) {
		return c.Upsert(conv), nil
	})
}

// Remove deletes matching conversations and returns the resulting collection.
func (s *SQLiteStore) Remove(ctx context.Context, ids []string) (Collection, error) {
	var result Collection
	err := s.withCollection(ctx, func(c Collection) (Collection, error) {
		result = c.Remove(ids)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// execer covers both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) writeRecord(ctx context.Context, db execer, data []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO records (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		collectionRecord, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing collection record: %w", err)
	}
	return nil
}

// withCollection runs a read-modify-write of the collection record in a
// single transaction.
func (s *SQLiteStore) withCollection(ctx context.Context, fn func(Collection) (Collection, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var data []byte
	err = tx.QueryRowContext(ctx,
		"SELECT data FROM records WHERE name = ?", collectionRecord).Scan(&data)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("loading collection: %w", err)
	}

	c := Collection{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &c); err != nil {
			s.logger.Warn("persisted collection is malformed, starting empty", "error", err)
			c = Collection{}
		}
	}

	c, err = fn(c)
	if err != nil {
		return err
	}

	if len(c) == 0 {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM records WHERE name = ?", collectionRecord); err != nil {
			return fmt.Errorf("deleting collection record: %w", err)
		}
	} else {
		out, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("serializing collection: %w", err)
		}
		if err := s.writeRecord(ctx, tx, out); err != nil {
			return err
		}
	}

	return tx.Commit()
}
