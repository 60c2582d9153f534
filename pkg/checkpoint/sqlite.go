package checkpoint

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/arthur-debert/pgmirror/pkg/errors"
)

// SQLite stores checkpoints in a single-table local database. It is the
// durable local alternative to the file backend: many documents share one
// database file.
type SQLite struct {
	name string
	db   *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL
)`

// NewSQLite opens (creating if needed) the checkpoint database at path. The
// checkpoint table is created up front so that teardown succeeds on a store
// that was never written to.
func NewSQLite(name, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCheckpointAccess, "cannot open checkpoint db %q", path)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, errors.ErrCheckpointAccess, "cannot create checkpoint table in %q", path)
	}
	return &SQLite{name: name, db: db}, nil
}

// Validate pings the database.
func (s *SQLite) Validate(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCheckpointAccess, "checkpoint db unreachable")
	}
	return nil
}

// Value reads the stored position.
func (s *SQLite) Value(ctx context.Context) (int64, bool, error) {
	var value int64
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM checkpoints WHERE name = ?", s.name).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, errors.ErrCheckpointValue, "cannot read checkpoint %q", s.name)
	}
	return value, true, nil
}

// SetValue stores the position.
func (s *SQLite) SetValue(ctx context.Context, value int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO checkpoints (name, value) VALUES (?, ?) ON CONFLICT (name) DO UPDATE SET value = excluded.value",
		s.name, value)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCheckpointValue, "cannot write checkpoint %q", s.name)
	}
	return nil
}

// Teardown deletes the checkpoint row.
func (s *SQLite) Teardown(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM checkpoints WHERE name = ?", s.name); err != nil {
		return errors.Wrapf(err, errors.ErrCheckpointTeardown, "cannot delete checkpoint %q", s.name)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
