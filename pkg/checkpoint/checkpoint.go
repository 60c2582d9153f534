// Package checkpoint stores the per-document sync position. Bootstrap only
// validates and tears checkpoints down; the sync engine advances them.
//
// Three backends exist: a plain file (default), a SQLite table and a Redis
// key.
package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arthur-debert/pgmirror/pkg/errors"
	"github.com/arthur-debert/pgmirror/pkg/logging"
	"github.com/arthur-debert/pgmirror/pkg/settings"
)

// Backend names accepted in settings.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Checkpoint is the stored sync position for one document.
type Checkpoint interface {
	// Value returns the stored position and whether one exists.
	Value(ctx context.Context) (int64, bool, error)

	// SetValue stores a position.
	SetValue(ctx context.Context, value int64) error

	// Validate verifies the backend is usable before any sync work starts.
	Validate(ctx context.Context) error

	// Teardown removes the stored position. Removing an absent checkpoint
	// is not an error.
	Teardown(ctx context.Context) error

	// Close releases any backend handle.
	Close() error
}

// New builds the checkpoint for the given document name from settings.
func New(name string, s *settings.Settings) (Checkpoint, error) {
	switch s.Checkpoint.Backend {
	case "", BackendFile:
		return NewFile(name, s.Checkpoint.Path), nil
	case BackendSQLite:
		return NewSQLite(name, s.Checkpoint.SQLitePath)
	case BackendRedis:
		return NewRedis(name, s.Redis)
	default:
		return nil, errors.Newf(errors.ErrConfigParse,
			"unknown checkpoint backend %q", s.Checkpoint.Backend)
	}
}

// File stores the checkpoint as a dot-file in the checkpoint directory.
type File struct {
	dir  string
	path string
}

// NewFile returns a file checkpoint for the given document name.
func NewFile(name, dir string) *File {
	return &File{
		dir:  dir,
		path: filepath.Join(dir, "."+name),
	}
}

// Validate ensures the checkpoint directory exists and is read/writable.
func (f *File) Validate(context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil || !info.IsDir() {
		return errors.Newf(errors.ErrCheckpointAccess,
			"ensure the checkpoint directory %q exists and is readable", f.dir)
	}
	probe, err := os.CreateTemp(f.dir, ".pgmirror-probe-*")
	if err != nil {
		return errors.Newf(errors.ErrCheckpointAccess,
			"ensure the checkpoint directory %q is read/writable", f.dir)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}

// Value reads the stored position.
func (f *File) Value(context.Context) (int64, bool, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, errors.ErrCheckpointValue, "cannot read checkpoint %q", f.path)
	}
	value, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, errors.ErrCheckpointValue, "corrupt checkpoint %q", f.path)
	}
	return value, true, nil
}

// SetValue writes the position.
func (f *File) SetValue(_ context.Context, value int64) error {
	if err := os.WriteFile(f.path, []byte(fmt.Sprintf("%d", value)), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrCheckpointValue, "cannot write checkpoint %q", f.path)
	}
	return nil
}

// Teardown removes the checkpoint file.
func (f *File) Teardown(context.Context) error {
	if err := os.Remove(f.path); err != nil {
		if os.IsNotExist(err) {
			logger := logging.GetLogger("checkpoint")
			logger.Warn().
				Str("path", f.path).
				Msg("Checkpoint file not found")
			return nil
		}
		return errors.Wrapf(err, errors.ErrCheckpointTeardown, "cannot remove checkpoint %q", f.path)
	}
	return nil
}

// Close is a no-op: the file backend holds no open handle.
func (f *File) Close() error {
	return nil
}
