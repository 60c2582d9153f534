// Package sync manages the database-side resources of one sync document:
// the notify trigger function, per-table triggers and the logical
// replication slot, plus the document's checkpoint.
//
// One Sync is created per document and driven through exactly one
// lifecycle call (Setup or Teardown) by the bootstrap orchestrator.
package sync

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/pgmirror/pkg/checkpoint"
	"github.com/arthur-debert/pgmirror/pkg/errors"
	"github.com/arthur-debert/pgmirror/pkg/logging"
	"github.com/arthur-debert/pgmirror/pkg/schema"
	"github.com/arthur-debert/pgmirror/pkg/settings"
)

// DB is the subset of pgxpool.Pool the resource needs. Tests substitute a
// fake.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Sync is the synchronization resource handle for one document.
type Sync struct {
	doc        schema.Document
	name       string
	db         DB
	pool       *pgxpool.Pool
	checkpoint checkpoint.Checkpoint
	modes      Modes
	logger     zerolog.Logger
}

// New constructs the resource for a document: it connects to the target
// database with the merged connection parameters, builds the document's
// checkpoint and, when modes.Validate is set, validates both the document
// and the database before returning.
func New(ctx context.Context, doc schema.Document, st *settings.Settings, overrides Overrides, modes Modes) (*Sync, error) {
	conn := overrides.Merge(st.Postgres)

	pool, err := pgxpool.New(ctx, connString(conn, doc.DatabaseName()))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDBConnect, "cannot connect to database %q", doc.DatabaseName())
	}

	cp, err := checkpoint.New(doc.Name(), st)
	if err != nil {
		pool.Close()
		return nil, err
	}

	s := &Sync{
		doc:        doc,
		name:       doc.Name(),
		db:         pool,
		pool:       pool,
		checkpoint: cp,
		modes:      modes,
		logger:     logging.GetLogger("sync").With().Str("document", doc.Name()).Logger(),
	}

	if modes.Validate {
		if err := s.Validate(ctx, modes.ReplSlots); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// connString builds a pgx connection URL from the effective parameters.
func connString(p settings.Postgres, database string) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   p.Host + ":" + strconv.Itoa(p.Port),
		Path:   "/" + database,
	}
	if p.User != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.User, p.Password)
		} else {
			u.User = url.User(p.User)
		}
	}
	q := url.Values{}
	if p.SSLMode != "" {
		q.Set("sslmode", p.SSLMode)
	}
	if p.SSLRootCert != "" {
		q.Set("sslrootcert", p.SSLRootCert)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Name returns the replication slot name derived from the document.
func (s *Sync) Name() string {
	return s.name
}

// Validate checks the document and the database prerequisites for logical
// replication. With replSlots set it additionally requires the slot to
// already exist.
func (s *Sync) Validate(ctx context.Context, replSlots bool) error {
	if err := s.doc.Validate(); err != nil {
		return err
	}

	maxSlots, err := s.pgSetting(ctx, "max_replication_slots", false)
	if err != nil {
		return err
	}
	if n, err := strconv.Atoi(maxSlots); err != nil || n < 1 {
		return errors.New(errors.ErrDBSettings,
			"ensure there is at least one replication slot defined by setting max_replication_slots = 1")
	}

	walLevel, err := s.pgSetting(ctx, "wal_level", false)
	if err != nil {
		return err
	}
	if walLevel != "logical" {
		return errors.New(errors.ErrDBSettings,
			"enable logical decoding by setting wal_level = logical")
	}

	rds, err := s.pgSetting(ctx, "rds.logical_replication", true)
	if err != nil {
		return err
	}
	if rds == "off" {
		return errors.New(errors.ErrDBSettings, "rds.logical_replication is not enabled")
	}

	if replSlots {
		exists, err := s.slotExists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return errors.Newf(errors.ErrReplSlotMissing,
				"replication slot %q does not exist; run pgmirror without --teardown first", s.name)
		}
	}

	if err := s.checkpoint.Validate(ctx); err != nil {
		return err
	}

	s.logger.Debug().Bool("replSlots", replSlots).Msg("Document validated")
	return nil
}

// Setup provisions triggers, the notify function and the replication slot
// for the document. Existing triggers are replaced; force additionally
// recreates the replication slot.
func (s *Sync) Setup(ctx context.Context, force bool) error {
	done := logging.LogOperationStart(s.logger, "setup")
	defer done()

	for _, schemaName := range s.doc.Schemas() {
		tables := s.doc.Tables(schemaName)
		if len(tables) == 0 {
			continue
		}

		if err := s.dropTriggers(ctx, schemaName, tables, errors.ErrTriggerSetup); err != nil {
			return err
		}

		if _, err := s.db.Exec(ctx, createFunctionSQL(schemaName, s.name)); err != nil {
			return errors.Wrapf(err, errors.ErrTriggerSetup,
				"cannot create notify function in schema %q", schemaName)
		}

		for _, table := range tables {
			if _, err := s.db.Exec(ctx, createRowTriggerSQL(schemaName, table)); err != nil {
				return errors.Wrapf(err, errors.ErrTriggerSetup,
					"cannot create trigger on %s.%s", schemaName, table)
			}
			if _, err := s.db.Exec(ctx, createTruncateTriggerSQL(schemaName, table)); err != nil {
				return errors.Wrapf(err, errors.ErrTriggerSetup,
					"cannot create truncate trigger on %s.%s", schemaName, table)
			}
		}

		s.logger.Info().
			Str("schema", schemaName).
			Int("tables", len(tables)).
			Msg("Triggers created")
	}

	exists, err := s.slotExists(ctx)
	if err != nil {
		return err
	}
	if exists && force {
		if _, err := s.db.Exec(ctx, slotDropSQL, s.name); err != nil {
			return errors.Wrapf(err, errors.ErrReplSlotDrop, "cannot drop replication slot %q", s.name)
		}
		exists = false
		s.logger.Info().Msg("Replication slot dropped for re-creation")
	}
	if !exists {
		if _, err := s.db.Exec(ctx, slotCreateSQL, s.name, slotPlugin); err != nil {
			return errors.Wrapf(err, errors.ErrReplSlotCreate, "cannot create replication slot %q", s.name)
		}
		s.logger.Info().Msg("Replication slot created")
	}

	return nil
}

// Teardown removes the document's checkpoint, triggers, notify functions
// and replication slot. It never validates the document: a partially
// removed schema must still tear down.
func (s *Sync) Teardown(ctx context.Context) error {
	done := logging.LogOperationStart(s.logger, "teardown")
	defer done()

	if err := s.checkpoint.Teardown(ctx); err != nil {
		return err
	}

	for _, schemaName := range s.doc.Schemas() {
		tables := s.doc.Tables(schemaName)

		if err := s.dropTriggers(ctx, schemaName, tables, errors.ErrTriggerTeardown); err != nil {
			return err
		}
		if _, err := s.db.Exec(ctx, dropFunctionSQL(schemaName)); err != nil {
			return errors.Wrapf(err, errors.ErrTriggerTeardown,
				"cannot drop notify function in schema %q", schemaName)
		}

		s.logger.Info().
			Str("schema", schemaName).
			Int("tables", len(tables)).
			Msg("Triggers dropped")
	}

	exists, err := s.slotExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if _, err := s.db.Exec(ctx, slotDropSQL, s.name); err != nil {
			return errors.Wrapf(err, errors.ErrReplSlotDrop, "cannot drop replication slot %q", s.name)
		}
		s.logger.Info().Msg("Replication slot dropped")
	}

	return nil
}

// Close releases the connection pool and the checkpoint backend handle.
func (s *Sync) Close() {
	if s.checkpoint != nil {
		if err := s.checkpoint.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close checkpoint")
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Sync) dropTriggers(ctx context.Context, schemaName string, tables []string, code errors.ErrorCode) error {
	for _, table := range tables {
		for _, trigger := range []string{table + triggerSuffix, table + truncateSuffix} {
			if _, err := s.db.Exec(ctx, dropTriggerSQL(schemaName, table, trigger)); err != nil {
				return errors.Wrapf(err, code, "cannot drop trigger %s on %s.%s", trigger, schemaName, table)
			}
		}
	}
	return nil
}

func (s *Sync) slotExists(ctx context.Context) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, slotExistsSQL, s.name).Scan(&exists); err != nil {
		return false, errors.Wrapf(err, errors.ErrDBConnect, "cannot query replication slots")
	}
	return exists, nil
}

// pgSetting reads a server setting. With missingOk the setting may be
// absent (non-RDS servers do not define rds.logical_replication).
func (s *Sync) pgSetting(ctx context.Context, name string, missingOk bool) (string, error) {
	query := currentSettingSQL
	if missingOk {
		query = currentSettingMissingOkSQL
	}
	var value *string
	if err := s.db.QueryRow(ctx, query, name).Scan(&value); err != nil {
		return "", errors.Wrapf(err, errors.ErrDBSettings, "cannot read server setting %q", name)
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}
