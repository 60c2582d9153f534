// Package bootstrap orchestrates provisioning and decommissioning of sync
// resources. For every document in the configuration source it builds one
// resource and drives it through exactly one lifecycle call, in document
// order, failing fast on the first error.
package bootstrap

import (
	"context"
	"io"
	"os"

	"github.com/arthur-debert/pgmirror/pkg/credentials"
	"github.com/arthur-debert/pgmirror/pkg/display"
	"github.com/arthur-debert/pgmirror/pkg/errors"
	"github.com/arthur-debert/pgmirror/pkg/logging"
	"github.com/arthur-debert/pgmirror/pkg/schema"
	"github.com/arthur-debert/pgmirror/pkg/settings"
	"github.com/arthur-debert/pgmirror/pkg/sync"
)

// Options is the parsed invocation intent. Pointer fields distinguish
// "not supplied" from an explicit zero value.
type Options struct {
	// Config is the configuration source path; empty means default
	// resolution.
	Config string

	// Connection overrides. Nil means not supplied.
	Host *string
	Port *int
	User *string

	// Password requests an interactive masked prompt for the database
	// password.
	Password bool

	// Teardown decommissions instead of provisioning and disables
	// document validation.
	Teardown bool

	Verbose bool

	// Force recreates the replication slot during setup.
	Force bool
}

// Resource is the lifecycle contract of one sync resource handle.
type Resource interface {
	Setup(ctx context.Context, force bool) error
	Teardown(ctx context.Context) error
	Close()
}

// ResourceFactory builds the resource for one document. The default
// factory connects to the real database via pkg/sync.
type ResourceFactory func(ctx context.Context, doc schema.Document, st *settings.Settings, overrides sync.Overrides, modes sync.Modes) (Resource, error)

// Orchestrator wires the collaborators of a bootstrap run. Collaborators
// are explicit so tests can substitute them; there are no package-level
// singletons.
type Orchestrator struct {
	Settings *settings.Settings
	Secrets  credentials.SecretReader
	Factory  ResourceFactory
	Out      io.Writer
}

// New returns an Orchestrator with the production collaborators: terminal
// secret prompt, real sync resources, stdout display.
func New(st *settings.Settings) *Orchestrator {
	return &Orchestrator{
		Settings: st,
		Secrets:  credentials.NewTerminal(),
		Factory: func(ctx context.Context, doc schema.Document, st *settings.Settings, overrides sync.Overrides, modes sync.Modes) (Resource, error) {
			return sync.New(ctx, doc, st, overrides, modes)
		},
		Out: os.Stdout,
	}
}

// Run executes one bootstrap invocation: resolve overrides, render
// settings, then dispatch every document. It returns the first error
// encountered; documents after a failure are not processed.
func (o *Orchestrator) Run(ctx context.Context, opts Options) error {
	logger := logging.GetLogger("bootstrap")

	overrides, err := o.resolveOverrides(opts)
	if err != nil {
		return err
	}

	path, err := schema.Resolve(opts.Config)
	if err != nil {
		return err
	}
	logger.Debug().Str("config", path).Bool("teardown", opts.Teardown).Msg("Resolved config")

	display.Settings(o.Out, display.SettingsInfo{
		ConfigPath:        path,
		Postgres:          overrides.Merge(o.Settings.Postgres),
		CheckpointBackend: o.Settings.Checkpoint.Backend,
		Overridden:        overrides.Fields(),
		Teardown:          opts.Teardown,
	})

	reader, err := schema.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	modes := sync.Modes{
		Verbose: opts.Verbose,
		// Teardown must not validate: the schema may already be
		// partially or fully torn down.
		Validate:  !opts.Teardown,
		ReplSlots: false,
	}

	dispatched := 0
	for {
		doc, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if err := o.dispatch(ctx, doc, overrides, modes, opts); err != nil {
			return err
		}
		dispatched++
	}

	logger.Info().
		Int("documents", dispatched).
		Bool("teardown", opts.Teardown).
		Msg("Bootstrap finished")
	return nil
}

// dispatch drives one document through its single lifecycle call. The
// resource is discarded afterwards; no state crosses documents.
func (o *Orchestrator) dispatch(ctx context.Context, doc schema.Document, overrides sync.Overrides, modes sync.Modes, opts Options) error {
	logger := logging.GetLogger("bootstrap")

	res, err := o.Factory(ctx, doc, o.Settings, overrides, modes)
	if err != nil {
		return err
	}
	defer res.Close()

	if opts.Teardown {
		logger.Info().Str("document", doc.Name()).Msg("Tearing down")
		return res.Teardown(ctx)
	}

	logger.Info().Str("document", doc.Name()).Bool("force", opts.Force).Msg("Setting up")
	return res.Setup(ctx, opts.Force)
}

// resolveOverrides collects explicitly supplied connection parameters,
// prompting for the password once when requested. Prompt failure aborts
// the run before any document is touched.
func (o *Orchestrator) resolveOverrides(opts Options) (sync.Overrides, error) {
	overrides := sync.Overrides{
		Host: opts.Host,
		Port: opts.Port,
		User: opts.User,
	}

	if opts.Password {
		secret, err := o.Secrets.ReadSecret("Password")
		if err != nil {
			return sync.Overrides{}, errors.Wrap(err, errors.ErrCredentialRead, "password prompt failed")
		}
		overrides.Password = &secret
	}

	return overrides, nil
}
