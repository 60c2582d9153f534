package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/pgmirror/internal/version"
	"github.com/arthur-debert/pgmirror/pkg/bootstrap"
	"github.com/arthur-debert/pgmirror/pkg/logging"
	"github.com/arthur-debert/pgmirror/pkg/settings"
)

// RunFunc executes a resolved invocation. Swapped out in tests.
type RunFunc func(ctx context.Context, opts bootstrap.Options) error

// run is the production runner: load settings and hand off to the
// orchestrator.
func run(ctx context.Context, opts bootstrap.Options) error {
	st, err := settings.Load()
	if err != nil {
		return err
	}
	return bootstrap.New(st).Run(ctx, opts)
}

// NewRootCmd creates the root command. pgmirror is a single command: no
// subcommands.
func NewRootCmd(runner RunFunc) *cobra.Command {
	var (
		configPath string
		host       string
		port       int
		user       string
		password   bool
		teardown   bool
		verbose    bool
		force      bool
	)

	rootCmd := &cobra.Command{
		Use:     "pgmirror",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.Date),
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbosity := 0
			if verbose {
				verbosity = 2
			}
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := bootstrap.Options{
				Config:   configPath,
				Password: password,
				Teardown: teardown,
				Verbose:  verbose,
				Force:    force,
			}
			// Only explicitly supplied overrides may shadow configured
			// defaults; an unset flag's zero value must not.
			if cmd.Flags().Changed("host") {
				opts.Host = &host
			}
			if cmd.Flags().Changed("port") {
				opts.Port = &port
			}
			if cmd.Flags().Changed("user") {
				opts.User = &user
			}
			return runner(cmd.Context(), opts)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", MsgFlagConfig)
	rootCmd.Flags().StringVarP(&host, "host", "h", "", MsgFlagHost)
	rootCmd.Flags().BoolVar(&password, "password", false, MsgFlagPassword)
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, MsgFlagPort)
	rootCmd.Flags().BoolVarP(&teardown, "teardown", "t", false, MsgFlagTeardown)
	rootCmd.Flags().StringVarP(&user, "user", "u", "", MsgFlagUser)
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, MsgFlagVerbose)
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, MsgFlagForce)

	// -h belongs to --host (matching psql); help keeps the long form only
	rootCmd.Flags().Bool("help", false, MsgFlagHelp)

	return rootCmd
}
