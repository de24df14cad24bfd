// Package cli implements queuectl, the operator command line for the clinic queue.
package cli

import (
	"context"
	"time"

	"backend-antrian-klinik/internal/clock"
	"backend-antrian-klinik/internal/config"
	"backend-antrian-klinik/internal/lock"
	"backend-antrian-klinik/internal/logger"
	"backend-antrian-klinik/internal/models"
	"backend-antrian-klinik/internal/queue"
	"backend-antrian-klinik/internal/repositories"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Timeout time.Duration
}

// admin is the identity every maintenance command acts as.
var admin = models.Principal{UserID: 0, Nama: "queuectl", Role: models.RoleAdmin}

// NewRootCommand creates the root command for queuectl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "queuectl",
		Short: "queuectl - maintenance for the clinic token queue",
		Long: `Maintenance commands for the clinic token queue.

Reads the same environment (.env, DB_DRIVER, DB_DSN, SQLITE_PATH, APP_TIMEZONE,
JWT_SECRET, ...) as the server and acts with administrator rights.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Verbose {
				logger.Init("debug")
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "timeout per command")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewForceCompleteCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewIssueTokenCommand(opts))

	return cmd
}

// env is what a command needs once configuration and database are up.
type env struct {
	cfg   config.Config
	loc   *time.Location
	db    *repositories.DB
	svc   *queue.Service
	clock clock.Clock
}

func (e *env) now() clock.Snapshot {
	return clock.Snap(e.clock, e.loc)
}

// withEnv loads configuration, opens (and migrates) the database and runs fn.
// Locks are process local: queuectl is a single short lived process and the
// partition transactions still serialise through the database.
func withEnv(ctx context.Context, opts *RootOptions, fn func(ctx context.Context, e *env) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	return fn(ctx, &env{
		cfg: cfg,
		loc: loc,
		db:  db,
		svc: queue.NewService(db, lock.NewLocal(), queue.Options{
			Location:         loc,
			SwapTTL:          cfg.SwapTTL,
			MaxOutgoingSwaps: cfg.SwapMaxOutgoing,
			CancelServing:    cfg.CancelAllowServing,
			JoinMaxRetries:   cfg.JoinMaxRetries,
		}),
		clock: clock.System{},
	})
}
