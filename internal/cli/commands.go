package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"backend-antrian-klinik/internal/config"
	"backend-antrian-klinik/internal/models"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Create or upgrade the database schema",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// InitDB already migrates; run it again to report the dialect explicitly.
			return withEnv(cmd.Context(), rootOpts, func(ctx context.Context, e *env) error {
				if err := e.db.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", e.db.Dialect())
				return nil
			})
		},
	}
}

// NewForceCompleteCommand creates the force-complete command.
func NewForceCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "force-complete <token-id>",
		Short:        "Mark a token COMPLETED regardless of its state",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), rootOpts, func(ctx context.Context, e *env) error {
				tok, err := e.svc.ForceComplete(ctx, e.now(), id, admin)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "token %d (no. %d) -> %s\n", tok.ID, tok.TokenNumber, tok.Status)
				return nil
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "delete <token-id>",
		Short:        "Delete a token and its swap requests",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), rootOpts, func(ctx context.Context, e *env) error {
				tok, err := e.svc.Delete(ctx, id, admin)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "token %d (provider %d, no. %d) deleted\n", tok.ID, tok.ProviderID, tok.TokenNumber)
				return nil
			})
		},
	}
}

// NewSweepCommand creates the sweep-swaps command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "sweep-swaps",
		Short:        "Expire every overdue PENDING swap request now",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), rootOpts, func(ctx context.Context, e *env) error {
				n, err := e.svc.ExpireDue(ctx, e.now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d swap request(s) expired\n", n)
				return nil
			})
		},
	}
}

type issueOptions struct {
	userID     int64
	nama       string
	role       string
	providerID int64
	ttl        time.Duration
}

// NewIssueTokenCommand creates the issue-token command. Handy for kiosks and tests
// when no login service is deployed.
func NewIssueTokenCommand(rootOpts *RootOptions) *cobra.Command {
	o := &issueOptions{}

	cmd := &cobra.Command{
		Use:          "issue-token",
		Short:        "Sign a JWT for a patient, operator or admin",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			p, err := o.principal()
			if err != nil {
				return err
			}
			tok, err := config.GenerateToken(cfg.JWTSecret, p, o.ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().Int64Var(&o.userID, "user", 0, "user id (required)")
	cmd.Flags().StringVar(&o.nama, "nama", "", "display name")
	cmd.Flags().StringVar(&o.role, "role", models.RolePatient, "patient|operator|admin")
	cmd.Flags().Int64Var(&o.providerID, "provider", 0, "provider id, required for operator")
	cmd.Flags().DurationVar(&o.ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func (o *issueOptions) principal() (models.Principal, error) {
	if o.userID <= 0 {
		return models.Principal{}, fmt.Errorf("--user harus positif")
	}
	p := models.Principal{UserID: o.userID, Nama: o.nama, Role: o.role}

	switch o.role {
	case models.RolePatient, models.RoleAdmin:
	case models.RoleOperator:
		if o.providerID <= 0 {
			return models.Principal{}, fmt.Errorf("operator butuh --provider")
		}
		id := o.providerID
		p.ProviderID = &id
	default:
		return models.Principal{}, fmt.Errorf("role tidak dikenal: %q", o.role)
	}
	return p, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id tidak valid: %q", s)
	}
	return id, nil
}
