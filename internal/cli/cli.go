package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/elifred2022/bokadillo/internal/app"
	"github.com/elifred2022/bokadillo/internal/migration"
	"github.com/elifred2022/bokadillo/internal/seeder"
	clientservice "github.com/elifred2022/bokadillo/internal/service/client"
)

const defaultStopTimeout = 10 * time.Second

// NewRootCommand builds the bokadillo command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "bokadillo",
		Short:         "Bokadillo store service and admin tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Duration("stop-timeout", defaultStopTimeout, "Grace period for shutting components down")

	root.AddCommand(
		serveCmd("start", "Run the HTTP and gRPC services", app.Module, "run"),
		newMigrateCmd(),
		newSeedCmd(),
		newClientCmd(),
		newWorkerCmd(),
	)
	return root
}

// Execute runs the CLI, cancelling on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

// serveCmd starts a long-running application and stops it when the
// command context ends.
func serveCmd(use, short string, opts fx.Option, aliases ...string) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		Short:   short,
		Aliases: aliases,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application := fx.New(opts)
			if err := application.Start(cmd.Context()); err != nil {
				return err
			}
			<-cmd.Context().Done()

			ctx, cancel := context.WithTimeout(context.Background(), stopTimeout(cmd))
			defer cancel()
			return application.Stop(ctx)
		},
	}
}

// oneShot runs fn inside a short-lived application built from opts.
func oneShot(cmd *cobra.Command, opts fx.Option, fn func(context.Context, io.Writer) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(cmd.Context()); err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout(cmd))
		defer cancel()
		_ = application.Stop(ctx)
	}()
	return fn(cmd.Context(), cmd.OutOrStdout())
}

func stopTimeout(cmd *cobra.Command) time.Duration {
	f := cmd.Flag("stop-timeout")
	if f == nil {
		return defaultStopTimeout
	}
	d, err := time.ParseDuration(f.Value.String())
	if err != nil || d <= 0 {
		return defaultStopTimeout
	}
	return d
}

func newMigrateCmd() *cobra.Command {
	withMigrator := func(fn func(context.Context, io.Writer, *migration.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			var mig *migration.Migrator
			return oneShot(cmd, fx.Options(app.Core, migration.Module, fx.Populate(&mig)), func(ctx context.Context, out io.Writer) error {
				return fn(ctx, out, mig)
			})
		}
	}

	cmd := &cobra.Command{Use: "migrate", Short: "Manage the sql backend schema"}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: withMigrator(func(ctx context.Context, out io.Writer, mig *migration.Migrator) error {
			if err := mig.Up(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "migrations applied")
			return nil
		}),
	}

	down := &cobra.Command{Use: "down", Short: "Roll back migrations"}
	steps := down.Flags().Int("steps", 1, "Number of migrations to roll back")
	all := down.Flags().Bool("all", false, "Roll back every applied migration")
	down.RunE = withMigrator(func(ctx context.Context, out io.Writer, mig *migration.Migrator) error {
		if err := mig.Down(ctx, *steps, *all); err != nil {
			return err
		}
		fmt.Fprintln(out, "migrations rolled back")
		return nil
	})

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: withMigrator(func(ctx context.Context, out io.Writer, mig *migration.Migrator) error {
			v, err := mig.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "schema version %d\n", v)
			return nil
		}),
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill empty collections with sample articles and suppliers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var seed *seeder.Seeder
			return oneShot(cmd, fx.Options(app.Core, seeder.Module, fx.Populate(&seed)), func(ctx context.Context, out io.Writer) error {
				articles, err := seed.Articles(ctx)
				if err != nil {
					return err
				}
				suppliers, err := seed.Suppliers(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "seeded %d articles, %d suppliers\n", articles, suppliers)
				return nil
			})
		},
	}
}

func newClientCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "client", Short: "Manage client accounts"}

	setPassword := &cobra.Command{
		Use:   "set-password [id]",
		Short: "Set the login password of a client",
		Args:  cobra.ExactArgs(1),
	}
	password := setPassword.Flags().String("password", "", "New password (at least 6 characters)")
	setPassword.RunE = func(cmd *cobra.Command, args []string) error {
		if *password == "" {
			return errors.New("--password is required")
		}
		var clients *clientservice.Service
		return oneShot(cmd, fx.Options(app.Core, fx.Populate(&clients)), func(ctx context.Context, out io.Writer) error {
			c, err := clients.SetPassword(ctx, args[0], *password)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "password set for client %s (%s)\n", c.ID, c.Email)
			return nil
		})
	}

	cmd.AddCommand(setPassword)
	return cmd
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "worker", Short: "Manage background workers"}
	cmd.AddCommand(serveCmd("run", "Consume bus events until interrupted", app.Worker))
	return cmd
}
