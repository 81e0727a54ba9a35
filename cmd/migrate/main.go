package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/artem13815/todo/pkg/config"
	"github.com/artem13815/todo/pkg/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Errorw("migrate failed", "error", err)
		os.Exit(1)
	}
}

// newRootCmd builds the top-level `migrate` command.
func newRootCmd() *cobra.Command {
	var dsn string
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the todo-service database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dsn, "database-url", "", "Postgres DSN (defaults to DATABASE_URL)")

	withProvider := func(run func(cmd *cobra.Command, p *goose.Provider) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(dsn)
			if err != nil {
				return err
			}
			defer db.Close()
			p, err := postgres.NewMigrator(db)
			if err != nil {
				return err
			}
			return run(cmd, p)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
				results, err := p.Up(cmd.Context())
				for _, r := range results {
					cmd.Println(r)
				}
				if err != nil {
					return err
				}
				if len(results) == 0 {
					cmd.Println("schema is up to date")
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
				r, err := p.Down(cmd.Context())
				if r != nil {
					cmd.Println(r)
				}
				return err
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show which migrations are applied",
			Args:  cobra.NoArgs,
			RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
				statuses, err := p.Status(cmd.Context())
				if err != nil {
					return err
				}
				for _, s := range statuses {
					applied := "pending"
					if s.State == goose.StateApplied {
						applied = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
					cmd.Printf("%5d  %-20s  %s\n", s.Source.Version, applied, s.Source.Path)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withProvider(func(cmd *cobra.Command, p *goose.Provider) error {
				v, err := p.GetDBVersion(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Println(v)
				return nil
			}),
		},
	)
	return root
}

func openDB(dsn string) (*sql.DB, error) {
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		dsn = cfg.DatabaseURL
	}
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	return stdlib.OpenDB(*connConfig), nil
}
