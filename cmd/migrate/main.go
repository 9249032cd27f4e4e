package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fatflowers/patron/migrations"
	"github.com/fatflowers/patron/pkg/config"
	"github.com/fatflowers/patron/pkg/logger"
)

func main() {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply the versioned Postgres schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(upCmd(), downCmd(), gotoCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// migrateURL rewrites a postgres DSN for the pgx v5 migrate driver.
func migrateURL(dsn string) (string, error) {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest, nil
		}
	}
	if strings.HasPrefix(dsn, "pgx5://") {
		return dsn, nil
	}
	return "", fmt.Errorf("database.dsn must be a postgres:// URL")
}

func open() (*migrate.Migrate, *zap.SugaredLogger, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	dbURL, err := migrateURL(cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	src, err := iofs.New(migrations.FS, migrations.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init migrate: %w", err)
	}
	return m, log, nil
}

func withMigrate(fn func(m *migrate.Migrate, log *zap.SugaredLogger) error) error {
	m, log, err := open()
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warnw("migrate_close_failed", "source_err", srcErr, "db_err", dbErr)
		}
		_ = log.Sync()
	}()
	return fn(m, log)
}

func report(log *zap.SugaredLogger, action string, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Infow("migrate_no_change", "action", action)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", action, err)
	}
	log.Infow("migrate_done", "action", action)
	return nil
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrate(func(m *migrate.Migrate, log *zap.SugaredLogger) error {
				return report(log, "up", m.Up())
			})
		},
	}
}

func downCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return withMigrate(func(m *migrate.Migrate, log *zap.SugaredLogger) error {
				return report(log, "down", m.Steps(-steps))
			})
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")
	return cmd
}

func gotoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goto [version]",
		Short: "Migrate up or down to a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return withMigrate(func(m *migrate.Migrate, log *zap.SugaredLogger) error {
				return report(log, "goto", m.Migrate(uint(version)))
			})
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrate(func(m *migrate.Migrate, log *zap.SugaredLogger) error {
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					cmd.Println("no migrations applied")
					return nil
				}
				if err != nil {
					return fmt.Errorf("version failed: %w", err)
				}
				cmd.Printf("version %d dirty=%t\n", version, dirty)
				return nil
			})
		},
	}
}
