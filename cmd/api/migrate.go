package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arklim/guestbook-api/internal/infra/config"
	"github.com/arklim/guestbook-api/internal/infra/database"
	"github.com/arklim/guestbook-api/internal/infra/logger"
)

func newMigrateCommand() *cobra.Command {
	var databaseURL string

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run schema migrations for the guest record store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	migrateCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Database connection URL. Defaults to the configured postgres settings (DATABASE_URL).")

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up [steps]",
		Short: "Apply pending migrations, optionally limited to a step count",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _, err := parseMigrationStepsArg(args)
			if err != nil {
				return err
			}

			migrator, err := openMigrator(databaseURL)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, migrator)

			changed, err := migrator.Up(steps)
			if err != nil {
				return err
			}
			if !changed {
				cmd.Println("No schema changes to apply.")
				return nil
			}
			return printVersion(cmd, migrator)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down <steps>",
		Short: "Roll back migrations by step count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _, err := parseMigrationStepsArg(args)
			if err != nil {
				return err
			}

			migrator, err := openMigrator(databaseURL)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, migrator)

			changed, err := migrator.Down(steps)
			if err != nil {
				return err
			}
			if !changed {
				cmd.Println("No schema changes to rollback.")
				return nil
			}
			return printVersion(cmd, migrator)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Force-set migration version (-1 for nil version)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersionArg(args[0])
			if err != nil {
				return err
			}

			migrator, err := openMigrator(databaseURL)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, migrator)

			if err := migrator.Force(version); err != nil {
				return err
			}
			cmd.Printf("Forced migration version to %d.\n", version)
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, err := openMigrator(databaseURL)
			if err != nil {
				return err
			}
			defer closeMigrator(cmd, migrator)

			return printVersion(cmd, migrator)
		},
	})

	return migrateCmd
}

func openMigrator(databaseURL string) (*database.Migrator, error) {
	dsn := strings.TrimSpace(databaseURL)
	env := "development"
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		dsn = database.ConnString(cfg.Postgres)
		env = cfg.App.Env
	}

	log, err := logger.New(env)
	if err != nil {
		log = zap.NewNop()
	}

	return database.NewMigrator(dsn, log)
}

func closeMigrator(cmd *cobra.Command, migrator *database.Migrator) {
	if err := migrator.Close(); err != nil {
		cmd.PrintErrf("warning: failed to close migration runner cleanly: %v\n", err)
	}
}

func printVersion(cmd *cobra.Command, migrator *database.Migrator) error {
	version, dirty, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		cmd.Printf("Schema version %d (dirty)\n", version)
		return nil
	}
	cmd.Printf("Schema version %d\n", version)
	return nil
}

func parseMigrationStepsArg(args []string) (int, bool, error) {
	if len(args) == 0 {
		return 0, false, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || steps <= 0 {
		return 0, false, fmt.Errorf("invalid migration steps %q: expected a positive integer", args[0])
	}

	return steps, true, nil
}

func parseForceVersionArg(arg string) (int, error) {
	version, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || version < -1 {
		return 0, fmt.Errorf("invalid force version %q: expected an integer >= -1", arg)
	}
	return version, nil
}
