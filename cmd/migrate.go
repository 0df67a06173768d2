package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andrensetiawan/form-service/config"
)

var migrateSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database if needed and apply all pending migrations",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSeed, "seed", true, "seed the default branch, admin and settings")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	if err := config.EnsureDatabase(cfg); err != nil {
		return fmt.Errorf("ensure database: %w", err)
	}
	db, err := config.Connect(cfg)
	if err != nil {
		return err
	}
	if err := config.Migrations(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if migrateSeed {
		if err := config.RunAllSeeding(db, cfg); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	logger.Info("migrate: ok", zap.Bool("seeded", migrateSeed))
	return nil
}
