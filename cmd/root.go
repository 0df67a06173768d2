package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/andrensetiawan/form-service/config"
)

var rootCmd = &cobra.Command{
	Use:           "form-service",
	Short:         "Service-center repair ticket API",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(fixRolesCmd)
	rootCmd.AddCommand(versionCmd)
}

// bootstrap loads configuration, installs the global logger and opens the
// database. Callers must Sync the returned logger.
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("logger: %w", err)
	}
	db, err := config.Connect(cfg)
	if err != nil {
		logger.Sync()
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}
