// Command terractl administers the inspection certificate service: schema
// migrations, checklist publishing, offline rendering and API tokens.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terra-energy/inspecciones/internal/buildinfo"
	"github.com/terra-energy/inspecciones/internal/config"
	"github.com/terra-energy/inspecciones/internal/database"
	"github.com/terra-energy/inspecciones/internal/logging"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "terractl",
	Short:         "Administer the Terra inspection certificate service",
	Version:       buildinfo.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		logger, err = logging.New(cfg.LogLevel, cfg.IsProduction())
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, checklistCmd, renderCmd, tokenCmd)
}

// openDB connects and migrates, so every command sees the current schema.
func openDB() (*database.DB, error) {
	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
