package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/adnan-tnd/flow-core/internal/database"
	"github.com/adnan-tnd/flow-core/pkg/config"
	"github.com/adnan-tnd/flow-core/pkg/util"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "flowctl",
	Short:         "Administrative tasks for flow-core",
	Long:          "flowctl migrates the schema, bootstraps the first CEO account and runs one-off maintenance jobs.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCEOCmd, genKeyCmd, sweepAbsentCmd)
}

// env is what every database-backed command needs.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
}

func connect() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger := util.NewLogger(cfg.Server.Env, "flowctl")

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}
