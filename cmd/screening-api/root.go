package main

import (
	"github.com/recruitly/screening-engine/internal/config"
	"github.com/recruitly/screening-engine/pkg/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var rootCmd = &cobra.Command{
	Use:   "screening-api",
	Short: "Resume screening service",
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scoreCmd)
}

// setupLogging installs the global zap logger at the configured level.
// The returned func restores the previous logger and flushes.
func setupLogging(cfg *config.Config) func() {
	logLvl, err := zap.ParseAtomicLevel(cfg.Service.LogLevel)
	if err != nil {
		logLvl = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger := log.InitLog(logLvl)
	undo := zap.ReplaceGlobals(logger)
	return func() {
		_ = logger.Sync()
		undo()
	}
}
