package main

import (
	"github.com/recruitly/screening-engine/internal/config"
	"github.com/recruitly/screening-engine/internal/store"
	"github.com/recruitly/screening-engine/pkg/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalw("reading configuration", "error", err)
		}

		cleanup := setupLogging(cfg)
		defer cleanup()

		zap.S().Info("Starting migration")
		defer zap.S().Info("Db migrated")

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		if err := migrateDB(db, cfg); err != nil {
			zap.S().Fatalw("running migrations", "error", err)
		}

		return store.NewStore(db).Close()
	},
}

// migrateDB applies the goose migrations when a folder is configured and
// falls back to the gorm auto migration otherwise.
func migrateDB(db *gorm.DB, cfg *config.Config) error {
	if cfg.Database.Type == "pgsql" && cfg.Service.MigrationFolder != "" {
		return migrations.MigrateStore(db, cfg)
	}
	return store.NewStore(db).InitialMigration()
}
