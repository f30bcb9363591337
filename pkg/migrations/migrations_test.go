package migrations_test

import (
	"fmt"
	"os"
	"path"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/recruitly/screening-engine/internal/config"
	"github.com/recruitly/screening-engine/internal/store"
	"github.com/recruitly/screening-engine/pkg/migrations"
	"gorm.io/gorm"
)

var _ = Describe("migrations", Ordered, func() {
	Context("folder checks", func() {
		var gormdb *gorm.DB

		BeforeAll(func() {
			db, err := store.InitDB(config.NewDefault())
			Expect(err).To(BeNil())
			gormdb = db
		})

		It("fails to migrate the db -- migration folder does not exist", func() {
			cfg := config.NewDefault()
			cfg.Service.MigrationFolder = "some folder"
			Expect(migrations.MigrateStore(gormdb, cfg)).NotTo(Succeed())
		})

		It("fails to migrate the db -- migration folder is a file", func() {
			currentFolder, err := os.Getwd()
			Expect(err).To(BeNil())

			cfg := config.NewDefault()
			cfg.Service.MigrationFolder = path.Join(currentFolder, "migrations.go")
			Expect(migrations.MigrateStore(gormdb, cfg)).NotTo(Succeed())
		})

		It("refuses a sqlite database", func() {
			currentFolder, err := os.Getwd()
			Expect(err).To(BeNil())

			cfg := config.NewDefault()
			cfg.Service.MigrationFolder = path.Join(currentFolder, "sql")
			Expect(migrations.MigrateStore(gormdb, cfg)).NotTo(Succeed())
		})
	})

	Context("postgres migrations", Ordered, func() {
		var gormdb *gorm.DB

		BeforeAll(func() {
			if os.Getenv("DB_TYPE") != "pgsql" {
				Skip("postgres migrations need DB_TYPE=pgsql")
			}
			cfg, err := config.New()
			Expect(err).To(BeNil())
			db, err := store.InitDB(cfg)
			Expect(err).To(BeNil())
			gormdb = db
		})

		It("successfully migrates the db", func() {
			currentFolder, err := os.Getwd()
			Expect(err).To(BeNil())
			cfg, err := config.New()
			Expect(err).To(BeNil())
			cfg.Service.MigrationFolder = path.Join(currentFolder, "sql")

			Expect(migrations.MigrateStore(gormdb, cfg)).To(Succeed())

			tableExists := func(name string) bool {
				exists := false
				tx := gormdb.Raw(fmt.Sprintf("SELECT EXISTS (SELECT FROM pg_tables WHERE schemaname = 'public' and tablename = '%s');", name)).Scan(&exists)
				Expect(tx.Error).To(BeNil())

				return exists
			}

			for _, table := range []string{"job_openings", "resumes", "screen_runs", "screen_run_results", "stage_transitions"} {
				Expect(tableExists(table)).To(BeTrue())
			}
		})

		AfterAll(func() {
			if gormdb == nil {
				return
			}
			gormdb.Exec("DROP TABLE IF EXISTS stage_transitions;")
			gormdb.Exec("DROP TABLE IF EXISTS screen_run_results;")
			gormdb.Exec("DROP TABLE IF EXISTS screen_runs;")
			gormdb.Exec("DROP TABLE IF EXISTS resumes;")
			gormdb.Exec("DROP TABLE IF EXISTS job_openings;")
			gormdb.Exec("DROP TABLE IF EXISTS goose_db_version;")
		})
	})
})
