package cache

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all cache database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "001_cached_summaries",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&cachedSummary{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("cached_summaries")
			},
		},
	})
	return m.Migrate()
}
