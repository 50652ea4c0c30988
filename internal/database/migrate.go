package database

import (
	"log"

	"gorm.io/gorm"

	"github.com/snapdish/snapdish-backend/internal/models"
)

// RunMigrations brings the schema up to date. Postgres additionally
// needs the pgvector extension for recipe embeddings; SQLite (tests)
// skips it.
func RunMigrations(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return err
		}
	} else {
		log.Printf("Using GORM auto-migration without pgvector on %s", db.Dialector.Name())
	}

	return db.AutoMigrate(
		&models.User{},
		&models.SavedRecipe{},
		&models.MealPlanEntry{},
	)
}
