package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/saad-deshmukh/typing-test-website/internal/config"
	"github.com/saad-deshmukh/typing-test-website/internal/models"
)

func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	log.Println("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.Player{},
		&models.GameStats{},
	)
	if err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Orphans from a previous process: in-memory room state is gone, so
	// unfinished games are unrecoverable.
	db.Where("status <> ?", models.GameStatusFinished).Delete(&models.Game{})
	db.Exec("DELETE FROM players WHERE game_id NOT IN (SELECT id FROM games)")

	log.Println("database migrated")
}
