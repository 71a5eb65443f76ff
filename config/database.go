package config

import (
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	dsn := os.Getenv("DB_URL")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// Unique-index violations come back as gorm.ErrDuplicatedKey, which
		// the engine relies on for idempotency and cash-day exclusivity.
		TranslateError: true,
	})
	if err != nil {
		panic("Failed to connect database")
	}

	DB = db
}
