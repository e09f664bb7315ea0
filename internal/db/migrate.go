package db

import (
	"encrypted-notes/internal/oplog"

	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&oplog.LogRecord{})
}
