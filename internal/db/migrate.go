package db

import (
	"fmt"                              // Error formatting
	"personal_finance/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes.
	// Order matters: referenced tables first.
	err := db.AutoMigrate(&domain.User{}, &domain.Category{}, &domain.Account{}, &domain.Transaction{})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
