package db

import (
	"fmt"
	"log"

	"go_domainbot/internal/model"

	"gorm.io/gorm"
)

// Models lists every table owned by the application
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.RegisteredDomain{},
		&model.DNSRecord{},
		&model.WalletTransaction{},
		&model.Order{},
		&model.RegistrarContact{},
		&model.UserState{},
		&model.Translation{},
		&model.AdminNotification{},
		&model.SystemSetting{},
		&model.APIUsageLog{},
	}
}

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	log.Println("Starting database migration...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("✓ Database migration completed successfully (%d tables)", len(models))
	return nil
}
