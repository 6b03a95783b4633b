package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrate_SQLite(t *testing.T) {
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := Migrate(gdb); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	for _, table := range []string{"users", "registered_domains", "dns_records", "wallet_transactions",
		"orders", "openprovider_contacts", "user_states", "translations", "admin_notifications",
		"system_settings", "api_usage_logs"} {
		if !gdb.Migrator().HasTable(table) {
			t.Errorf("expected table %s", table)
		}
	}

	// second run is a no-op
	if err := Migrate(gdb); err != nil {
		t.Fatalf("second Migrate() failed: %v", err)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open("oracle", "dsn", 1); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
