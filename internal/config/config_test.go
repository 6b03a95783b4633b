package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/test")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DB.Driver != "mysql" {
		t.Errorf("Expected default driver mysql, got %s", cfg.DB.Driver)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected HTTPAddr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.Pricing.Multiplier.String() != "3.3" {
		t.Errorf("Expected multiplier 3.3, got %s", cfg.Pricing.Multiplier)
	}
	if cfg.OpenProvider.FallbackEmail != "cloakhost@tutamail.com" {
		t.Errorf("Unexpected fallback email %s", cfg.OpenProvider.FallbackEmail)
	}
	if cfg.DNSSync.Enabled {
		t.Error("DNS sync should be disabled by default")
	}
}

func TestLoad_MissingDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Error("Expected error when DB_DSN is missing")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad driver", "DB_DRIVER", "oracle"},
		{"bad multiplier", "PRICE_MULTIPLIER", "abc"},
		{"zero multiplier", "PRICE_MULTIPLIER", "0"},
		{"bad admin ids", "ADMIN_CHAT_IDS", "12,x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("REDIS_DB", "5")
	t.Setenv("ADMIN_CHAT_IDS", "100, 200")
	t.Setenv("CLOUDFLARE_API_TOKEN", "tok")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DB.Driver != "postgres" {
		t.Errorf("Expected postgres, got %s", cfg.DB.Driver)
	}
	if cfg.Redis.DB != 5 {
		t.Errorf("Expected Redis DB 5, got %d", cfg.Redis.DB)
	}
	if !cfg.Telegram.IsAdminChat(200) || cfg.Telegram.IsAdminChat(300) {
		t.Errorf("Unexpected admin ids %v", cfg.Telegram.AdminChatIDs)
	}
	if cfg.Cloudflare.APIToken != "tok" {
		t.Errorf("Expected cloudflare token, got %q", cfg.Cloudflare.APIToken)
	}
}

func TestLoadFromINI_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.ini")
	content := `[db]
dsn = ini-dsn
driver = postgres

[jwt]
secret = ini-secret

[pricing]
multiplier = 2.5

[http]
addr = :7000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI() failed: %v", err)
	}

	if cfg.DB.DSN != "ini-dsn" || cfg.DB.Driver != "postgres" {
		t.Errorf("Expected INI db values, got %+v", cfg.DB)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("Expected env override :9090, got %s", cfg.HTTPAddr)
	}
	if cfg.Pricing.Multiplier.String() != "2.5" {
		t.Errorf("Expected multiplier 2.5, got %s", cfg.Pricing.Multiplier)
	}
}
