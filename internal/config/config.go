package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Admin        AdminConfig
	Log          LogConfig
	Migrate      bool
	HTTPAddr     string
	CORSOrigins  []string
	Telegram     TelegramConfig
	OpenProvider OpenProviderConfig
	Cloudflare   CloudflareConfig
	BlockBee     BlockBeeConfig
	WHM          WHMConfig
	Pricing      PricingConfig
	Wallet       WalletConfig
	DNSSync      DNSSyncConfig
}

// DBConfig holds database configuration
type DBConfig struct {
	Driver       string // mysql | postgres
	DSN          string
	MaxOpenConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// AdminConfig holds the admin API login
type AdminConfig struct {
	Username     string
	PasswordHash string // bcrypt
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string // text | json
}

// TelegramConfig holds bot configuration
type TelegramConfig struct {
	BotToken          string
	WebhookSecret     string
	AdminChatIDs      []int64
	InitDataMaxAgeMin int
}

// OpenProviderConfig holds registrar credentials
type OpenProviderConfig struct {
	BaseURL       string
	Username      string
	Password      string
	FallbackEmail string
}

// CloudflareConfig holds DNS provider credentials.
// APIToken takes precedence over Email+GlobalAPIKey.
type CloudflareConfig struct {
	BaseURL      string
	APIToken     string
	Email        string
	GlobalAPIKey string
}

// BlockBeeConfig holds payment gateway configuration
type BlockBeeConfig struct {
	BaseURL         string
	APIKey          string
	CallbackBaseURL string
}

// WHMConfig holds hosting panel configuration
type WHMConfig struct {
	BaseURL     string
	Username    string
	APIToken    string
	DefaultPlan string
}

// PricingConfig holds retail pricing configuration
type PricingConfig struct {
	Multiplier decimal.Decimal
}

// WalletConfig holds wallet configuration
type WalletConfig struct {
	MinDepositUSD decimal.Decimal
}

// DNSSyncConfig holds DNS sync worker configuration
type DNSSyncConfig struct {
	Enabled     bool
	IntervalSec int
}

// lookup resolves a single key. Implementations apply their own precedence.
type lookup func(envKey, section, key string) (string, bool)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	return build(func(envKey, _, _ string) (string, bool) {
		v := os.Getenv(envKey)
		return v, v != ""
	})
}

// LoadFromINI loads configuration from INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	// Priority: ENV > INI > default
	return build(func(envKey, section, key string) (string, bool) {
		if v := os.Getenv(envKey); v != "" {
			return v, true
		}
		if v := cfgFile.Section(section).Key(key).String(); v != "" {
			return v, true
		}
		return "", false
	})
}

func build(get lookup) (*Config, error) {
	str := func(envKey, section, key, def string) string {
		if v, ok := get(envKey, section, key); ok {
			return v
		}
		return def
	}
	num := func(envKey, section, key string, def int) int {
		if v, ok := get(envKey, section, key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	flag := func(envKey, section, key string, def bool) bool {
		if v, ok := get(envKey, section, key); ok {
			return v == "1" || strings.EqualFold(v, "true")
		}
		return def
	}
	dec := func(envKey, section, key, def string) (decimal.Decimal, error) {
		raw := str(envKey, section, key, def)
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: invalid decimal %q", envKey, raw)
		}
		return d, nil
	}

	adminIDs, err := parseIDs(str("ADMIN_CHAT_IDS", "telegram", "admin_chat_ids", ""))
	if err != nil {
		return nil, err
	}
	multiplier, err := dec("PRICE_MULTIPLIER", "pricing", "multiplier", "3.3")
	if err != nil {
		return nil, err
	}
	minDeposit, err := dec("MIN_DEPOSIT_USD", "wallet", "min_deposit_usd", "20")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DB: DBConfig{
			Driver:       strings.ToLower(str("DB_DRIVER", "db", "driver", "mysql")),
			DSN:          str("DB_DSN", "db", "dsn", ""),
			MaxOpenConns: num("DB_MAX_OPEN_CONNS", "db", "max_open_conns", 20),
		},
		Redis: RedisConfig{
			Addr:     str("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: str("REDIS_PASS", "redis", "pass", ""),
			DB:       num("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        str("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: num("JWT_EXPIRE_MINUTES", "jwt", "expire_minutes", 1440),
			Issuer:        str("JWT_ISSUER", "jwt", "issuer", "go_domainbot"),
		},
		Admin: AdminConfig{
			Username:     str("ADMIN_USERNAME", "admin", "username", "admin"),
			PasswordHash: str("ADMIN_PASSWORD_HASH", "admin", "password_hash", ""),
		},
		Log: LogConfig{
			Level:  str("LOG_LEVEL", "log", "level", "info"),
			Format: str("LOG_FORMAT", "log", "format", "text"),
		},
		Migrate:     flag("MIGRATE", "app", "migrate", false),
		HTTPAddr:    str("HTTP_ADDR", "http", "addr", ":8080"),
		CORSOrigins: splitList(str("CORS_ORIGINS", "http", "cors_origins", "*")),
		Telegram: TelegramConfig{
			BotToken:          str("TELEGRAM_BOT_TOKEN", "telegram", "bot_token", ""),
			WebhookSecret:     str("TELEGRAM_WEBHOOK_SECRET", "telegram", "webhook_secret", ""),
			AdminChatIDs:      adminIDs,
			InitDataMaxAgeMin: num("INIT_DATA_MAX_AGE_MIN", "telegram", "init_data_max_age_min", 60),
		},
		OpenProvider: OpenProviderConfig{
			BaseURL:       str("OPENPROVIDER_BASE_URL", "openprovider", "base_url", "https://api.openprovider.eu/v1beta"),
			Username:      str("OPENPROVIDER_USERNAME", "openprovider", "username", ""),
			Password:      str("OPENPROVIDER_PASSWORD", "openprovider", "password", ""),
			FallbackEmail: str("FALLBACK_CONTACT_EMAIL", "openprovider", "fallback_email", "cloakhost@tutamail.com"),
		},
		Cloudflare: CloudflareConfig{
			BaseURL:      str("CLOUDFLARE_BASE_URL", "cloudflare", "base_url", "https://api.cloudflare.com/client/v4"),
			APIToken:     str("CLOUDFLARE_API_TOKEN", "cloudflare", "api_token", ""),
			Email:        str("CLOUDFLARE_EMAIL", "cloudflare", "email", ""),
			GlobalAPIKey: str("CLOUDFLARE_GLOBAL_API_KEY", "cloudflare", "global_api_key", ""),
		},
		BlockBee: BlockBeeConfig{
			BaseURL:         str("BLOCKBEE_BASE_URL", "blockbee", "base_url", "https://api.blockbee.io"),
			APIKey:          str("BLOCKBEE_API_KEY", "blockbee", "api_key", ""),
			CallbackBaseURL: str("WEBHOOK_HOST", "blockbee", "callback_base_url", ""),
		},
		WHM: WHMConfig{
			BaseURL:     str("WHM_API_URL", "whm", "base_url", ""),
			Username:    str("WHM_USERNAME", "whm", "username", "root"),
			APIToken:    str("WHM_API_TOKEN", "whm", "api_token", ""),
			DefaultPlan: str("WHM_DEFAULT_PLAN", "whm", "default_plan", "default"),
		},
		Pricing: PricingConfig{Multiplier: multiplier},
		Wallet:  WalletConfig{MinDepositUSD: minDeposit},
		DNSSync: DNSSyncConfig{
			Enabled:     flag("DNS_SYNC_ENABLED", "dns_sync", "enabled", false),
			IntervalSec: num("DNS_SYNC_INTERVAL_SEC", "dns_sync", "interval_sec", 300),
		},
	}

	// Validate required fields
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}
	if cfg.DB.Driver != "mysql" && cfg.DB.Driver != "postgres" {
		return nil, fmt.Errorf("DB_DRIVER must be mysql or postgres, got %q", cfg.DB.Driver)
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if !cfg.Pricing.Multiplier.IsPositive() {
		return nil, fmt.Errorf("PRICE_MULTIPLIER must be positive")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(raw) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_CHAT_IDS: invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IsAdminChat reports whether the chat id is configured as an admin
func (c TelegramConfig) IsAdminChat(id int64) bool {
	for _, a := range c.AdminChatIDs {
		if a == id {
			return true
		}
	}
	return false
}
