package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultTenants is the allow-list used when PORTAL_TENANTS is unset
var DefaultTenants = []string{"rcpmanagement", "rcpgroup", "rcpproperty", "rcpgroundrent"}

// Config represents the complete process configuration
type Config struct {
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	BaseURL     string
	AdminEmail  string

	Tenant    TenantConfig
	Session   SessionConfig
	Payment   PaymentConfig
	Redis     RedisConfig
	Minio     MinioConfig
	Kafka     KafkaConfig
	SES       SESConfig
	Directory DirectoryConfig
	Jobs      JobsConfig
}

// TenantConfig drives host and cookie based tenant resolution
type TenantConfig struct {
	PrimaryDomain string
	Known         []string
	CookieName    string
}

// SessionConfig holds the session credential settings
type SessionConfig struct {
	Secret             string
	TTL                time.Duration
	PendingAccountsTTL time.Duration
	SecureCookies      bool
	GeneratedSecret    bool
}

// PaymentLimits is the inclusive range accepted by payment initiation, in minor units
type PaymentLimits struct {
	MinPence int64
	MaxPence int64
}

// Contains reports whether amount lies within the inclusive range
func (l PaymentLimits) Contains(amount int64) bool {
	return amount >= l.MinPence && amount <= l.MaxPence
}

// PaymentConfig contains gateway simulation settings
type PaymentConfig struct {
	Limits        PaymentLimits
	WebhookSecret string
	DedupeTTL     time.Duration
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MinioConfig contains object storage settings. Archive is disabled when Endpoint is empty.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// KafkaConfig contains event publishing settings. Publishing is disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// SESConfig contains support email delivery settings. Delivery is log-only when Region is empty.
type SESConfig struct {
	Region    string
	Sender    string
	Recipient string
}

// DirectoryConfig points at the external account directory. Empty BaseURL selects the demo directory.
type DirectoryConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// JobsConfig contains background job settings
type JobsConfig struct {
	LedgerSyncInterval time.Duration
	LedgerSyncEnabled  bool
}

// Load reads configuration from the environment, after loading a .env file if one exists
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		BaseURL:     strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		AdminEmail:  strings.ToLower(getEnv("ADMIN_EMAIL", "admin@example.com")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	var err error
	if cfg.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}

	cfg.Tenant = TenantConfig{
		PrimaryDomain: getEnv("PORTAL_PRIMARY_DOMAIN", "localhost"),
		Known:         getList("PORTAL_TENANTS", DefaultTenants),
		CookieName:    getEnv("TENANT_COOKIE_NAME", "dev-tenant"),
	}

	cfg.Session = SessionConfig{
		Secret:        os.Getenv("SESSION_SECRET"),
		SecureCookies: cfg.Environment == "production",
	}
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = randomSecret()
		cfg.Session.GeneratedSecret = true
	}
	if cfg.Session.TTL, err = getDuration("SESSION_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Session.PendingAccountsTTL, err = getDuration("PENDING_ACCOUNTS_TTL", 10*time.Minute); err != nil {
		return nil, err
	}

	minPence, err := getInt("PAYMENT_MIN_PENCE", 2500)
	if err != nil {
		return nil, err
	}
	maxPence, err := getInt("PAYMENT_MAX_PENCE", 250000)
	if err != nil {
		return nil, err
	}
	if minPence > maxPence {
		return nil, fmt.Errorf("PAYMENT_MIN_PENCE (%d) exceeds PAYMENT_MAX_PENCE (%d)", minPence, maxPence)
	}
	cfg.Payment = PaymentConfig{
		Limits:        PaymentLimits{MinPence: int64(minPence), MaxPence: int64(maxPence)},
		WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", "test-secret"),
	}
	if cfg.Payment.DedupeTTL, err = getDuration("PAYMENT_DEDUPE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	cfg.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.Minio = MinioConfig{
		Endpoint:  os.Getenv("MINIO_ENDPOINT"),
		AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		Bucket:    getEnv("MINIO_BUCKET", "payment-callbacks"),
	}

	cfg.Kafka = KafkaConfig{
		Brokers: getList("KAFKA_BROKERS", nil),
		Topic:   getEnv("KAFKA_TOPIC", "portal-events"),
	}

	cfg.SES = SESConfig{
		Region:    os.Getenv("AWS_REGION"),
		Sender:    getEnv("SES_SENDER", "noreply@example.com"),
		Recipient: getEnv("SES_SUPPORT_RECIPIENT", "support@example.com"),
	}

	cfg.Directory = DirectoryConfig{
		BaseURL: os.Getenv("DIRECTORY_BASE_URL"),
		APIKey:  os.Getenv("DIRECTORY_API_KEY"),
	}
	if cfg.Directory.Timeout, err = getDuration("DIRECTORY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.Jobs.LedgerSyncEnabled = getEnv("LEDGER_SYNC_ENABLED", "true") == "true"
	if cfg.Jobs.LedgerSyncInterval, err = getDuration("LEDGER_SYNC_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func getList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("failed to generate session secret: %v", err))
	}
	return hex.EncodeToString(buf)
}
