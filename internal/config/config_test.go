package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/portal")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("PORTAL_TENANTS", "")
	t.Setenv("PAYMENT_MIN_PENCE", "")
	t.Setenv("PAYMENT_MAX_PENCE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "localhost", cfg.Tenant.PrimaryDomain)
	assert.Equal(t, DefaultTenants, cfg.Tenant.Known)
	assert.Equal(t, "dev-tenant", cfg.Tenant.CookieName)
	assert.Equal(t, int64(2500), cfg.Payment.Limits.MinPence)
	assert.Equal(t, int64(250000), cfg.Payment.Limits.MaxPence)
	assert.Equal(t, 30*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Session.PendingAccountsTTL)
	assert.True(t, cfg.Session.GeneratedSecret)
	assert.Len(t, cfg.Session.Secret, 64)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/portal")
	t.Setenv("PORT", "9090")
	t.Setenv("PORTAL_TENANTS", "alpha, beta ,,gamma")
	t.Setenv("PAYMENT_MIN_PENCE", "100")
	t.Setenv("PAYMENT_MAX_PENCE", "200")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.Tenant.Known)
	assert.Equal(t, PaymentLimits{MinPence: 100, MaxPence: 200}, cfg.Payment.Limits)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/portal")

	t.Setenv("PORT", "eighty")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("PORT", "")
	t.Setenv("PAYMENT_MIN_PENCE", "5000")
	t.Setenv("PAYMENT_MAX_PENCE", "100")
	_, err = Load()
	assert.Error(t, err)
}

func TestPaymentLimits_Contains(t *testing.T) {
	limits := PaymentLimits{MinPence: 2500, MaxPence: 250000}

	assert.False(t, limits.Contains(2499))
	assert.True(t, limits.Contains(2500))
	assert.True(t, limits.Contains(250000))
	assert.False(t, limits.Contains(250001))
}
