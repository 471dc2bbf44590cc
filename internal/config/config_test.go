package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "session_id", cfg.Session.CookieName)
	assert.Equal(t, 30*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 3, cfg.Resolver.RetryCount)
	assert.Equal(t, "INR", cfg.Checkout.Currency)
	assert.Equal(t, 5*time.Second, cfg.Checkout.CallTimeout)
	assert.True(t, cfg.Checkout.ReceiptsEnabled)
	assert.False(t, cfg.OnlinePaymentsEnabled())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example, *.shop.example")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("STORE_LOOKUP_RETRIES", "5")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_live")
	t.Setenv("RAZORPAY_KEY_SECRET", "secret")
	t.Setenv("SERVER_MAX_BODY_BYTES", "2048")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://shop.example", "*.shop.example"}, cfg.Security.CORSAllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 5, cfg.Resolver.RetryCount)
	assert.Equal(t, int64(2048), cfg.Server.MaxBodyBytes)
	assert.True(t, cfg.OnlinePaymentsEnabled())
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("REDIS_DB", "one")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:      AppConfig{Environment: "production"},
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{Host: "db", Name: "storefront", User: "app"},
			Redis:    RedisConfig{Host: "cache"},
			JWT:      JWTConfig{Secret: testSecret},
			Resolver: ResolverConfig{RetryCount: 1},
			Checkout: CheckoutConfig{Currency: "INR", CallTimeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "short jwt secret", mutate: func(c *Config) { c.JWT.Secret = "short" }, wantErr: "JWT_SECRET"},
		{name: "missing db host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: "DB_HOST"},
		{name: "missing redis host", mutate: func(c *Config) { c.Redis.Host = "" }, wantErr: "REDIS_HOST"},
		{name: "no lookup attempts", mutate: func(c *Config) { c.Resolver.RetryCount = 0 }, wantErr: "STORE_LOOKUP_RETRIES"},
		{name: "zero call timeout", mutate: func(c *Config) { c.Checkout.CallTimeout = 0 }, wantErr: "CHECKOUT_CALL_TIMEOUT"},
		{name: "bad currency", mutate: func(c *Config) { c.Checkout.Currency = "RUPEE" }, wantErr: "CHECKOUT_CURRENCY"},
		{
			name: "gateway key without secret in production",
			mutate: func(c *Config) {
				c.External.Razorpay.KeyID = "rzp_live"
			},
			wantErr: "RAZORPAY_KEY_SECRET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
