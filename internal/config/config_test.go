package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

// baseValidConfig returns a fully-valid configuration object that callers
// can tweak inside table tests.
func baseValidConfig() Config {
	return Config{
		AppPort:              3000,
		BcryptCost:           12,
		LogLevel:             "info",
		LogFormat:            "json",
		MongoURI:             "mongodb://localhost:27017",
		MongoDBName:          "test",
		JWTSecret:            "this-is-a-super-secret-jwt-key-with-32-plus-chars",
		JWTAlgorithm:         "HS256",
		AccessTokenMinutes:   60,
		OTPTTLMinutes:        10,
		WSMaxSessionSec:      900,
		WSOutboxBuffer:       64,
		MarketDataBaseURL:    "https://api.coingecko.com/api/v3",
		MarketDataTimeoutSec: 10,
		MarketVSCurrency:     "usd",
		MarketCacheTTLSec:    30,
	}
}

// clearConfigEnvVars removes every environment variable that the Config loader
// consumes so each test starts with a clean slate.
func clearConfigEnvVars(t *testing.T) {
	t.Helper()

	for _, k := range []string{
		"APP_PORT",
		"BCRYPT_COST",
		"SIGNIN_RATE_PER_MIN",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"MONGO_URI",
		"MONGO_DB_NAME",
		"JWT_SECRET",
		"JWT_ALGORITHM",
		"ACCESS_TOKEN_MINUTES",
		"OTP_TTL_MINUTES",
		"WS_MAX_SESSION_SEC",
		"WS_OUTBOX_BUFFER",
		"REQUEST_LOGGING_ENABLED",
		"MARKET_DATA_BASE_URL",
		"MARKET_CACHE_TTL_SEC",
		"REDIS_ADDR",
		"SMTP_HOST",
	} {
		if err := os.Unsetenv(k); err != nil {
			t.Logf("warning: failed to unset %s: %v", k, err)
		}
	}
}

func TestConfigLoadDefaults(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()
	t.Cleanup(ResetCache)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.AppPort)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 0, cfg.SignInRatePerMin)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "mongodb://mongo:27017", cfg.MongoURI)
	assert.Equal(t, "cryptopulse", cfg.MongoDBName)
	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL())
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.MarketDataBaseURL)
	assert.Equal(t, "usd", cfg.MarketVSCurrency)
	assert.Equal(t, 30*time.Second, cfg.MarketCacheTTL())
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.SMTPHost)
	assert.True(t, cfg.RequestLoggingEnabled)
}

func TestConfigLoadWithOverride(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()
	t.Cleanup(ResetCache)

	t.Setenv("APP_PORT", "9999")
	t.Setenv("MARKET_CACHE_TTL_SEC", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.AppPort)
	assert.Equal(t, time.Duration(0), cfg.MarketCacheTTL())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestConfigCaching(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()
	t.Cleanup(ResetCache)

	cfg1, err := Load()
	require.NoError(t, err)

	t.Setenv("APP_PORT", "4000")

	// second call should hit the cache
	cfg2, err := Load()
	require.NoError(t, err)

	assert.Equal(t, cfg1, cfg2)
}

func TestConfigLoadRejectsInvalidEnv(t *testing.T) {
	clearConfigEnvVars(t)
	ResetCache()
	t.Cleanup(ResetCache)

	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.ErrorIs(t, err, ErrJWTSecretTooShort)
}

// -----------------------------------------------------------------------------
// Validate() unit tests (table-driven)
// -----------------------------------------------------------------------------

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			modify: func(*Config) {},
		},
		{
			name:    "invalid port - zero",
			modify:  func(c *Config) { c.AppPort = 0 },
			wantErr: ErrAppPortRange,
		},
		{
			name:    "invalid port - too high",
			modify:  func(c *Config) { c.AppPort = 70000 },
			wantErr: ErrAppPortRange,
		},
		{
			name:    "empty log level",
			modify:  func(c *Config) { c.LogLevel = "" },
			wantErr: ErrLogLevelEmpty,
		},
		{
			name:    "empty JWT secret",
			modify:  func(c *Config) { c.JWTSecret = "" },
			wantErr: ErrJWTSecretRequired,
		},
		{
			name:    "JWT secret too short",
			modify:  func(c *Config) { c.JWTSecret = "short" },
			wantErr: ErrJWTSecretTooShort,
		},
		{
			name:    "invalid JWT algorithm",
			modify:  func(c *Config) { c.JWTAlgorithm = "RS256" },
			wantErr: ErrJWTAlgorithmUnsupported,
		},
		{
			name:    "bcrypt cost too low",
			modify:  func(c *Config) { c.BcryptCost = 7 },
			wantErr: ErrBcryptCostRange,
		},
		{
			name:    "negative signin rate",
			modify:  func(c *Config) { c.SignInRatePerMin = -1 },
			wantErr: ErrSignInRatePerMin,
		},
		{
			name:    "zero otp ttl",
			modify:  func(c *Config) { c.OTPTTLMinutes = 0 },
			wantErr: ErrOTPTTLMinutes,
		},
		{
			name:    "zero token lifetime",
			modify:  func(c *Config) { c.AccessTokenMinutes = 0 },
			wantErr: ErrAccessTokenMinutes,
		},
		{
			name:    "missing market data url",
			modify:  func(c *Config) { c.MarketDataBaseURL = "" },
			wantErr: ErrMarketDataBaseURLEmpty,
		},
		{
			name:    "zero market timeout",
			modify:  func(c *Config) { c.MarketDataTimeoutSec = 0 },
			wantErr: ErrMarketDataTimeout,
		},
		{
			name: "smtp host without port",
			modify: func(c *Config) {
				c.SMTPHost = "smtp.example.com"
				c.MailFrom = "noreply@example.com"
			},
			wantErr: ErrSMTPPortRange,
		},
		{
			name: "smtp host without sender",
			modify: func(c *Config) {
				c.SMTPHost = "smtp.example.com"
				c.SMTPPort = 587
			},
			wantErr: ErrMailFromEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseValidConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
