package config

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	AppPort               int    `mapstructure:"APP_PORT"`
	BcryptCost            int    `mapstructure:"BCRYPT_COST"`
	SignInRatePerMin      int    `mapstructure:"SIGNIN_RATE_PER_MIN"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	MongoURI              string `mapstructure:"MONGO_URI"`
	MongoDBName           string `mapstructure:"MONGO_DB_NAME"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	JWTAlgorithm          string `mapstructure:"JWT_ALGORITHM"`
	AccessTokenMinutes    int    `mapstructure:"ACCESS_TOKEN_MINUTES"`
	OTPTTLMinutes         int    `mapstructure:"OTP_TTL_MINUTES"`
	WSMaxSessionSec       int    `mapstructure:"WS_MAX_SESSION_SEC"`
	WSOutboxBuffer        int    `mapstructure:"WS_OUTBOX_BUFFER"`
	RouteMetricsEnabled   bool   `mapstructure:"ROUTE_METRICS_ENABLED"`
	RequestLoggingEnabled bool   `mapstructure:"REQUEST_LOGGING_ENABLED"`
	CORSAllowOrigins      string `mapstructure:"CORS_ALLOW_ORIGINS"`
	StaticDir             string `mapstructure:"STATIC_DIR"`

	MarketDataBaseURL    string `mapstructure:"MARKET_DATA_BASE_URL"`
	MarketDataAPIKey     string `mapstructure:"MARKET_DATA_API_KEY"`
	MarketDataTimeoutSec int    `mapstructure:"MARKET_DATA_TIMEOUT_SEC"`
	MarketVSCurrency     string `mapstructure:"MARKET_VS_CURRENCY"`
	MarketCacheTTLSec    int    `mapstructure:"MARKET_CACHE_TTL_SEC"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	PyroscopeServerAddress string `mapstructure:"PYROSCOPE_SERVER_ADDRESS"`
}

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check in case another goroutine loaded it while we waited for the lock
	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()

	v.SetDefault("APP_PORT", 3000)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("SIGNIN_RATE_PER_MIN", 0) // 0 disables the auth limiter
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGO_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB_NAME", "cryptopulse")
	v.SetDefault("JWT_SECRET", "this-is-a-default-jwt-secret-key-with-32-plus-characters")
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_MINUTES", 1440)
	v.SetDefault("OTP_TTL_MINUTES", 10)
	v.SetDefault("WS_MAX_SESSION_SEC", 900)
	v.SetDefault("WS_OUTBOX_BUFFER", 64)
	v.SetDefault("ROUTE_METRICS_ENABLED", true)
	v.SetDefault("REQUEST_LOGGING_ENABLED", true)
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("STATIC_DIR", "./web-ui")
	v.SetDefault("MARKET_DATA_BASE_URL", "https://api.coingecko.com/api/v3")
	v.SetDefault("MARKET_DATA_API_KEY", "")
	v.SetDefault("MARKET_DATA_TIMEOUT_SEC", 10)
	v.SetDefault("MARKET_VS_CURRENCY", "usd")
	v.SetDefault("MARKET_CACHE_TTL_SEC", 30)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "no-reply@cryptopulse.local")
	v.SetDefault("PYROSCOPE_SERVER_ADDRESS", "")

	// Configure Viper to read from .env file (if present)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// Try to read .env file (it's okay if it doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	// Override with OS environment variables
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	cachedConfig = &cfg

	return cfg, nil
}

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// Validation errors returned by Validate.
var (
	ErrAppPortRange            = errors.New("APP_PORT must be between 1 and 65535")
	ErrBcryptCostRange         = errors.New("BCRYPT_COST must be between 10 and 16")
	ErrSignInRatePerMin        = errors.New("SIGNIN_RATE_PER_MIN cannot be negative")
	ErrLogLevelEmpty           = errors.New("LOG_LEVEL cannot be empty")
	ErrLogFormatEmpty          = errors.New("LOG_FORMAT cannot be empty")
	ErrMongoURIEmpty           = errors.New("MONGO_URI cannot be empty")
	ErrMongoDBNameEmpty        = errors.New("MONGO_DB_NAME cannot be empty")
	ErrJWTSecretRequired       = errors.New("JWT_SECRET cannot be empty")
	ErrJWTSecretTooShort       = errors.New("JWT_SECRET must be at least 32 characters for HS256")
	ErrJWTAlgorithmUnsupported = errors.New("JWT_ALGORITHM must be HS256")
	ErrAccessTokenMinutes      = errors.New("ACCESS_TOKEN_MINUTES must be greater than 0")
	ErrOTPTTLMinutes           = errors.New("OTP_TTL_MINUTES must be greater than 0")
	ErrWSMaxSessionSec         = errors.New("WS_MAX_SESSION_SEC must be greater than 0")
	ErrWSOutboxBuffer          = errors.New("WS_OUTBOX_BUFFER must be greater than 0")
	ErrMarketDataBaseURLEmpty  = errors.New("MARKET_DATA_BASE_URL cannot be empty")
	ErrMarketDataTimeout       = errors.New("MARKET_DATA_TIMEOUT_SEC must be greater than 0")
	ErrMarketVSCurrencyEmpty   = errors.New("MARKET_VS_CURRENCY cannot be empty")
	ErrMarketCacheTTL          = errors.New("MARKET_CACHE_TTL_SEC cannot be negative")
	ErrSMTPPortRange           = errors.New("SMTP_PORT must be between 1 and 65535 when SMTP_HOST is set")
	ErrMailFromEmpty           = errors.New("MAIL_FROM cannot be empty when SMTP_HOST is set")
)

// Validate checks if required configuration fields are properly set
func (c Config) Validate() error {
	switch {
	case c.AppPort <= 0 || c.AppPort > 65535:
		return ErrAppPortRange
	case c.BcryptCost < 10 || c.BcryptCost > 16:
		return ErrBcryptCostRange
	case c.SignInRatePerMin < 0:
		return ErrSignInRatePerMin
	case c.LogLevel == "":
		return ErrLogLevelEmpty
	case c.LogFormat == "":
		return ErrLogFormatEmpty
	case c.MongoURI == "":
		return ErrMongoURIEmpty
	case c.MongoDBName == "":
		return ErrMongoDBNameEmpty
	case c.JWTSecret == "":
		return ErrJWTSecretRequired
	case strings.ToUpper(c.JWTAlgorithm) != "HS256":
		return ErrJWTAlgorithmUnsupported
	case len(c.JWTSecret) < 32:
		return ErrJWTSecretTooShort
	case c.AccessTokenMinutes <= 0:
		return ErrAccessTokenMinutes
	case c.OTPTTLMinutes <= 0:
		return ErrOTPTTLMinutes
	case c.WSMaxSessionSec <= 0:
		return ErrWSMaxSessionSec
	case c.WSOutboxBuffer <= 0:
		return ErrWSOutboxBuffer
	case c.MarketDataBaseURL == "":
		return ErrMarketDataBaseURLEmpty
	case c.MarketDataTimeoutSec <= 0:
		return ErrMarketDataTimeout
	case c.MarketVSCurrency == "":
		return ErrMarketVSCurrencyEmpty
	case c.MarketCacheTTLSec < 0:
		return ErrMarketCacheTTL
	}

	if c.SMTPHost != "" {
		if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
			return ErrSMTPPortRange
		}
		if c.MailFrom == "" {
			return ErrMailFromEmpty
		}
	}
	return nil
}

// AccessTokenTTL is the lifetime of an issued session token.
func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

// OTPTTL is how long a password-reset code stays valid.
func (c Config) OTPTTL() time.Duration {
	return time.Duration(c.OTPTTLMinutes) * time.Minute
}

// MarketDataTimeout bounds every outbound market-data request.
func (c Config) MarketDataTimeout() time.Duration {
	return time.Duration(c.MarketDataTimeoutSec) * time.Second
}

// MarketCacheTTL is zero when caching is disabled.
func (c Config) MarketCacheTTL() time.Duration {
	return time.Duration(c.MarketCacheTTLSec) * time.Second
}
