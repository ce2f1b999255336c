package config

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Operator  OperatorConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	QBO       QBOConfig
	Webhook   WebhookConfig
	Sync      SyncConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

// RedisConfig is optional; an empty Addr selects the in-process locker.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
}

// OperatorConfig holds the single operator account used by the ERP hooks
// and the sync dashboard.
type OperatorConfig struct {
	Username     string
	PasswordHash string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type QBOConfig struct {
	Environment          string
	ClientID             string
	ClientSecret         string
	RedirectURL          string
	MinorVersion         string
	HTTPTimeout          time.Duration
	RequestsPerMinute    int
	DepositAccountID     string
	PaymentMethods       map[string]string
	TokenRefreshInterval time.Duration
}

type WebhookConfig struct {
	VerifierToken string
	Async         bool
	MaxBodyBytes  int64
}

type SyncConfig struct {
	Workers        int
	QueueSize      int
	GraceWindow    time.Duration
	TotalTolerance decimal.Decimal
	LockTTL        time.Duration
}

const (
	sandboxBaseURL    = "https://sandbox-quickbooks.api.intuit.com"
	productionBaseURL = "https://quickbooks.api.intuit.com"
)

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "qbo-connector")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "qbo_connector")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("OPERATOR_USERNAME", "operator")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("QBO_ENV", "sandbox")
	viper.SetDefault("QBO_MINOR_VERSION", "65")
	viper.SetDefault("QBO_HTTP_TIMEOUT_SECONDS", 15)
	viper.SetDefault("QBO_REQUESTS_PER_MINUTE", 500)
	viper.SetDefault("QBO_PAYMENT_METHODS", "")
	viper.SetDefault("QBO_TOKEN_REFRESH_INTERVAL_MINUTES", 60)
	viper.SetDefault("WEBHOOK_ASYNC", true)
	viper.SetDefault("WEBHOOK_MAX_BODY_BYTES", 1048576)
	viper.SetDefault("SYNC_WORKERS", 4)
	viper.SetDefault("SYNC_QUEUE_SIZE", 256)
	viper.SetDefault("SYNC_GRACE_WINDOW_SECONDS", 5)
	viper.SetDefault("SYNC_TOTAL_TOLERANCE", "0.01")
	viper.SetDefault("SYNC_LOCK_TTL_SECONDS", 30)

	tolerance, err := decimal.NewFromString(viper.GetString("SYNC_TOTAL_TOLERANCE"))
	if err != nil {
		log.Printf("Warning: invalid SYNC_TOTAL_TOLERANCE, using 0.01: %v", err)
		tolerance = decimal.RequireFromString("0.01")
	}

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		},
		Operator: OperatorConfig{
			Username:     viper.GetString("OPERATOR_USERNAME"),
			PasswordHash: viper.GetString("OPERATOR_PASSWORD_HASH"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		QBO: QBOConfig{
			Environment:          viper.GetString("QBO_ENV"),
			ClientID:             viper.GetString("QBO_CLIENT_ID"),
			ClientSecret:         viper.GetString("QBO_CLIENT_SECRET"),
			RedirectURL:          viper.GetString("QBO_REDIRECT_URL"),
			MinorVersion:         viper.GetString("QBO_MINOR_VERSION"),
			HTTPTimeout:          time.Duration(viper.GetInt("QBO_HTTP_TIMEOUT_SECONDS")) * time.Second,
			RequestsPerMinute:    viper.GetInt("QBO_REQUESTS_PER_MINUTE"),
			DepositAccountID:     viper.GetString("QBO_DEPOSIT_ACCOUNT_ID"),
			PaymentMethods:       ParsePaymentMethods(viper.GetString("QBO_PAYMENT_METHODS")),
			TokenRefreshInterval: time.Duration(viper.GetInt("QBO_TOKEN_REFRESH_INTERVAL_MINUTES")) * time.Minute,
		},
		Webhook: WebhookConfig{
			VerifierToken: viper.GetString("WEBHOOK_VERIFIER_TOKEN"),
			Async:         viper.GetBool("WEBHOOK_ASYNC"),
			MaxBodyBytes:  viper.GetInt64("WEBHOOK_MAX_BODY_BYTES"),
		},
		Sync: SyncConfig{
			Workers:        viper.GetInt("SYNC_WORKERS"),
			QueueSize:      viper.GetInt("SYNC_QUEUE_SIZE"),
			GraceWindow:    time.Duration(viper.GetInt("SYNC_GRACE_WINDOW_SECONDS")) * time.Second,
			TotalTolerance: tolerance,
			LockTTL:        time.Duration(viper.GetInt("SYNC_LOCK_TTL_SECONDS")) * time.Second,
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

// BaseURL returns the accounting API host for the configured environment.
func (c *QBOConfig) BaseURL() string {
	if strings.EqualFold(c.Environment, "production") {
		return productionBaseURL
	}
	return sandboxBaseURL
}

// ParsePaymentMethods reads "Cash=1,Check=2" into a mode-of-payment lookup.
func ParsePaymentMethods(raw string) map[string]string {
	methods := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		name, id, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSpace(id)); err != nil {
			log.Printf("Warning: ignoring payment method %q with non-numeric id", name)
			continue
		}
		methods[strings.TrimSpace(name)] = strings.TrimSpace(id)
	}
	return methods
}
