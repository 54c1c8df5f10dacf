package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Gateway      GatewayConfig
	SMTP         SMTPConfig
	Subscription SubscriptionConfig
	Outbox       OutboxConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
	// PublicURL is the externally reachable base used for gateway callbacks
	PublicURL string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxOpen  int
	MaxIdle  int
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// GatewayConfig points at the payment provider
type GatewayConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// SMTPConfig holds outgoing mail settings. An empty Host disables email.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether a mail relay is configured
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// SubscriptionConfig holds trial and expiry sweep settings
type SubscriptionConfig struct {
	TrialDays     int
	SweepInterval time.Duration
	SweepBatch    int
}

// OutboxConfig sizes the notification worker pool
type OutboxConfig struct {
	Workers    int
	MaxRetries int
	Channel    string
}

// Load loads configuration from environment variables
func Load() *Config {
	port := getEnv("SERVER_PORT", "8080")
	return &Config{
		Server: ServerConfig{
			Port:      port,
			Env:       getEnv("SERVER_ENV", "development"),
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+port), "/"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "marketplace"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxOpen:  getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdle:  getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Gateway: GatewayConfig{
			BaseURL: strings.TrimRight(getEnv("GATEWAY_BASE_URL", "http://localhost:9000"), "/"),
			APIKey:  getEnv("GATEWAY_API_KEY", ""),
			Timeout: getEnvAsDuration("GATEWAY_TIMEOUT", 10*time.Second),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@marketplace.local"),
		},
		Subscription: SubscriptionConfig{
			TrialDays:     getEnvAsInt("TRIAL_DAYS", 30),
			SweepInterval: getEnvAsDuration("EXPIRY_SWEEP_INTERVAL", time.Minute),
			SweepBatch:    getEnvAsInt("EXPIRY_SWEEP_BATCH", 100),
		},
		Outbox: OutboxConfig{
			Workers:    getEnvAsInt("OUTBOX_WORKERS", 4),
			MaxRetries: getEnvAsInt("OUTBOX_MAX_RETRIES", 3),
			Channel:    getEnv("EVENTS_CHANNEL", "marketplace.seller-events"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
