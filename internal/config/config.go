package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Service Ports
	HTTPPort int `env:"HTTP_PORT" default:"8080"`

	// Database
	DatabaseURL    string        `env:"DATABASE_URL" required:"true"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" default:"25"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" default:"5"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" default:"5s"`

	// Authentication
	JWTSecret           string        `env:"JWT_SECRET" required:"true"`
	AccessTokenTTL      time.Duration `env:"ACCESS_TOKEN_TTL" default:"24h"`
	ConfirmationCodeTTL time.Duration `env:"CONFIRMATION_CODE_TTL" default:"24h"`

	// Redis (rate limiting). Empty URL falls back to an in-process limiter.
	RedisURL       string        `env:"REDIS_URL"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	AuthRateLimit  int           `env:"AUTH_RATE_LIMIT" default:"10"`
	AuthRateWindow time.Duration `env:"AUTH_RATE_WINDOW" default:"1m"`

	// Mail
	MailFrom          string  `env:"MAIL_FROM" default:"no-reply@titlehub.local"`
	SMTPHost          string  `env:"SMTP_HOST"`
	SMTPPort          int     `env:"SMTP_PORT" default:"587"`
	SMTPUsername      string  `env:"SMTP_USERNAME"`
	SMTPPassword      string  `env:"SMTP_PASSWORD"`
	MailMaxRetries    int     `env:"MAIL_MAX_RETRIES" default:"3"`
	MailRatePerSecond float64 `env:"MAIL_RATE_PER_SECOND" default:"5"`

	// Development
	LogLevel    string   `env:"LOG_LEVEL" default:"debug"`
	LogFormat   string   `env:"LOG_FORMAT" default:"text"`
	CORSOrigins []string `env:"CORS_ORIGINS" default:"http://localhost:3000"`

	// Proxies whose X-Forwarded-For is believed. Empty means the peer address is the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// A missing .env is fine, system env vars still apply.
	if err := godotenv.Load(".env"); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	config := &Config{}

	if err := loadEnvString(&config.GoEnv, "GO_ENV", "development"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.HTTPPort, "HTTP_PORT", 8080); err != nil {
		return nil, err
	}

	// Database
	if err := loadEnvStringRequired(&config.DatabaseURL, "DATABASE_URL"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.DBMaxOpenConns, "DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.DBMaxIdleConns, "DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.RequestTimeout, "REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	// Authentication
	if err := loadEnvStringRequired(&config.JWTSecret, "JWT_SECRET"); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.AccessTokenTTL, "ACCESS_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.ConfirmationCodeTTL, "CONFIRMATION_CODE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	// Redis
	if err := loadEnvString(&config.RedisURL, "REDIS_URL", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisPassword, "REDIS_PASSWORD", ""); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.AuthRateLimit, "AUTH_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if err := loadEnvDuration(&config.AuthRateWindow, "AUTH_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	// Mail
	if err := loadEnvString(&config.MailFrom, "MAIL_FROM", "no-reply@titlehub.local"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.SMTPHost, "SMTP_HOST", ""); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.SMTPPort, "SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.SMTPUsername, "SMTP_USERNAME", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.SMTPPassword, "SMTP_PASSWORD", ""); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.MailMaxRetries, "MAIL_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if err := loadEnvFloat(&config.MailRatePerSecond, "MAIL_RATE_PER_SECOND", 5); err != nil {
		return nil, err
	}

	// Development
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "debug"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogFormat, "LOG_FORMAT", "text"); err != nil {
		return nil, err
	}
	if err := loadEnvStringSlice(&config.CORSOrigins, "CORS_ORIGINS", []string{"http://localhost:3000"}); err != nil {
		return nil, err
	}
	if err := loadEnvStringSlice(&config.TrustedProxies, "TRUSTED_PROXIES", nil); err != nil {
		return nil, err
	}
	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringRequired(target *string, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return fmt.Errorf("required environment variable %s is not set", key)
	}
	*target = value
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvStringSlice(target *[]string, key string, defaultValue []string) error {
	if value := os.Getenv(key); value != "" {
		*target = strings.Split(value, ",")
		for i, v := range *target {
			(*target)[i] = strings.TrimSpace(v)
		}
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errors = append(errors, "HTTP_PORT must be between 1 and 65535")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	// HS256 keys shorter than the hash output weaken the signature
	if len(c.JWTSecret) < 32 {
		errors = append(errors, "JWT_SECRET should be at least 32 characters long")
	}

	if c.AccessTokenTTL <= 0 {
		errors = append(errors, "ACCESS_TOKEN_TTL must be positive")
	}
	if c.ConfirmationCodeTTL <= 0 {
		errors = append(errors, "CONFIRMATION_CODE_TTL must be positive")
	}
	if c.RequestTimeout <= 0 {
		errors = append(errors, "REQUEST_TIMEOUT must be positive")
	}
	if c.AuthRateLimit < 1 {
		errors = append(errors, "AUTH_RATE_LIMIT must be at least 1")
	}
	if c.MailMaxRetries < 0 {
		errors = append(errors, "MAIL_MAX_RETRIES must not be negative")
	}
	if c.MailRatePerSecond <= 0 {
		errors = append(errors, "MAIL_RATE_PER_SECOND must be positive")
	}
	if c.MailFrom == "" {
		errors = append(errors, "MAIL_FROM must not be empty")
	}
	for _, p := range c.TrustedProxies {
		if !validProxy(p) {
			errors = append(errors, fmt.Sprintf("TRUSTED_PROXIES entry %q is not an IP or CIDR", p))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// SMTPAddr returns host:port of the mail relay, or "" when mail is logged instead of sent.
func (c *Config) SMTPAddr() string {
	if c.SMTPHost == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.SMTPHost, c.SMTPPort)
}

func validProxy(p string) bool {
	if net.ParseIP(p) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(p)
	return err == nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
