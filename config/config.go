// Package config provides configuration management for the storefront
// application. All settings come from environment variables; required
// variables, defaults, and parse failures are validated in one pass and
// reported collectively so a misconfigured deployment fails fast with the
// full list of problems.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// PoolConfig represents configuration for the database connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// AuthConfig holds token signing and lifetime configuration.
type AuthConfig struct {
	JWTSecret            string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	VerifyTokenDuration  time.Duration
	ResetTokenDuration   time.Duration
}

// MailConfig holds the SMTP transport credentials used for verification
// and password-reset mail.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string
	BaseURL     string   // public base URL embedded in emailed links
	CORSOrigins []string // allowed origins for the CORS middleware
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	DB     *PoolConfig
	Auth   *AuthConfig
	Mail   *MailConfig
	Server *ServerConfig
}

// getRequiredEnv reads a required environment variable, recording an error
// when it is missing.
func getRequiredEnv(key string, errs *error) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		*errs = multierror.Append(*errs, fmt.Errorf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// getOptionalEnv reads an optional environment variable with a default.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getOptionalEnvInt reads an optional integer variable. The default is used
// when the variable is unset; a parse failure is recorded as an error.
func getOptionalEnvInt(key string, defaultValue int, errs *error) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("invalid value for %s: expected integer, got %q: %w", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// getOptionalEnvDuration reads an optional duration variable ("15m", "24h").
func getOptionalEnvDuration(key string, defaultValue time.Duration, errs *error) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("invalid value for %s: expected duration string, got %q: %w", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// clampPoolSize keeps the connection pool size within sane bounds.
func clampPoolSize(size int) int {
	if size < 2 {
		return 2
	}
	if size > 100 {
		return 100
	}
	return size
}

// LoadConfig creates and returns an AppConfig by reading and validating
// environment variables. All problems encountered are aggregated into a
// single returned error.
func LoadConfig() (*AppConfig, error) {
	var errs error

	// Database
	dbUser := getRequiredEnv("DB_USER", &errs)
	dbPassword := getRequiredEnv("DB_PASSWORD", &errs)
	dbName := getRequiredEnv("DB_NAME", &errs)
	dbHost := getOptionalEnv("DB_HOST", "localhost")
	dbPort := getOptionalEnvInt("DB_PORT", 5432, &errs)
	poolSize := clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errs))

	dbConfig := &PoolConfig{
		Host:     dbHost,
		Port:     dbPort,
		User:     dbUser,
		Password: dbPassword,
		DBName:   dbName,
		MaxSize:  poolSize,
	}

	// Auth
	authConfig := &AuthConfig{
		JWTSecret:            getRequiredEnv("JWT_SECRET", &errs),
		AccessTokenDuration:  getOptionalEnvDuration("JWT_ACCESS_TOKEN_DURATION", time.Hour, &errs),
		RefreshTokenDuration: getOptionalEnvDuration("JWT_REFRESH_TOKEN_DURATION", 168*time.Hour, &errs), // 7 days
		VerifyTokenDuration:  getOptionalEnvDuration("VERIFY_TOKEN_DURATION", 24*time.Hour, &errs),
		ResetTokenDuration:   getOptionalEnvDuration("RESET_TOKEN_DURATION", time.Hour, &errs),
	}

	// Mail. Credentials are optional: with an empty host the mailer runs in
	// log-only mode, which keeps local development working without SMTP.
	mailConfig := &MailConfig{
		Host:     getOptionalEnv("MAIL_SERVER", ""),
		Port:     getOptionalEnvInt("MAIL_PORT", 587, &errs),
		Username: getOptionalEnv("MAIL_USERNAME", ""),
		Password: getOptionalEnv("MAIL_PASSWORD", ""),
		From:     getOptionalEnv("MAIL_FROM", "no-reply@storefront.local"),
	}

	// Server
	origins := strings.Split(getOptionalEnv("CORS_ORIGINS", "http://localhost:8000,http://localhost:5173"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	serverConfig := &ServerConfig{
		Port:        getOptionalEnv("PORT", "8080"),
		BaseURL:     getOptionalEnv("BASE_URL", "http://localhost:8080"),
		CORSOrigins: origins,
	}

	if errs != nil {
		return nil, fmt.Errorf("configuration errors: %w", errs)
	}

	return &AppConfig{
		DB:     dbConfig,
		Auth:   authConfig,
		Mail:   mailConfig,
		Server: serverConfig,
	}, nil
}
