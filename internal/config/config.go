package config

import (
	"errors"  // For validation errors
	"fmt"     // For error formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// MinJWTSecretLength is the shortest signing secret the server accepts
const MinJWTSecretLength = 32

// Config holds the application configuration
type Config struct {
	AppPort           string // Application port
	DBDriver          string // Database driver: mysql or sqlite
	DBUser            string // Database user
	DBPassword        string // Database password
	DBHost            string // Database host
	DBPort            string // Database port
	DBName            string // Database name
	DBPath            string // SQLite file path
	JWTSecret         string // JWT secret key
	JWTIssuer         string // JWT issuer claim
	JWTAudience       string // JWT audience claim
	JWTExpiresMinutes int    // Access token lifetime in minutes
	JWTRefreshDays    int    // Refresh token lifetime in days
	RedisAddr         string // Redis server address, empty disables caching
	RedisPass         string // Redis password
	RedisDB           int    // Redis database number
	IsProd            bool   // Is production environment
	DebugErrors       bool   // Include diagnostic details in error responses
	SeedData          bool   // Seed demo data after migration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:           getEnv("APP_PORT", "8080"),                 // Application port
		DBDriver:          getEnv("DB_DRIVER", "mysql"),               // Database driver
		DBUser:            os.Getenv("DB_USER"),                       // Database user
		DBPassword:        os.Getenv("DB_PASSWORD"),                   // Database password
		DBHost:            getEnv("DB_HOST", "127.0.0.1"),             // Database host
		DBPort:            getEnv("DB_PORT", "3306"),                  // Database port
		DBName:            os.Getenv("DB_NAME"),                       // Database name
		DBPath:            getEnv("DB_PATH", "finance.db"),            // SQLite file path
		JWTSecret:         os.Getenv("JWT_SECRET"),                    // JWT secret key
		JWTIssuer:         getEnv("JWT_ISSUER", "personal-finance"),   // JWT issuer
		JWTAudience:       getEnv("JWT_AUDIENCE", "personal-finance"), // JWT audience
		JWTExpiresMinutes: getInt("JWT_EXPIRES_MINUTES", 60),          // Access token lifetime
		JWTRefreshDays:    getInt("JWT_REFRESH_DAYS", 7),              // Refresh token lifetime
		RedisAddr:         os.Getenv("REDIS_ADDR"),                    // Redis server address
		RedisPass:         os.Getenv("REDIS_PASS"),                    // Redis password
		RedisDB:           getInt("REDIS_DB", 0),                      // Redis database number
		IsProd:            os.Getenv("IS_PROD") == "true",             // Is production environment
		DebugErrors:       os.Getenv("DEBUG_ERRORS") == "true",        // Diagnostic error bodies
		SeedData:          os.Getenv("SEED_DATA") == "true",           // Seed demo data
	}
}

// Validate checks the settings the server cannot run without
func (c *Config) Validate() error {
	if len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", MinJWTSecretLength)
	}
	if c.JWTExpiresMinutes <= 0 || c.JWTRefreshDays <= 0 {
		return errors.New("JWT_EXPIRES_MINUTES and JWT_REFRESH_DAYS must be positive")
	}
	switch c.DBDriver {
	case "mysql":
		if c.DBName == "" {
			return errors.New("DB_NAME is required for the mysql driver")
		}
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// DSN builds the Data Source Name for the configured driver
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.DBPath
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&loc=UTC"
}

// getEnv returns the variable or a fallback when unset
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getInt returns the variable as int or a fallback when unset or malformed
func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
