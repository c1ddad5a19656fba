package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DBDriver:          "sqlite",
		DBPath:            "test.db",
		JWTSecret:         strings.Repeat("s", MinJWTSecretLength),
		JWTExpiresMinutes: 60,
		JWTRefreshDays:    7,
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsShortSecret(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = strings.Repeat("s", MinJWTSecretLength-1)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.DBDriver = "oracle"
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresDatabaseNameForMySQL(t *testing.T) {
	cfg := validConfig()
	cfg.DBDriver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg.DBName = "finance"
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("JWT_EXPIRES_MINUTES", "15")
	t.Setenv("JWT_REFRESH_DAYS", "not-a-number")
	t.Setenv("DEBUG_ERRORS", "true")

	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 15, cfg.JWTExpiresMinutes)
	assert.Equal(t, 7, cfg.JWTRefreshDays)
	assert.True(t, cfg.DebugErrors)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "finance"}
	assert.Equal(t, "u:p@tcp(h:3306)/finance?parseTime=true&loc=UTC", cfg.DSN())

	cfg = &Config{DBDriver: "sqlite", DBPath: "/tmp/finance.db"}
	assert.Equal(t, "/tmp/finance.db", cfg.DSN())
}
