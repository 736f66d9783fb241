package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("DB_USER", "storefront")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "storefront")
	t.Setenv("JWT_SECRET", "test-signing-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 10, cfg.DB.MaxSize)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTokenDuration)
	assert.Equal(t, 24*time.Hour, cfg.Auth.VerifyTokenDuration)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenDuration)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:8000", "http://localhost:5173"}, cfg.Server.CORSOrigins)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setBaseEnv(t)
	unsetEnv(t, "DB_USER")
	unsetEnv(t, "JWT_SECRET")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadConfigAggregatesParseErrors(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("JWT_ACCESS_TOKEN_DURATION", "soon")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PORT")
	assert.Contains(t, err.Error(), "JWT_ACCESS_TOKEN_DURATION")
}

func TestLoadConfigPoolSizeClamped(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_POOL_SIZE", "1000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.DB.MaxSize)
}

func TestLoadConfigCORSOriginsTrimmed(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CORS_ORIGINS", "https://shop.example.com , https://admin.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
}

// unsetEnv removes a variable for the duration of the test. t.Setenv is
// called first so the original value is restored on cleanup.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}
