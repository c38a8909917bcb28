package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubDotEnv(t *testing.T, fn func() error) {
	t.Helper()
	orig := loadDotEnv
	loadDotEnv = fn
	t.Cleanup(func() { loadDotEnv = orig })
}

func TestParseEnv_Variables(t *testing.T) {
	stubDotEnv(t, func() error { return nil })

	t.Setenv("DATABASE_DSN", "postgres://u:p@db:5432/asthma")
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("ALGORITHM", "HS384")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "30")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,,")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "postgres://u:p@db:5432/asthma", c.DatabaseDSN)
	assert.Equal(t, "from-env", c.SecretKey)
	assert.Equal(t, "HS384", c.SigningAlgorithm)
	assert.Equal(t, 30*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, ":9000", c.HTTPAddr)
	assert.Equal(t, StorageS3, c.StorageBackend)
	assert.Equal(t, "g-key", c.GeminiAPIKey)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.CORSAllowedOrigins)
}

func TestParseEnv_DSNFromParts(t *testing.T) {
	stubDotEnv(t, func() error { return nil })

	t.Setenv("DATABASE_DSN", "")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_NAME", "asthma")
	t.Setenv("DB_USER", "asthma")
	t.Setenv("DB_PASSWORD", "p@ss")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "postgres://asthma:p%40ss@pg:5432/asthma?sslmode=disable", c.DatabaseDSN)
}

func TestParseEnv_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SECRET_KEY=dotenv-secret\nGEMINI_MODEL=gemini-test\n"), 0o600))
	stubDotEnv(t, func() error { return godotenv.Load(path) })

	// godotenv.Load writes straight into the process environment
	t.Cleanup(func() {
		_ = os.Unsetenv("SECRET_KEY")
		_ = os.Unsetenv("GEMINI_MODEL")
	})

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "dotenv-secret", c.SecretKey)
	assert.Equal(t, "gemini-test", c.GeminiModel)
}

func TestParseEnv_EnvironmentWinsOverDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SECRET_KEY=dotenv-secret\n"), 0o600))
	stubDotEnv(t, func() error { return godotenv.Load(path) })
	t.Setenv("SECRET_KEY", "process-secret")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, "process-secret", c.SecretKey)
}

func TestParseEnv_BadMinutesPanics(t *testing.T) {
	stubDotEnv(t, func() error { return nil })
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "fifteen")

	var c Config
	c.LoadDefaults()
	require.Panics(t, func() { parseEnv(&c) })
}
