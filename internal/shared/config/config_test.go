package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PREMIUM_PERIOD", "ASSET_CLEANUP_STRICT", "JWT_SECRET", "ENV", "OBJECT_STORE", "MAX_IMAGE_BYTES"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "local", cfg.ObjectStoreType)
	assert.Equal(t, 90*24*time.Hour, cfg.PremiumPeriod)
	assert.True(t, cfg.AssetCleanupStrict)
	assert.Equal(t, "dev-secret", cfg.JWTSecret)
	assert.Equal(t, int64(5<<20), cfg.MaxImageBytes)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "prod")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("PREMIUM_PERIOD", "48h")
	t.Setenv("ASSET_CLEANUP_STRICT", "false")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "s3", cfg.ObjectStoreType)
	assert.Equal(t, 48*time.Hour, cfg.PremiumPeriod)
	assert.False(t, cfg.AssetCleanupStrict)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigin)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PREMIUM_PERIOD", "ninety days")

	cfg := Load()

	assert.Equal(t, 90*24*time.Hour, cfg.PremiumPeriod)
}

func TestEnvFileDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("S3_BUCKET=from-file\nS3_PREFIX=file-prefix\n"), 0o600))
	t.Setenv("S3_BUCKET", "from-env")
	t.Setenv("S3_PREFIX", "")
	os.Unsetenv("S3_PREFIX")

	cfg := Load()

	assert.Equal(t, "from-env", cfg.S3Bucket)
	assert.Equal(t, "file-prefix", cfg.S3Prefix)
}
