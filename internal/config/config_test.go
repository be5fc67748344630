package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearDispatcherEnv(t *testing.T) {
	for _, k := range []string{
		"CONFIG_FILE", "LISTEN_ADDR", "STORE_PATH", "LOG_LEVEL", "ENV",
		"LOCK_GC_INTERVAL", "RECONCILE_INTERVAL", "RATE_LIMIT_RPS",
		"RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS", "JWT_SECRET",
		"JWT_AUDIENCE", "JWT_NAME_CLAIM", "JWT_ADMIN_CLAIM",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearDispatcherEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "metacat.sqlite", cfg.StorePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.LockGCInterval)
	assert.Equal(t, 10*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Contains(t, cfg.Warnings, "JWT_SECRET not set — the HTTP façade will reject all bearer tokens")
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	clearDispatcherEnv(t)
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("STORE_PATH", "/tmp/test.sqlite")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOCK_GC_INTERVAL", "1m")
	t.Setenv("RECONCILE_INTERVAL", "30s")
	t.Setenv("RATE_LIMIT_RPS", "50")
	t.Setenv("RATE_LIMIT_BURST", "100")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("JWT_SECRET", "shh")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.sqlite", cfg.StorePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.LockGCInterval)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
	assert.InEpsilon(t, 50.0, cfg.RateLimitRPS, 0.001)
	assert.Equal(t, 100, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "shh", cfg.Auth.JWTSecret)
	assert.Empty(t, cfg.Warnings)
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]int{
		"debug": -4,
		"info":  0,
		"warn":  4,
		"error": 8,
		"":      0,
	}
	for level, want := range cases {
		cfg := &Config{LogLevel: level}
		assert.Equal(t, want, int(cfg.SlogLevel()))
	}
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{Env: "production"}).IsProduction())
	assert.True(t, (&Config{Env: "PRODUCTION"}).IsProduction())
	assert.False(t, (&Config{Env: "development"}).IsProduction())
	assert.False(t, (&Config{}).IsProduction())
}

func TestLoadFromEnv_ProductionRequiresJWTSecret(t *testing.T) {
	clearDispatcherEnv(t)
	t.Setenv("ENV", "production")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadFromEnv_ProductionRejectsWildcardCORS(t *testing.T) {
	clearDispatcherEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "shh")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS")
}

func TestLoadFromEnv_YAMLOverlay(t *testing.T) {
	clearDispatcherEnv(t)

	tmpDir := t.TempDir()
	cfgFile := filepath.Join(tmpDir, "dispatcher.yaml")
	contents := "listen_addr: \":7000\"\nstore_path: \"/data/meta.sqlite\"\nlog_level: \"warn\"\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(contents), 0o644))

	t.Setenv("CONFIG_FILE", cfgFile)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, "/data/meta.sqlite", cfg.StorePath)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadFromEnv_EnvOverridesYAML(t *testing.T) {
	clearDispatcherEnv(t)

	tmpDir := t.TempDir()
	cfgFile := filepath.Join(tmpDir, "dispatcher.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("listen_addr: \":7000\"\n"), 0o644))

	t.Setenv("CONFIG_FILE", cfgFile)
	t.Setenv("LISTEN_ADDR", ":9999")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	err := LoadDotEnv("/nonexistent/.env")
	assert.NoError(t, err, "missing .env should not be an error")
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TEST_KEY=test_value\n"), 0o644))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "test_value", os.Getenv("TEST_KEY"))
	_ = os.Unsetenv("TEST_KEY")
}

func TestLoadDotEnv_SkipsComments(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("# comment\nTEST_COMMENT_KEY=value\n"), 0o644))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "value", os.Getenv("TEST_COMMENT_KEY"))
	_ = os.Unsetenv("TEST_COMMENT_KEY")
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("TEST_PRECEDENCE_KEY", "from_env")

	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TEST_PRECEDENCE_KEY=from_file\n"), 0o644))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "from_env", os.Getenv("TEST_PRECEDENCE_KEY"))
}
