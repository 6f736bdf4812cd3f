package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout())
	assert.Equal(t, 15000, cfg.Fetch.CharBudget)
	assert.Equal(t, int64(2<<20), cfg.Fetch.MaxBodyBytes)
	assert.Contains(t, cfg.Fetch.UserAgent, "VCIntelBot/1.0")
	assert.Equal(t, ProviderAnthropic, cfg.AI.Provider)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout())
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 0.001)
	assert.Equal(t, 1000, cfg.AI.MaxTokens)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, CacheMemory, cfg.Cache.Driver)
	assert.Equal(t, time.Hour, cfg.Cache.TTL())
	assert.Equal(t, 15*time.Minute, cfg.Cache.PurgeInterval())
	assert.False(t, cfg.Enrich.Coalesce)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
  cors_origins:
    - https://dash.example.com
ai:
  provider: gemini
cache:
  driver: sqlite
  dsn: cache.db
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://dash.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, CacheSQLite, cfg.Cache.Driver)
	assert.Equal(t, "cache.db", cfg.Cache.DSN)
	// Defaults still apply for unset values
	assert.Equal(t, 15000, cfg.Fetch.CharBudget)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
cache:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("VCENRICH_CACHE_DRIVER", "redis")
	t.Setenv("VCENRICH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvKeys(t *testing.T) {
	chdirTemp(t)

	t.Setenv("VCENRICH_ANTHROPIC_KEY", "sk-ant-test")
	t.Setenv("VCENRICH_SERVER_PORT", "3000")
	t.Setenv("VCENRICH_ENRICH_COALESCE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.True(t, cfg.Enrich.Coalesce)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("VCENRICH_GEMINI_KEY=from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("VCENRICH_GEMINI_KEY") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Gemini.Key)
}

func TestCompletionKeyAndModel(t *testing.T) {
	cfg := &Config{
		Anthropic: AnthropicConfig{Key: "ant", Model: "claude"},
		Gemini:    GeminiConfig{Key: "gem", Model: "gemini"},
	}

	cfg.AI.Provider = ProviderAnthropic
	assert.Equal(t, "ant", cfg.CompletionKey())
	assert.Equal(t, "claude", cfg.CompletionModel())

	cfg.AI.Provider = "Gemini"
	assert.Equal(t, "gem", cfg.CompletionKey())
	assert.Equal(t, "gemini", cfg.CompletionModel())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AI:    AIConfig{Provider: ProviderAnthropic},
			Cache: CacheConfig{Driver: CacheMemory, TTLSecs: 3600},
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.AI.Provider = "openai"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai.provider")

	cfg = valid()
	cfg.Cache.Driver = "memcached"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.driver")

	cfg = valid()
	cfg.Cache.TTLSecs = 0
	assert.Error(t, cfg.Validate())
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
