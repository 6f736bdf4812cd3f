package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Completion providers selectable with ai.provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Cache drivers selectable with cache.driver.
const (
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	AI        AIConfig        `yaml:"ai" mapstructure:"ai"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// FetchConfig configures the website fetcher.
type FetchConfig struct {
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	CharBudget   int     `yaml:"char_budget" mapstructure:"char_budget"`
	MaxBodyBytes int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HostRPS      float64 `yaml:"host_rps" mapstructure:"host_rps"`
}

// Timeout returns the fetch bound as a duration.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// AIConfig configures the completion call shared by all providers.
type AIConfig struct {
	Provider         string  `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Temperature      float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens        int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// Timeout returns the completion bound as a duration.
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CacheConfig configures the enrichment result cache.
type CacheConfig struct {
	Driver            string `yaml:"driver" mapstructure:"driver"`
	TTLSecs           int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	DSN               string `yaml:"dsn" mapstructure:"dsn"`
	RedisAddr         string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword     string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB           int    `yaml:"redis_db" mapstructure:"redis_db"`
	PurgeIntervalSecs int    `yaml:"purge_interval_secs" mapstructure:"purge_interval_secs"`
}

// TTL returns the cache freshness window as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// PurgeInterval returns how often serve purges SQL backends. Zero disables it.
func (c CacheConfig) PurgeInterval() time.Duration {
	return time.Duration(c.PurgeIntervalSecs) * time.Second
}

// EnrichConfig configures the pipeline itself.
type EnrichConfig struct {
	Coalesce bool `yaml:"coalesce" mapstructure:"coalesce"`
}

// CompletionKey returns the API key of the selected completion provider.
func (c *Config) CompletionKey() string {
	switch strings.ToLower(c.AI.Provider) {
	case ProviderGemini:
		return c.Gemini.Key
	default:
		return c.Anthropic.Key
	}
}

// CompletionModel returns the model id of the selected completion provider.
func (c *Config) CompletionModel() string {
	switch strings.ToLower(c.AI.Provider) {
	case ProviderGemini:
		return c.Gemini.Model
	default:
		return c.Anthropic.Model
	}
}

// Validate checks enum-valued settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.AI.Provider) {
	case ProviderAnthropic, ProviderGemini:
	default:
		return eris.Errorf("config: unknown ai.provider %q", c.AI.Provider)
	}
	switch strings.ToLower(c.Cache.Driver) {
	case CacheMemory, CacheRedis, CacheSQLite, CachePostgres:
	default:
		return eris.Errorf("config: unknown cache.driver %q", c.Cache.Driver)
	}
	if c.Cache.TTLSecs <= 0 {
		return eris.New("config: cache.ttl_secs must be positive")
	}
	return nil
}

// Load reads configuration from .env, config.yaml and VCENRICH_* variables.
func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VCENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one so AutomaticEnv can bind it on Unmarshal.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fetch.timeout_secs", 10)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; VCIntelBot/1.0; +https://vc-enrich.dev/bot)")
	v.SetDefault("fetch.char_budget", 15000)
	v.SetDefault("fetch.max_body_bytes", 2<<20)
	v.SetDefault("fetch.host_rps", 2.0)
	v.SetDefault("ai.provider", ProviderAnthropic)
	v.SetDefault("ai.timeout_secs", 30)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max_tokens", 1000)
	v.SetDefault("ai.breaker_threshold", 5)
	v.SetDefault("ai.breaker_reset_secs", 30)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("cache.driver", CacheMemory)
	v.SetDefault("cache.ttl_secs", 3600)
	v.SetDefault("cache.dsn", "")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.purge_interval_secs", 900)
	v.SetDefault("enrich.coalesce", false)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
