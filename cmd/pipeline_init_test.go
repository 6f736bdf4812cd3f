package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vc-enrich/internal/config"
	"github.com/sells-group/vc-enrich/internal/extract"
)

func testConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			Provider:    config.ProviderAnthropic,
			TimeoutSecs: 30,
			Temperature: 0.7,
			MaxTokens:   1000,
		},
		Anthropic: config.AnthropicConfig{Model: "claude-haiku-4-5-20251001"},
		Gemini:    config.GeminiConfig{Model: "gemini-2.5-flash"},
		Cache:     config.CacheConfig{Driver: config.CacheMemory, TTLSecs: 3600},
		Fetch:     config.FetchConfig{TimeoutSecs: 10},
	}
}

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestNewCompleter_NoKey(t *testing.T) {
	c, err := newCompleter(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNewCompleter_Anthropic(t *testing.T) {
	c := testConfig()
	c.Anthropic.Key = "sk-test"

	got, err := newCompleter(context.Background(), c)
	require.NoError(t, err)
	_, ok := got.(*extract.AnthropicCompleter)
	assert.True(t, ok)
}

func TestNewCompleter_Gemini(t *testing.T) {
	c := testConfig()
	c.AI.Provider = config.ProviderGemini
	c.Gemini.Key = "gm-test"
	c.Anthropic.Key = "sk-unused"

	got, err := newCompleter(context.Background(), c)
	require.NoError(t, err)
	_, ok := got.(*extract.GeminiCompleter)
	assert.True(t, ok)
}

func TestInitPipeline_Unconfigured(t *testing.T) {
	withConfig(t, testConfig())

	env, err := initPipeline(context.Background())
	require.NoError(t, err)
	defer env.Close()

	assert.False(t, env.Service.Configured())
	assert.NotNil(t, env.Cache)
}

func TestInitPipeline_Configured(t *testing.T) {
	c := testConfig()
	c.Anthropic.Key = "sk-test"
	withConfig(t, c)

	env, err := initPipeline(context.Background())
	require.NoError(t, err)
	defer env.Close()

	assert.True(t, env.Service.Configured())
}

func TestInitPipeline_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.Cache.Driver = "memcached"
	withConfig(t, c)

	_, err := initPipeline(context.Background())
	assert.Error(t, err)
}
