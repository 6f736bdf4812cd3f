package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vc-enrich/internal/cache"
	"github.com/sells-group/vc-enrich/internal/config"
	"github.com/sells-group/vc-enrich/internal/enrich"
	"github.com/sells-group/vc-enrich/internal/extract"
	"github.com/sells-group/vc-enrich/internal/metrics"
	"github.com/sells-group/vc-enrich/internal/resilience"
	"github.com/sells-group/vc-enrich/internal/scrape"
	anthropicpkg "github.com/sells-group/vc-enrich/pkg/anthropic"
	"github.com/sells-group/vc-enrich/pkg/gemini"
)

// pipelineEnv holds the initialized cache and enrichment service used by
// the serve and enrich commands.
type pipelineEnv struct {
	Cache   cache.Store
	Service *enrich.Service
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Cache != nil {
		_ = pe.Cache.Close()
	}
}

// initPipeline opens the cache, builds the completion client and wires the
// enrichment service. A missing completion credential is not an error here:
// the service then answers every request with ErrNotConfigured.
// Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, eris.Wrap(err, "open cache")
	}

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var extractor enrich.Extractor
	if completer != nil {
		extractor = extract.New(completer, extract.Options{
			Model:       cfg.CompletionModel(),
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			Timeout:     cfg.AI.Timeout(),
			Breaker:     newBreaker(completer.Name()),
		})
	} else {
		zap.L().Warn("completion credential not set, enrichment requests will return 503",
			zap.String("provider", cfg.AI.Provider),
		)
	}

	fetcher := scrape.NewWebsiteFetcher(scrape.FetchOptions{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      cfg.Fetch.Timeout(),
		CharBudget:   cfg.Fetch.CharBudget,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		HostRPS:      cfg.Fetch.HostRPS,
	})

	svc := enrich.New(fetcher, extractor, store, enrich.WithCoalescing(cfg.Enrich.Coalesce))

	zap.L().Info("pipeline initialized",
		zap.String("cache", cfg.Cache.Driver),
		zap.String("provider", cfg.AI.Provider),
		zap.Bool("configured", svc.Configured()),
	)
	return &pipelineEnv{Cache: store, Service: svc}, nil
}

// newCompleter returns nil when the selected provider has no credential.
func newCompleter(ctx context.Context, c *config.Config) (extract.Completer, error) {
	key := c.CompletionKey()
	if key == "" {
		return nil, nil
	}

	switch strings.ToLower(c.AI.Provider) {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, gemini.Config{APIKey: key, BaseURL: c.Gemini.BaseURL})
		if err != nil {
			return nil, eris.Wrap(err, "init gemini client")
		}
		return extract.NewGeminiCompleter(client), nil
	default:
		return extract.NewAnthropicCompleter(anthropicpkg.NewClient(key, c.Anthropic.BaseURL)), nil
	}
}

func newBreaker(name string) *resilience.CircuitBreaker {
	bcfg := resilience.FromCircuitConfig(name, cfg.AI.BreakerThreshold, cfg.AI.BreakerResetSecs)
	bcfg.OnStateChange = func(name string, _, to resilience.CircuitState) {
		metrics.BreakerState.WithLabelValues(name).Set(float64(to))
	}
	metrics.BreakerState.WithLabelValues(name).Set(float64(resilience.CircuitClosed))
	return resilience.NewCircuitBreaker(bcfg)
}
