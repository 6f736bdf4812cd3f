// Package enrich runs the company enrichment pipeline: cache lookup, website
// fetch, deterministic signals, AI extraction, merge, thesis scoring, sources
// and cache store.
package enrich

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/vc-enrich/internal/cache"
	"github.com/sells-group/vc-enrich/internal/extract"
	"github.com/sells-group/vc-enrich/internal/metrics"
	"github.com/sells-group/vc-enrich/internal/model"
	"github.com/sells-group/vc-enrich/internal/scorer"
	"github.com/sells-group/vc-enrich/internal/scrape"
	"github.com/sells-group/vc-enrich/internal/signals"
)

var tracer = otel.Tracer("github.com/sells-group/vc-enrich/internal/enrich")

// Extractor produces the AI portion of a result.
type Extractor interface {
	Extract(ctx context.Context, companyName, text string) (*extract.Extraction, error)
}

// Service runs enrichment requests. It is safe for concurrent use.
type Service struct {
	fetcher   scrape.Fetcher
	extractor Extractor
	cache     cache.Store
	now       func() time.Time

	coalesce bool
	group    singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now for signal and source timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCoalescing collapses concurrent identical requests into one pipeline run.
func WithCoalescing(on bool) Option {
	return func(s *Service) { s.coalesce = on }
}

// New creates a Service. A nil extractor makes every request fail with
// ErrNotConfigured. A nil store falls back to an in-memory cache.
func New(fetcher scrape.Fetcher, extractor Extractor, store cache.Store, opts ...Option) *Service {
	if store == nil {
		store = cache.NewMemory()
	}
	s := &Service{
		fetcher:   fetcher,
		extractor: extractor,
		cache:     store,
		now:       time.Now,
	}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

// Configured reports whether a completion service is available.
func (s *Service) Configured() bool {
	return s.extractor != nil
}

// Enrich returns the enrichment result for req, from cache when fresh.
// Errors are ErrNotConfigured, *ValidationError or *extract.ExtractionError.
func (s *Service) Enrich(ctx context.Context, req model.EnrichmentRequest) (*model.EnrichmentResult, error) {
	if !s.Configured() {
		metrics.EnrichRequests.WithLabelValues(metrics.OutcomeNotConfigured).Inc()
		return nil, ErrNotConfigured
	}

	req = req.Normalize()
	if err := Validate(req); err != nil {
		metrics.EnrichRequests.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	key := cache.Key(req.CompanyName, req.Website)

	var (
		result *model.EnrichmentResult
		hit    bool
		err    error
	)
	if s.coalesce {
		var v any
		v, err, _ = s.group.Do(key+"\n"+req.Thesis, func() (any, error) {
			r, h, err := s.run(ctx, req, key)
			return runResult{r, h}, err
		})
		if err == nil {
			rr := v.(runResult)
			result, hit = rr.result, rr.hit
		}
	} else {
		result, hit, err = s.run(ctx, req, key)
	}

	metrics.EnrichRequests.WithLabelValues(outcome(err, hit)).Inc()
	if err != nil {
		return nil, err
	}
	return result, nil
}

type runResult struct {
	result *model.EnrichmentResult
	hit    bool
}

func (s *Service) run(ctx context.Context, req model.EnrichmentRequest, key string) (*model.EnrichmentResult, bool, error) {
	log := zap.L().With(zap.String("company", req.CompanyName), zap.String("website", req.Website))

	ctx, span := tracer.Start(ctx, "enrich.run", trace.WithAttributes(
		attribute.String("company", req.CompanyName),
		attribute.String("website", req.Website),
	))
	defer span.End()

	if cached, ok := s.lookup(ctx, key, log); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		log.Debug("enrich: cache hit")
		return cached, true, nil
	}

	page := s.fetch(ctx, req.Website)
	now := s.now()
	detected := s.detect(ctx, page, now)

	ext, err := s.extract(ctx, req.CompanyName, page.Text)
	if err != nil {
		endSpan(span, err)
		log.Warn("enrich: extraction failed", zap.Error(err))
		return nil, false, err
	}

	result := &model.EnrichmentResult{
		Summary:     ext.Summary,
		WhatTheyDo:  ext.WhatTheyDo,
		Keywords:    ext.Keywords,
		Signals:     MergeSignals(detected, ext.Signals, now),
		ThesisMatch: s.score(ctx, ext.Keywords, req.Thesis),
		Sources:     BuildSources(req.CompanyName, req.Website, now),
	}
	result.EnsureSlices()

	s.store(ctx, key, result, log)

	log.Info("enrich: completed",
		zap.Int("signals", len(result.Signals)),
		zap.Int("keywords", len(result.Keywords)),
		zap.Bool("fetched", page.Text != ""),
	)
	return result, false, nil
}

// lookup treats cache errors as misses.
func (s *Service) lookup(ctx context.Context, key string, log *zap.Logger) (*model.EnrichmentResult, bool) {
	defer metrics.ObserveStage(metrics.StageCacheGet, time.Now())

	result, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		log.Warn("enrich: cache lookup failed", zap.Error(err))
		return nil, false
	case !ok:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return result, true
}

func (s *Service) fetch(ctx context.Context, website string) scrape.Page {
	ctx, span := tracer.Start(ctx, "enrich.fetch")
	defer span.End()
	defer metrics.ObserveStage(metrics.StageFetch, time.Now())

	page := s.fetcher.Fetch(ctx, website)
	span.SetAttributes(
		attribute.String("url", page.URL),
		attribute.Int("status", page.StatusCode),
		attribute.Int("text_len", len(page.Text)),
		attribute.Int("links", len(page.Links)),
	)
	if page.Text == "" {
		metrics.FetchDegraded.Inc()
		if page.Err != nil {
			span.RecordError(page.Err)
		}
	}
	return page
}

func (s *Service) detect(ctx context.Context, page scrape.Page, now time.Time) []model.Signal {
	_, span := tracer.Start(ctx, "enrich.signals")
	defer span.End()
	defer metrics.ObserveStage(metrics.StageSignals, time.Now())

	detected := signals.Detect(signals.Corpus(page.Text, page.Links), now)
	span.SetAttributes(attribute.Int("signals", len(detected)))
	return detected
}

func (s *Service) extract(ctx context.Context, companyName, text string) (*extract.Extraction, error) {
	ctx, span := tracer.Start(ctx, "enrich.extract")
	defer span.End()
	defer metrics.ObserveStage(metrics.StageExtract, time.Now())

	ext, err := s.extractor.Extract(ctx, companyName, text)
	if err != nil {
		endSpan(span, err)
		return nil, err
	}
	return ext, nil
}

// score returns nil when no thesis was given or nothing matched.
func (s *Service) score(ctx context.Context, keywords []string, thesis string) *model.ThesisMatch {
	if thesis == "" {
		return nil
	}
	_, span := tracer.Start(ctx, "enrich.score")
	defer span.End()
	defer metrics.ObserveStage(metrics.StageScore, time.Now())

	match := scorer.ScoreThesis(keywords, thesis)
	span.SetAttributes(attribute.Int("score", match.Score))
	if match.Score == 0 {
		return nil
	}
	return &match
}

func (s *Service) store(ctx context.Context, key string, result *model.EnrichmentResult, log *zap.Logger) {
	defer metrics.ObserveStage(metrics.StageCachePut, time.Now())

	if err := s.cache.Put(ctx, key, result); err != nil {
		log.Warn("enrich: cache store failed", zap.Error(err))
	}
}

func endSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func outcome(err error, hit bool) string {
	if err == nil {
		if hit {
			return metrics.OutcomeCacheHit
		}
		return metrics.OutcomeOK
	}
	if kind, ok := extract.KindOf(err); ok {
		switch kind {
		case extract.KindAuthFailure:
			return metrics.OutcomeAuth
		case extract.KindTimeout:
			return metrics.OutcomeTimeout
		}
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeError
}
