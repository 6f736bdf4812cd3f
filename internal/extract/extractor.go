// Package extract turns website text into a structured company summary with
// a language model.
package extract

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/vc-enrich/internal/resilience"
)

// Default completion settings.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
	DefaultTimeout     = 30 * time.Second
)

// Options configures an Extractor.
type Options struct {
	Model string
	// Temperature is sent as given, including zero.
	Temperature float64
	MaxTokens   int
	// Timeout bounds each completion call. Zero uses DefaultTimeout; a
	// negative value disables the bound.
	Timeout time.Duration
	// Breaker guards the completion service. Nil disables it.
	Breaker *resilience.CircuitBreaker
	Now     func() time.Time
}

// Extractor asks a Completer for a structured company summary.
type Extractor struct {
	completer Completer
	opts      Options
}

// DefaultOptions returns the standard sampling and timeout settings.
func DefaultOptions() Options {
	return Options{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
	}
}

// New creates an Extractor.
func New(c Completer, opts Options) *Extractor {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Extractor{completer: c, opts: opts}
}

// Extract sends one completion request for companyName and parses the reply.
// Failures are returned as *ExtractionError.
func (e *Extractor) Extract(ctx context.Context, companyName, text string) (*Extraction, error) {
	log := zap.L().With(
		zap.String("company", companyName),
		zap.String("provider", e.completer.Name()),
		zap.String("model", e.opts.Model),
	)

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	req := CompletionRequest{
		Model:       e.opts.Model,
		System:      systemPrompt,
		Prompt:      BuildPrompt(companyName, text),
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
		JSONMode:    true,
	}

	start := time.Now()
	completion, err := e.complete(ctx, req)
	if err != nil {
		xerr := classify(err)
		log.Warn("extract: completion failed",
			zap.String("kind", xerr.Kind.String()),
			zap.Error(err),
		)
		return nil, xerr
	}

	result, err := parseExtraction(completion.Text, e.completer.SupportsJSONMode(), e.opts.Now())
	if err != nil {
		log.Warn("extract: unparseable reply",
			zap.Int("reply_len", len(completion.Text)),
			zap.Error(err),
		)
		return nil, &ExtractionError{Kind: KindParseFailure, Err: err}
	}

	log.Info("extract: complete",
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.Int("keywords", len(result.Keywords)),
		zap.Int("signals", len(result.Signals)),
	)
	return result, nil
}

func (e *Extractor) complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if e.opts.Breaker == nil {
		return e.completer.Complete(ctx, req)
	}
	return resilience.ExecuteVal(ctx, e.opts.Breaker, func(ctx context.Context) (*Completion, error) {
		return e.completer.Complete(ctx, req)
	})
}

// classify maps a completion failure to an ExtractionError. Credential
// rejection wins over timeout; everything else is service unavailability.
func classify(err error) *ExtractionError {
	var pe *ProviderError
	if errors.As(err, &pe) && resilience.IsAuthStatus(pe.StatusCode) {
		return &ExtractionError{Kind: KindAuthFailure, Err: err}
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return &ExtractionError{Kind: KindServiceUnavailable, Err: err}
	}
	if resilience.IsTimeout(err) {
		return &ExtractionError{Kind: KindTimeout, Err: err}
	}
	if resilience.LooksLikeAuthFailure(err) {
		return &ExtractionError{Kind: KindAuthFailure, Err: err}
	}
	return &ExtractionError{Kind: KindServiceUnavailable, Err: err}
}
