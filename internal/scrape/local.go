package scrape

import (
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"
)

// DefaultUserAgent identifies the fetcher to the sites it visits.
const DefaultUserAgent = "Mozilla/5.0 (compatible; VCIntelBot/1.0; +https://vc-enrich.dev/bot)"

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 2 << 20
	errorBodyPeek       = 64 << 10
	// limiterSweepAt is the host count that triggers dropping idle limiters.
	limiterSweepAt = 256
)

// Page is the outcome of fetching a company website. Text is empty when the
// fetch degraded; Err then records why.
type Page struct {
	URL        string
	Text       string
	Links      []string
	StatusCode int
	Err        error
}

// Fetcher retrieves and sanitizes a company website. Implementations never
// fail the caller: problems surface as an empty Page.Text.
type Fetcher interface {
	Fetch(ctx context.Context, website string) Page
}

// FetchOptions configures a WebsiteFetcher. Zero values fall back to defaults.
type FetchOptions struct {
	UserAgent    string
	Timeout      time.Duration
	CharBudget   int
	MaxBodyBytes int64
	MaxLinks     int
	HostRPS      float64
	// Transport replaces the default dialing transport when set.
	Transport http.RoundTripper
}

// WebsiteFetcher fetches a single landing page over plain HTTP.
type WebsiteFetcher struct {
	client *http.Client
	opts   FetchOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewWebsiteFetcher creates a WebsiteFetcher with defaults applied to opts.
func NewWebsiteFetcher(opts FetchOptions) *WebsiteFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.CharBudget == 0 {
		opts.CharBudget = DefaultCharBudget
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.MaxLinks <= 0 {
		opts.MaxLinks = DefaultMaxLinks
	}

	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
		}
	}

	return &WebsiteFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// NormalizeURL prefixes https:// when website carries no scheme.
func NormalizeURL(website string) string {
	w := strings.TrimSpace(website)
	lower := strings.ToLower(w)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return w
	}
	return "https://" + w
}

// Fetch retrieves website and returns its sanitized text. Network errors,
// timeouts and non-2xx statuses are logged and yield an empty Text.
func (f *WebsiteFetcher) Fetch(ctx context.Context, website string) Page {
	target := NormalizeURL(website)
	page := Page{URL: target}
	log := zap.L().With(zap.String("url", target))

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	if err := f.limiterFor(target).Wait(ctx); err != nil {
		page.Err = eris.Wrap(err, "fetch: rate limit wait")
		log.Warn("fetch: degraded", zap.Error(page.Err))
		return page
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		page.Err = eris.Wrap(err, "fetch: create request")
		log.Warn("fetch: degraded", zap.Error(page.Err))
		return page
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		page.Err = eris.Wrap(err, "fetch: request")
		log.Warn("fetch: degraded", zap.Error(page.Err))
		return page
	}
	defer func() { _ = resp.Body.Close() }()

	page.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		peek, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyPeek))
		page.Err = eris.Errorf("fetch: status %d", resp.StatusCode)
		fields := []zap.Field{zap.Int("status", resp.StatusCode), zap.Error(page.Err)}
		if bt := DetectBlock(resp, peek); bt != BlockNone {
			fields = append(fields, zap.String("block_type", string(bt)))
		}
		log.Warn("fetch: degraded", fields...)
		return page
	}

	body, err := decodeBody(resp, f.opts.MaxBodyBytes)
	if err != nil {
		page.Err = err
		log.Warn("fetch: degraded", zap.Error(err))
		return page
	}

	page.Links = ExtractLinks(body, f.opts.MaxLinks)
	page.Text = Sanitize(body, f.opts.CharBudget)

	log.Debug("fetch: page retrieved",
		zap.Int("status", resp.StatusCode),
		zap.Int("text_len", len(page.Text)),
		zap.Int("links", len(page.Links)),
	)
	return page
}

// limiterFor returns the per-host limiter for target. A non-positive
// HostRPS disables limiting.
func (f *WebsiteFetcher) limiterFor(target string) *rate.Limiter {
	if f.opts.HostRPS <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}

	host := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		if len(f.limiters) >= limiterSweepAt {
			f.sweepIdleLimiters()
		}
		l = rate.NewLimiter(rate.Limit(f.opts.HostRPS), 1)
		f.limiters[host] = l
	}
	return l
}

// sweepIdleLimiters drops limiters whose bucket has refilled. A full bucket
// behaves exactly like a new limiter, so forgetting it changes nothing.
// Callers hold f.mu.
func (f *WebsiteFetcher) sweepIdleLimiters() {
	now := time.Now()
	for host, l := range f.limiters {
		if l.TokensAt(now) >= float64(l.Burst()) {
			delete(f.limiters, host)
		}
	}
}

// decodeBody reads at most limit bytes and converts them to UTF-8 using the
// charset declared in Content-Type. Unknown charsets pass through unchanged.
func decodeBody(resp *http.Response, limit int64) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", eris.Wrap(err, "fetch: read body")
	}

	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return string(raw), nil
	}
	charset := params["charset"]
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return string(raw), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(raw), nil
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw), nil
	}
	return string(decoded), nil
}
