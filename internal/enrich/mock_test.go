package enrich

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/vc-enrich/internal/extract"
	"github.com/sells-group/vc-enrich/internal/model"
	"github.com/sells-group/vc-enrich/internal/scrape"
)

// countingFetcher returns a fixed page and counts calls.
type countingFetcher struct {
	page  scrape.Page
	calls atomic.Int32
}

func (f *countingFetcher) Fetch(_ context.Context, website string) scrape.Page {
	f.calls.Add(1)
	p := f.page
	p.URL = scrape.NormalizeURL(website)
	return p
}

// mockExtractor is a testify mock of Extractor.
type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, companyName, text string) (*extract.Extraction, error) {
	args := m.Called(ctx, companyName, text)
	if v := args.Get(0); v != nil {
		return v.(*extract.Extraction), args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeCompleter replays a canned model reply.
type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Name() string           { return "fake" }
func (f *fakeCompleter) SupportsJSONMode() bool { return false }

func (f *fakeCompleter) Complete(_ context.Context, _ extract.CompletionRequest) (*extract.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &extract.Completion{Text: f.reply}, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// failingStore errors on every operation.
type failingStore struct{ err error }

func (s failingStore) Get(context.Context, string) (*model.EnrichmentResult, bool, error) {
	return nil, false, s.err
}
func (s failingStore) Put(context.Context, string, *model.EnrichmentResult) error { return s.err }
func (s failingStore) Evict(context.Context, string) error                       { return s.err }
func (s failingStore) Close() error                                              { return nil }
