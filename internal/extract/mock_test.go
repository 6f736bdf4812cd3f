package extract

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/vc-enrich/pkg/anthropic"
	"github.com/sells-group/vc-enrich/pkg/gemini"
)

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// --- Gemini Mock ---

type mockGeminiClient struct {
	mock.Mock
}

func (m *mockGeminiClient) GenerateJSON(ctx context.Context, req gemini.GenerateRequest) (*gemini.GenerateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gemini.GenerateResponse), args.Error(1)
}

// --- Fake Completer ---

// fakeCompleter replays a fixed reply or error and records requests.
type fakeCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	jsonMode bool
	block    bool
	requests []CompletionRequest
}

func (f *fakeCompleter) Name() string           { return "fake" }
func (f *fakeCompleter) SupportsJSONMode() bool { return f.jsonMode }

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Completion{Text: f.reply}, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}
