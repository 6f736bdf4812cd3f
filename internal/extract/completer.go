package extract

import (
	"context"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/vc-enrich/pkg/anthropic"
	"github.com/sells-group/vc-enrich/pkg/gemini"
)

// CompletionRequest is one prompt sent to a language model.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSONMode asks the provider to constrain output to a JSON object when it can.
	JSONMode bool
}

// Completion is the raw model reply.
type Completion struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Completer sends prompts to a completion service.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	// SupportsJSONMode reports whether replies are guaranteed bare JSON.
	SupportsJSONMode() bool
	Name() string
}

// ProviderError carries the HTTP status a provider reported, if any.
type ProviderError struct {
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string { return e.Err.Error() }

func (e *ProviderError) Unwrap() error { return e.Err }

// AnthropicCompleter adapts an anthropic.Client. Claude has no JSON-object
// mode, so replies may wrap the object in prose or code fences.
type AnthropicCompleter struct {
	client anthropic.Client
}

// NewAnthropicCompleter creates an AnthropicCompleter.
func NewAnthropicCompleter(client anthropic.Client) *AnthropicCompleter {
	return &AnthropicCompleter{client: client}
}

func (c *AnthropicCompleter) Name() string           { return "anthropic" }
func (c *AnthropicCompleter) SupportsJSONMode() bool { return false }

// Complete sends req as a single user message.
func (c *AnthropicCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	temp := req.Temperature
	msgReq := anthropic.MessageRequest{
		Model:       req.Model,
		MaxTokens:   int64(req.MaxTokens),
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	}
	if req.System != "" {
		msgReq.System = []anthropic.SystemBlock{{Text: req.System}}
	}

	resp, err := c.client.CreateMessage(ctx, msgReq)
	if err != nil {
		return nil, &ProviderError{StatusCode: anthropic.StatusCode(err), Err: err}
	}
	resp.Usage.LogCost(req.Model, "extract")

	return &Completion{
		Text:         resp.Text(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

// GeminiCompleter adapts a gemini.Client using structured JSON output.
type GeminiCompleter struct {
	client gemini.Client
}

// NewGeminiCompleter creates a GeminiCompleter.
func NewGeminiCompleter(client gemini.Client) *GeminiCompleter {
	return &GeminiCompleter{client: client}
}

func (c *GeminiCompleter) Name() string           { return "gemini" }
func (c *GeminiCompleter) SupportsJSONMode() bool { return true }

// Complete sends req with the extraction response schema attached.
func (c *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	temp := float32(req.Temperature)
	genReq := gemini.GenerateRequest{
		Model:           req.Model,
		System:          req.System,
		Prompt:          req.Prompt,
		Temperature:     &temp,
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.JSONMode {
		genReq.Schema = extractionSchema
	}

	resp, err := c.client.GenerateJSON(ctx, genReq)
	if err != nil {
		return nil, &ProviderError{StatusCode: gemini.StatusCode(err), Err: err}
	}
	if resp == nil {
		return nil, eris.New("gemini: empty response")
	}
	resp.Usage.LogCost(req.Model, "extract")

	return &Completion{
		Text:         resp.Text,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary":    {Type: genai.TypeString},
		"whatTheyDo": {Type: genai.TypeString},
		"keywords": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"signals": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"type":       {Type: genai.TypeString},
					"confidence": {Type: genai.TypeNumber},
					"detail":     {Type: genai.TypeString},
				},
				Required: []string{"type", "confidence"},
			},
		},
	},
	Required: []string{"summary", "whatTheyDo", "keywords", "signals"},
}
