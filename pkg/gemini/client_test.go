package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{APIKey: "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestClient_GenerateJSON(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash:generateContent")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": `{"summary":"Acme builds robots"}`}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     42,
				"candidatesTokenCount": 7,
			},
		})
	}))
	defer ts.Close()

	client, err := NewClient(context.Background(), Config{APIKey: "test-key", BaseURL: ts.URL})
	require.NoError(t, err)

	temp := float32(0.7)
	resp, err := client.GenerateJSON(context.Background(), GenerateRequest{
		Model:           "gemini-2.5-flash",
		System:          "You are a research analyst",
		Prompt:          "Describe Acme",
		Temperature:     &temp,
		MaxOutputTokens: 1000,
		Schema: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: map[string]*genai.Schema{"summary": {Type: genai.TypeString}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"Acme builds robots"}`, resp.Text)
	assert.Equal(t, int64(42), resp.Usage.InputTokens)
	assert.Equal(t, int64(7), resp.Usage.OutputTokens)

	gen, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig present")
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.Equal(t, float64(1000), gen["maxOutputTokens"])
	assert.NotNil(t, gen["responseSchema"])
	assert.NotNil(t, body["systemInstruction"])
}

func TestClient_GenerateJSON_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"error": map[string]any{
				"code":    401,
				"message": "API key not valid",
				"status":  "UNAUTHENTICATED",
			},
		})
	}))
	defer ts.Close()

	client, err := NewClient(context.Background(), Config{APIKey: "bad-key", BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = client.GenerateJSON(context.Background(), GenerateRequest{Model: "gemini-2.5-flash", Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini: generate content")
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 429, StatusCode(genai.APIError{Code: 429}))
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
	assert.Equal(t, 0, StatusCode(nil))
}
