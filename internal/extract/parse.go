package extract

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vc-enrich/internal/model"
)

// UnknownSignalType labels AI signals that arrive without a usable type.
const UnknownSignalType = "Unknown Signal"

// Extraction is the structured reading of a company's website.
type Extraction struct {
	Summary    string
	WhatTheyDo string
	Keywords   []string
	Signals    []model.Signal
}

// cleanJSON pulls a JSON object out of text that may carry markdown code
// fences or surrounding prose. It spans the first '{' to the last '}'.
func cleanJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return strings.TrimSpace(text[start : end+1]), true
}

// parseExtraction decodes a model reply and coerces it into an Extraction.
// When bare is false the object is first located inside the reply.
func parseExtraction(reply string, bare bool, now time.Time) (*Extraction, error) {
	payload := strings.TrimSpace(reply)
	if !bare {
		var ok bool
		payload, ok = cleanJSON(reply)
		if !ok {
			return nil, eris.New("no JSON object in model reply")
		}
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, eris.Wrap(err, "decode model reply")
	}
	if raw == nil {
		return nil, eris.New("model reply is not a JSON object")
	}

	return coerce(raw, now), nil
}

func coerce(raw map[string]any, now time.Time) *Extraction {
	out := &Extraction{
		Summary:    stringField(raw, "summary"),
		WhatTheyDo: stringField(raw, "whatTheyDo"),
		Keywords:   []string{},
		Signals:    []model.Signal{},
	}

	if kws, ok := raw["keywords"].([]any); ok {
		for _, kw := range kws {
			if s, ok := kw.(string); ok {
				out.Keywords = append(out.Keywords, s)
			}
		}
	}

	ts := model.FormatTimestamp(now)
	if sigs, ok := raw["signals"].([]any); ok {
		for _, item := range sigs {
			out.Signals = append(out.Signals, coerceSignal(item, ts))
		}
	}

	return out
}

func coerceSignal(item any, ts string) model.Signal {
	sig := model.Signal{
		Type:      UnknownSignalType,
		Timestamp: ts,
		Source:    model.SignalSourceAI,
	}

	obj, ok := item.(map[string]any)
	if !ok {
		return sig
	}
	if t, ok := obj["type"].(string); ok && strings.TrimSpace(t) != "" {
		sig.Type = t
	}
	if c, ok := obj["confidence"].(float64); ok {
		sig.Confidence = model.ClampConfidence(c)
	}
	if d, ok := obj["detail"].(string); ok {
		sig.Detail = d
	}
	return sig
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}
