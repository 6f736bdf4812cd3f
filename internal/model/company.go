package model

import (
	"strings"
	"time"
)

// SignalSource values tag where a signal came from.
const (
	SignalSourceWebsite = "website"
	SignalSourceAI      = "ai"
)

// EnrichmentRequest is the input to a single enrichment run.
type EnrichmentRequest struct {
	Website     string `json:"website" yaml:"website"`
	CompanyName string `json:"company_name" yaml:"company_name"`
	Thesis      string `json:"thesis,omitempty" yaml:"thesis,omitempty"`
}

// Normalize trims surrounding whitespace from every field.
func (r EnrichmentRequest) Normalize() EnrichmentRequest {
	return EnrichmentRequest{
		Website:     strings.TrimSpace(r.Website),
		CompanyName: strings.TrimSpace(r.CompanyName),
		Thesis:      strings.TrimSpace(r.Thesis),
	}
}

// Signal is a typed, confidence-scored observation about a company.
type Signal struct {
	Type       string  `json:"type" yaml:"type"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Timestamp  string  `json:"timestamp" yaml:"timestamp"`
	Detail     string  `json:"detail,omitempty" yaml:"detail,omitempty"`
	Source     string  `json:"source,omitempty" yaml:"source,omitempty"`
}

// ThesisMatch scores keyword alignment with an investment thesis.
type ThesisMatch struct {
	Score   int      `json:"score" yaml:"score"`
	Reasons []string `json:"reasons" yaml:"reasons"`
}

// Source is a reference link attached to an enrichment result.
type Source struct {
	URL       string `json:"url" yaml:"url"`
	Title     string `json:"title" yaml:"title"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// EnrichmentResult is the final output of the pipeline and the unit stored in the cache.
type EnrichmentResult struct {
	Summary     string       `json:"summary" yaml:"summary"`
	WhatTheyDo  string       `json:"whatTheyDo" yaml:"whatTheyDo"`
	Keywords    []string     `json:"keywords" yaml:"keywords"`
	Signals     []Signal     `json:"signals" yaml:"signals"`
	ThesisMatch *ThesisMatch `json:"thesisMatch" yaml:"thesisMatch"`
	Sources     []Source     `json:"sources" yaml:"sources"`
}

// EnsureSlices replaces nil slices with empty ones so the result always
// encodes arrays rather than null.
func (r *EnrichmentResult) EnsureSlices() {
	if r.Keywords == nil {
		r.Keywords = []string{}
	}
	if r.Signals == nil {
		r.Signals = []Signal{}
	}
	if r.Sources == nil {
		r.Sources = []Source{}
	}
	if r.ThesisMatch != nil && r.ThesisMatch.Reasons == nil {
		r.ThesisMatch.Reasons = []string{}
	}
}

// CacheEntry is a stored enrichment result with its write time.
type CacheEntry struct {
	Key      string            `json:"key" yaml:"key"`
	Payload  *EnrichmentResult `json:"payload" yaml:"payload"`
	StoredAt time.Time         `json:"stored_at" yaml:"stored_at"`
}

// Expired reports whether the entry is older than ttl at now.
func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) > ttl
}

// ClampConfidence bounds c to [0, 1].
func ClampConfidence(c float64) float64 {
	if c != c { // NaN
		return 0
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// FormatTimestamp renders t as an ISO-8601 UTC timestamp with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
