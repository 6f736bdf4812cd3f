// Package signals detects growth signals from website text using fixed keyword rules.
package signals

import (
	"strings"
	"time"

	"github.com/sells-group/vc-enrich/internal/model"
)

// Signal types emitted by the rule table.
const (
	TypeHiring     = "Hiring Activity"
	TypeContent    = "Content Engine"
	TypeCommercial = "Commercial Intent"
	TypeDeveloper  = "Developer Focus"
	TypeCommunity  = "Community Building"
	TypeMaturity   = "Product Maturity"
)

// Rule fires when any of its triggers appears in the lower-cased text, or
// when its Match func (if set) reports true.
type Rule struct {
	Type       string
	Triggers   []string
	Match      func(lower string) bool
	Confidence float64
	Detail     string
}

func (r Rule) fires(lower string) bool {
	if containsAny(lower, r.Triggers...) {
		return true
	}
	return r.Match != nil && r.Match(lower)
}

// Rules is the fixed detector table. Emission order follows this slice.
var Rules = []Rule{
	{
		Type:       TypeHiring,
		Triggers:   []string{"/careers", "join our team", "we're hiring"},
		Confidence: 0.95,
		Detail:     "Careers page or hiring language found on website",
	},
	{
		Type:       TypeContent,
		Triggers:   []string{"/blog", "latest posts", "insights", "resources"},
		Confidence: 0.90,
		Detail:     "Blog or resource content published on website",
	},
	{
		Type:     TypeCommercial,
		Triggers: []string{"/pricing", "pricing page"},
		Match: func(lower string) bool {
			return strings.Contains(lower, "plans") && strings.Contains(lower, "$")
		},
		Confidence: 0.90,
		Detail:     "Public pricing or paid plans listed on website",
	},
	{
		Type:       TypeDeveloper,
		Triggers:   []string{"docs.", "/docs", "api reference", "sdk"},
		Confidence: 0.85,
		Detail:     "Developer documentation or SDK referenced on website",
	},
	{
		Type:       TypeCommunity,
		Triggers:   []string{"discord", "community", "slack", "github"},
		Confidence: 0.80,
		Detail:     "Community channels linked from website",
	},
	{
		Type:       TypeMaturity,
		Triggers:   []string{"changelog", "roadmap", "releases"},
		Confidence: 0.85,
		Detail:     "Changelog, roadmap or release notes published",
	},
}

// Detect runs every rule against text and returns one website-sourced
// signal per firing rule, stamped with now. Matching is case-insensitive.
func Detect(text string, now time.Time) []model.Signal {
	lower := strings.ToLower(text)
	ts := model.FormatTimestamp(now)

	out := []model.Signal{}
	for _, r := range Rules {
		if !r.fires(lower) {
			continue
		}
		out = append(out, model.Signal{
			Type:       r.Type,
			Confidence: r.Confidence,
			Timestamp:  ts,
			Detail:     r.Detail,
			Source:     model.SignalSourceWebsite,
		})
	}
	return out
}

// Corpus joins sanitized page text with discovered link targets so that
// path triggers like "/careers" can match hrefs stripped from the text.
func Corpus(text string, links []string) string {
	if len(links) == 0 {
		return text
	}
	return text + "\n" + strings.Join(links, "\n")
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
