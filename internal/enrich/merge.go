package enrich

import (
	"strings"
	"time"

	"github.com/sells-group/vc-enrich/internal/model"
	"github.com/sells-group/vc-enrich/internal/scrape"
)

// MergeSignals concatenates deterministic signals followed by AI signals and
// stamps every one with now. Nothing is de-duplicated.
func MergeSignals(deterministic, ai []model.Signal, now time.Time) []model.Signal {
	ts := model.FormatTimestamp(now)
	out := make([]model.Signal, 0, len(deterministic)+len(ai))
	for _, group := range [][]model.Signal{deterministic, ai} {
		for _, s := range group {
			s.Timestamp = ts
			out = append(out, s)
		}
	}
	return out
}

// BuildSources returns the three reference links attached to every result:
// the company website, its Crunchbase profile and its LinkedIn page.
func BuildSources(companyName, website string, now time.Time) []model.Source {
	ts := model.FormatTimestamp(now)
	slug := Slug(companyName)
	return []model.Source{
		{URL: scrape.NormalizeURL(website), Title: companyName + " - Official Website", Timestamp: ts},
		{URL: "https://www.crunchbase.com/organization/" + slug, Title: companyName + " - Crunchbase Profile", Timestamp: ts},
		{URL: "https://www.linkedin.com/company/" + slug, Title: companyName + " - LinkedIn Company", Timestamp: ts},
	}
}

// Slug lower-cases name and joins its words with hyphens.
func Slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
