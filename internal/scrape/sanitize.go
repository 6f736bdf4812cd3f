package scrape

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultCharBudget is the sanitized text budget used when none is configured.
const DefaultCharBudget = 15000

var (
	scriptRe  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	styleRe   = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	spaceRe   = regexp.MustCompile(`\s+`)

	entityReplacer = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
)

// Sanitize reduces an HTML document to plain text: script and style blocks
// and comments are dropped with their content, remaining tags are stripped,
// whitespace runs collapse to a single space, and the result is cut to at
// most budget characters. A budget <= 0 disables truncation.
func Sanitize(html string, budget int) string {
	text := scriptRe.ReplaceAllString(html, " ")
	text = styleRe.ReplaceAllString(text, " ")
	text = commentRe.ReplaceAllString(text, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = entityReplacer.Replace(text)
	text = spaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	return truncate(text, budget)
}

// truncate hard-cuts s to budget runes.
func truncate(s string, budget int) string {
	if budget <= 0 || utf8.RuneCountInString(s) <= budget {
		return s
	}
	return string([]rune(s)[:budget])
}
