// Package scorer scores extracted company keywords against an investment thesis.
package scorer

import (
	"strings"
	"unicode/utf8"

	"github.com/sells-group/vc-enrich/internal/model"
)

const (
	pointsPerMatch = 20
	maxScore       = 100
	minTokenRunes  = 3
)

// ScoreThesis counts the keywords that loosely match the thesis. A keyword
// matches when it contains a thesis token or a token contains it, ignoring
// case. Tokens shorter than three characters are ignored. Duplicate
// keywords each count, and an empty keyword is contained in every token.
func ScoreThesis(keywords []string, thesis string) model.ThesisMatch {
	match := model.ThesisMatch{Reasons: []string{}}

	tokens := thesisTokens(thesis)
	if len(tokens) == 0 {
		return match
	}

	for _, kw := range keywords {
		if keywordMatches(strings.ToLower(kw), tokens) {
			match.Reasons = append(match.Reasons, kw)
		}
	}

	match.Score = min(maxScore, pointsPerMatch*len(match.Reasons))
	return match
}

func thesisTokens(thesis string) []string {
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(thesis)) {
		if utf8.RuneCountInString(tok) >= minTokenRunes {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func keywordMatches(kw string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(kw, tok) || strings.Contains(tok, kw) {
			return true
		}
	}
	return false
}
