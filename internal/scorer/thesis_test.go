package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreThesis_SubstringMatch(t *testing.T) {
	t.Parallel()

	got := ScoreThesis([]string{"AI infrastructure", "fintech"}, "early-stage ai infra for enterprises")
	assert.Equal(t, 20, got.Score)
	assert.Equal(t, []string{"AI infrastructure"}, got.Reasons)
}

func TestScoreThesis_EmptyThesis(t *testing.T) {
	t.Parallel()

	for _, thesis := range []string{"", "   ", "ai ml"} {
		got := ScoreThesis([]string{"ai", "ml", "saas"}, thesis)
		assert.Equal(t, 0, got.Score, thesis)
		assert.NotNil(t, got.Reasons)
		assert.Empty(t, got.Reasons)
	}
}

func TestScoreThesis_TokenContainsKeyword(t *testing.T) {
	t.Parallel()

	got := ScoreThesis([]string{"Cloud"}, "multicloud tooling")
	assert.Equal(t, 20, got.Score)
	assert.Equal(t, []string{"Cloud"}, got.Reasons)
}

func TestScoreThesis_CapsAtHundred(t *testing.T) {
	t.Parallel()

	keywords := []string{"data", "data platform", "big data", "dataops", "data mesh", "metadata", "data"}
	got := ScoreThesis(keywords, "data")
	assert.Equal(t, 100, got.Score)
	assert.Len(t, got.Reasons, 7)
	assert.Equal(t, "data", got.Reasons[6], "duplicates are kept in order")
}

func TestScoreThesis_NoKeywords(t *testing.T) {
	t.Parallel()

	got := ScoreThesis(nil, "enterprise software")
	assert.Equal(t, 0, got.Score)
	assert.Empty(t, got.Reasons)
}

func TestScoreThesis_EmptyKeywordMatchesAnyToken(t *testing.T) {
	t.Parallel()

	got := ScoreThesis([]string{"", "fintech"}, "enterprise infra")
	assert.Equal(t, []string{""}, got.Reasons)
	assert.Equal(t, 20, got.Score)

	got = ScoreThesis([]string{"", "security"}, "cyber security")
	assert.Equal(t, []string{"", "security"}, got.Reasons)
	assert.Equal(t, 40, got.Score)

	got = ScoreThesis([]string{""}, "ai ml")
	assert.Empty(t, got.Reasons, "no tokens survive the length filter")
}
