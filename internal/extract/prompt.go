package extract

import (
	"fmt"
	"strings"
)

// EmptyContentPlaceholder stands in for website text when the fetch degraded.
const EmptyContentPlaceholder = "(no website content could be retrieved)"

const systemPrompt = "You are a venture capital research analyst. You read company websites " +
	"and write concise, factual briefs for investors. You never invent facts that the content does not support."

// BuildPrompt renders the user prompt for one company.
func BuildPrompt(companyName, text string) string {
	content := strings.TrimSpace(text)
	if content == "" {
		content = EmptyContentPlaceholder
	}

	return fmt.Sprintf(`Analyze the company %q using the website content below.

Website content:
"""
%s
"""

Return only a JSON object with exactly this shape:
{
  "summary": "2-3 sentence overview of the company",
  "whatTheyDo": "one paragraph on the product, customers and business model",
  "keywords": ["5-10 short industry or technology keywords"],
  "signals": [
    {"type": "growth signal category", "confidence": 0.0, "detail": "evidence from the content"}
  ]
}

Confidence is a number between 0 and 1. Do not include any text outside the JSON object.`, companyName, content)
}
