package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxLinks caps how many anchors ExtractLinks returns.
const DefaultMaxLinks = 200

// ExtractLinks returns the distinct anchor hrefs of an HTML document in
// document order. Fragment, mailto, tel and javascript links are skipped.
func ExtractLinks(html string, limit int) []string {
	if strings.TrimSpace(html) == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultMaxLinks
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if skipHref(href) || seen[href] {
			return true
		}
		seen[href] = true
		links = append(links, href)
		return len(links) < limit
	})
	return links
}

func skipHref(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
