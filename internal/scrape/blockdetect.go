package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot block behind a failed fetch.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
)

// DetectBlock classifies a non-2xx response. It only labels failures for
// logging; a 2xx page is never treated as blocked.
func DetectBlock(resp *http.Response, body []byte) BlockType {
	if resp == nil || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" {
			return BlockCloudflare
		}
		if strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))
	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") {
		return BlockCloudflare
	}
	if strings.Contains(lower, "captcha") {
		return BlockCaptcha
	}

	return BlockNone
}
