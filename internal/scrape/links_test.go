package scrape

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<a href="/careers">Jobs</a>
<a href="https://github.com/acme">GitHub</a>
<a href="/careers">Jobs again</a>
<a href="#top">Top</a>
<a href="mailto:hi@acme.com">Mail</a>
<a href="javascript:void(0)">Noop</a>
<a>No href</a>
<a href=" /pricing ">Pricing</a>
</body></html>`

	got := ExtractLinks(html, 0)
	assert.Equal(t, []string{"/careers", "https://github.com/acme", "/pricing"}, got)
}

func TestExtractLinks_Limit(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, `<a href="/p/%d">p</a>`, i)
	}

	got := ExtractLinks(b.String(), 3)
	require.Len(t, got, 3)
	assert.Equal(t, "/p/0", got[0])
	assert.Equal(t, "/p/2", got[2])
}

func TestExtractLinks_Empty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ExtractLinks("", 10))
	assert.Empty(t, ExtractLinks("<p>no anchors</p>", 10))
}
