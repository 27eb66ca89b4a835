package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckiertz4887/website-roast/internal/share"
)

func TestInjectMeta_NonASCIIIndex(t *testing.T) {
	// Ⱥ grows from two to three bytes when lower-cased and 0xff is not valid UTF-8.
	index := "<HTML><HEAD><meta name=\"x\" content=\"Ⱥ\xffȺȺ\"><TITLE>Old</TITLE></HEAD><body>Ⱥ</body></HTML>"
	p := share.Preview{
		Title:       "acme.example got roasted: grade F",
		Description: "Synergy.",
		ImageURL:    "https://roast.example/api/og/abc12345",
		PageURL:     "https://roast.example/r/abc12345",
	}

	out := string(injectMeta([]byte(index), p))

	assert.Contains(t, out, "<TITLE>acme.example got roasted: grade F</TITLE>")
	assert.NotContains(t, out, "Old")
	assert.True(t, strings.HasPrefix(out, "<HTML><HEAD><meta name=\"x\" content=\"Ⱥ\xffȺȺ\"><TITLE>"))

	headEnd := strings.Index(out, "</HEAD>")
	require.Positive(t, headEnd)
	ogImage := strings.Index(out, `<meta property="og:image" content="https://roast.example/api/og/abc12345">`)
	require.Positive(t, ogImage)
	assert.Less(t, ogImage, headEnd)
	assert.Greater(t, ogImage, strings.Index(out, "</TITLE>"))
	assert.True(t, strings.HasSuffix(out, "</HEAD><body>Ⱥ</body></HTML>"))
}

func TestInjectMeta_NoHead(t *testing.T) {
	out := string(injectMeta([]byte("<p>bare</p>"), share.New(nil, "https://roast.example").DefaultPreview()))
	assert.True(t, strings.HasSuffix(out, "<p>bare</p>"))
	assert.Contains(t, out, `property="og:type" content="website"`)
}
