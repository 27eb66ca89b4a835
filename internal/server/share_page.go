package server

import (
	"bytes"
	"html"
	"strings"

	"github.com/ckiertz4887/website-roast/internal/share"
)

// injectMeta adds Open Graph and Twitter card tags to index and replaces its title.
func injectMeta(index []byte, p share.Preview) []byte {
	title := html.EscapeString(p.Title)
	desc := html.EscapeString(p.Description)
	image := html.EscapeString(p.ImageURL)
	page := html.EscapeString(p.PageURL)

	var tags strings.Builder
	meta := func(attr, name, content string) {
		tags.WriteString(`    <meta ` + attr + `="` + name + `" content="` + content + `">` + "\n")
	}
	meta("property", "og:type", "website")
	meta("property", "og:title", title)
	meta("property", "og:description", desc)
	meta("property", "og:image", image)
	meta("property", "og:image:width", "1200")
	meta("property", "og:image:height", "630")
	meta("property", "og:url", page)
	meta("name", "twitter:card", "summary_large_image")
	meta("name", "twitter:title", title)
	meta("name", "twitter:description", desc)
	meta("name", "twitter:image", image)

	out := replaceTitle(index, title)

	at := indexFold(out, "</head>")
	if at < 0 {
		return append([]byte(tags.String()), out...)
	}

	var buf bytes.Buffer
	buf.Grow(len(out) + tags.Len())
	buf.Write(out[:at])
	buf.WriteString(tags.String())
	buf.Write(out[at:])
	return buf.Bytes()
}

// replaceTitle swaps the contents of the first <title> element, if any.
func replaceTitle(index []byte, escapedTitle string) []byte {
	open := indexFold(index, "<title>")
	if open < 0 {
		return index
	}
	start := open + len("<title>")
	end := indexFold(index[start:], "</title>")
	if end < 0 {
		return index
	}
	end += start

	var buf bytes.Buffer
	buf.Write(index[:start])
	buf.WriteString(escapedTitle)
	buf.Write(index[end:])
	return buf.Bytes()
}

// indexFold finds a lower-case ASCII tag in b, ignoring ASCII case.
// Only A-Z are folded, so offsets stay valid for b whatever else it contains.
func indexFold(b []byte, tag string) int {
	lower := make([]byte, len(b))
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		lower[i] = c
	}
	return bytes.Index(lower, []byte(tag))
}
