package share

import (
	"net/url"
	"regexp"
	"strings"
)

// MaxPreviewLength caps sanitized preview text, in runes, before the ellipsis.
const MaxPreviewLength = 200

// MaxHostLength caps displayed hostnames, in runes, before the ellipsis.
const MaxHostLength = 32

// UnknownHost labels records whose URL has no usable hostname.
const UnknownHost = "a mystery website"

// stageDirection matches delivery cues such as "[sarcastic]" or "[sighs heavily]".
var stageDirection = regexp.MustCompile(`\[[^\[\]]*\]`)

// SanitizePreview strips stage directions, collapses whitespace and truncates text
// for use in social metadata.
func SanitizePreview(text string) string {
	text = stageDirection.ReplaceAllString(text, " ")
	text = strings.Join(strings.Fields(text), " ")
	return Truncate(text, MaxPreviewLength)
}

// Truncate shortens s to at most limit runes, adding an ellipsis when cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimRight(string(runes[:limit]), " ") + "…"
}

// DisplayHost extracts a short hostname from a stored URL, tolerating values
// without a scheme. "www." is dropped.
func DisplayHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownHost
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		u, err = url.Parse("https://" + raw)
	}
	if err != nil || u.Hostname() == "" {
		return UnknownHost
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return Truncate(host, MaxHostLength)
}
