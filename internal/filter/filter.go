// Package filter decides whether a submitted URL may be roasted.
//
// The check is a best-effort deny-list, not a security boundary: a URL is
// blocked when it contains any blocked TLD suffix or keyword fragment anywhere,
// compared case-insensitively. URLs are never parsed, so malformed input is
// just another string.
package filter

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultBlockedTLDs are top-level domains that are always refused.
var DefaultBlockedTLDs = []string{".xxx", ".porn", ".sex", ".adult"}

// DefaultBlockedKeywords are fragments matched anywhere in the URL.
var DefaultBlockedKeywords = []string{
	"pornhub", "xvideos", "xnxx", "xhamster", "redtube", "youporn",
	"brazzers", "bangbros", "realitykings", "naughtyamerica", "mofos",
	"onlyfans", "fansly", "chaturbate", "stripchat", "livejasmin",
	"cam4", "bongacams", "myfreecams", "camsoda",
	"porn", "xxx", "sex", "adult", "nsfw", "hentai", "rule34",
	"spankbang", "eporner", "tube8", "xtube", "motherless",
	"fetlife", "literotica", "erotic",
}

// Blocklist is the on-disk format for extra entries.
//
//	tlds: [".example"]
//	keywords: ["casino"]
type Blocklist struct {
	TLDs     []string `yaml:"tlds"`
	Keywords []string `yaml:"keywords"`
}

// ContentFilter holds the lower-cased patterns. The zero value blocks nothing.
type ContentFilter struct {
	tlds     []string
	keywords []string
}

// New creates a filter from the default lists plus any extra entries.
func New(extra *Blocklist) *ContentFilter {
	f := &ContentFilter{}
	f.add(DefaultBlockedTLDs, DefaultBlockedKeywords)
	if extra != nil {
		f.add(extra.TLDs, extra.Keywords)
	}
	return f
}

// NewFromFile creates a filter from the defaults merged with a YAML blocklist.
// An empty path yields the defaults only.
func NewFromFile(path string) (*ContentFilter, error) {
	if path == "" {
		return New(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blocklist file: %w", err)
	}

	var extra Blocklist
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse blocklist file: %w", err)
	}

	return New(&extra), nil
}

func (f *ContentFilter) add(tlds, keywords []string) {
	for _, tld := range tlds {
		if tld = strings.ToLower(strings.TrimSpace(tld)); tld != "" {
			f.tlds = append(f.tlds, tld)
		}
	}
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			f.keywords = append(f.keywords, kw)
		}
	}
}

// IsBlocked reports whether url matches any blocked TLD or keyword.
func (f *ContentFilter) IsBlocked(url string) bool {
	if f == nil {
		return false
	}
	lower := strings.ToLower(url)
	for _, tld := range f.tlds {
		if strings.Contains(lower, tld) {
			return true
		}
	}
	for _, kw := range f.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// PatternCount returns the number of TLD and keyword patterns.
func (f *ContentFilter) PatternCount() int {
	if f == nil {
		return 0
	}
	return len(f.tlds) + len(f.keywords)
}
