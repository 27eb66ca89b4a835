// Package keys derives cache keys and share identifiers.
package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// shareIDBytes is the amount of randomness in a share id (48 bits -> 8 base64 chars).
const shareIDBytes = 6

// Fingerprint returns the hex-encoded SHA-256 digest of content.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// NormalizeURL lower-cases a URL and strips one trailing slash so that
// "https://Acme.io/" and "https://acme.io" share a cache entry.
func NormalizeURL(url string) string {
	return strings.TrimSuffix(strings.ToLower(url), "/")
}

// AnalysisKey is the cache key for an analyze request.
func AnalysisKey(url string) string {
	return Fingerprint(NormalizeURL(url))
}

// SpeechKey is the cache key for a text-to-speech request.
func SpeechKey(text, voiceID string) string {
	return Fingerprint(text + voiceID)
}

// NewShareID returns a random, URL-safe, 8 character identifier.
// Uniqueness is probabilistic; callers do not check the store for collisions.
func NewShareID() (string, error) {
	buf := make([]byte, shareIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate share id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
