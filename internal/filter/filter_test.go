package filter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsBlocked(t *testing.T) {
	f := New(nil)

	tests := []struct {
		url  string
		want bool
	}{
		{"HTTP://Example-XXX.com", true},
		{"https://acme.io", false},
		{"https://www.PornHub.com/", true},
		{"https://something.adult", true},
		{"https://shop.example.com/?ref=onlyfans", true},
		{"https://stripe.com", false},
		{"https://example.com/essex-county", true}, // substring match is intentionally blunt
		{"", false},
		{"%%%not a url at all", false},
		{"://::", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := f.IsBlocked(tt.url); got != tt.want {
				t.Errorf("IsBlocked(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestNilFilterBlocksNothing(t *testing.T) {
	var f *ContentFilter
	if f.IsBlocked("https://xxx.com") {
		t.Error("nil filter should not block")
	}
	if f.PatternCount() != 0 {
		t.Error("nil filter has no patterns")
	}
}

func TestNewFromFile(t *testing.T) {
	t.Run("EmptyPathUsesDefaults", func(t *testing.T) {
		f, err := NewFromFile("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := len(DefaultBlockedTLDs) + len(DefaultBlockedKeywords)
		if f.PatternCount() != want {
			t.Errorf("expected %d patterns, got %d", want, f.PatternCount())
		}
	})

	t.Run("MergesExtraEntries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "blocklist.yaml")
		content := "tlds:\n  - .Casino\nkeywords:\n  - Gambl\n  - \"  \"\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}

		f, err := NewFromFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !f.IsBlocked("https://lucky.CASINO") {
			t.Error("expected extra tld to block")
		}
		if !f.IsBlocked("https://gambling.example.com") {
			t.Error("expected extra keyword to block")
		}
		if f.IsBlocked("https://acme.io") {
			t.Error("blank entries must not match everything")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := NewFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("InvalidYAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("tlds: [unterminated"), 0o644); err != nil {
			t.Fatalf("failed to write test file: %v", err)
		}
		if _, err := NewFromFile(path); err == nil {
			t.Fatal("expected error for invalid YAML")
		}
	})
}
