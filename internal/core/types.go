package core

import (
	"encoding/json"
	"strings"
	"time"
)

// CacheStatus marks whether a response was served from the process-local cache
type CacheStatus string

const (
	CacheHit  CacheStatus = "HIT"
	CacheMiss CacheStatus = "MISS"
)

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// Analysis is the two-field document the language model must return.
// Speech synthesis and share previews read these fields, so both are required.
type Analysis struct {
	PageText string `json:"pageText"`
	Roast    string `json:"roast"`
}

// Validate checks that both fields of the envelope are present
func (a *Analysis) Validate() error {
	if a == nil {
		return NewValidationError("analysis is empty")
	}
	var missing []string
	if strings.TrimSpace(a.PageText) == "" {
		missing = append(missing, "pageText")
	}
	if strings.TrimSpace(a.Roast) == "" {
		missing = append(missing, "roast")
	}
	if len(missing) > 0 {
		return NewValidationError("analysis is missing " + strings.Join(missing, ", "))
	}
	return nil
}

// SpeechRequest is the body of POST /api/tts
type SpeechRequest struct {
	Text string `json:"text"`
}

// CreateShareRequest is the body of POST /api/share
type CreateShareRequest struct {
	URL     string          `json:"url"`
	Roast   string          `json:"roast"`
	Results json.RawMessage `json:"results"`
	Audio   string          `json:"audio,omitempty"`
}

// ShareResponse is returned after a share record is persisted
type ShareResponse struct {
	ShareID  string `json:"shareId"`
	ShareURL string `json:"shareUrl"`
}

// ShareRecord is the durable, immutable result of a roast.
// Results is kept opaque; it is only read for grading.
type ShareRecord struct {
	ID        string          `json:"id"`
	URL       string          `json:"url"`
	Roast     string          `json:"roast"`
	Results   json.RawMessage `json:"results"`
	Audio     string          `json:"audio,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
