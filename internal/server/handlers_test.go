package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckiertz4887/website-roast/internal/analysis"
	"github.com/ckiertz4887/website-roast/internal/cache"
	"github.com/ckiertz4887/website-roast/internal/core"
	"github.com/ckiertz4887/website-roast/internal/filter"
	"github.com/ckiertz4887/website-roast/internal/kv"
	"github.com/ckiertz4887/website-roast/internal/ogimage"
	"github.com/ckiertz4887/website-roast/internal/share"
	"github.com/ckiertz4887/website-roast/internal/speech"
)

const testIndex = `<!doctype html>
<html><head><meta charset="utf-8"><title>Website Roast</title></head>
<body><div id="app"></div></body></html>`

// mockAnalyzer implements core.Analyzer for testing
type mockAnalyzer struct {
	calls atomic.Int32
	err   error
}

func (m *mockAnalyzer) Analyze(_ context.Context, url string) (*core.Analysis, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return &core.Analysis{PageText: "Innovative solutions for tomorrow.", Roast: "Tomorrow called. It wants its slogan back."}, nil
}

// mockSynthesizer implements core.Synthesizer for testing
type mockSynthesizer struct {
	calls atomic.Int32
	err   error
}

func (m *mockSynthesizer) VoiceID() string { return "voice" }

func (m *mockSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return []byte("ID3" + text), nil
}

type testEnv struct {
	srv         *Server
	analyzer    *mockAnalyzer
	synthesizer *mockSynthesizer
	shares      *share.Service
	publicDir   string
}

func newTestEnv(t *testing.T, store kv.Store) *testEnv {
	t.Helper()

	publicDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(publicDir, "index.html"), []byte(testIndex), 0o600))

	renderer, err := ogimage.New()
	require.NoError(t, err)

	env := &testEnv{
		analyzer:    &mockAnalyzer{},
		synthesizer: &mockSynthesizer{},
		shares:      share.New(store, "https://roast.example"),
		publicDir:   publicDir,
	}
	handler := NewHandler(Dependencies{
		Analysis:  analysis.New(filter.New(nil), cache.New[core.Analysis]("analysis"), env.analyzer),
		Speech:    speech.New(cache.New[[]byte]("audio"), env.synthesizer, ""),
		Shares:    env.shares,
		Images:    renderer,
		PublicDir: publicDir,
	})
	env.srv = New(handler, &Config{PublicDir: publicDir})
	return env
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)
}

func TestAnalyze_CacheHeader(t *testing.T) {
	env := newTestEnv(t, nil)

	first := env.do(http.MethodPost, "/api/analyze", `{"url":"https://acme.example/"}`)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := env.do(http.MethodPost, "/api/analyze", `{"url":"https://ACME.example"}`)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), env.analyzer.calls.Load())

	body := decodeBody(t, second)
	assert.Equal(t, "Tomorrow called. It wants its slogan back.", body["roast"])
	assert.Equal(t, "Innovative solutions for tomorrow.", body["pageText"])
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		upstream   error
		wantStatus int
		wantError  string
	}{
		{"missing url", `{}`, nil, http.StatusBadRequest, `Missing "url" in request body`},
		{"invalid json", `{"url":`, nil, http.StatusBadRequest, "Invalid JSON in request body"},
		{"blocked", `{"url":"https://example.xxx"}`, nil, http.StatusForbidden, "This site cannot be roasted"},
		{
			"upstream passthrough", `{"url":"https://acme.example"}`,
			core.NewUpstreamError("Anthropic", http.StatusTooManyRequests, []byte("rate_limit_error"), nil),
			http.StatusTooManyRequests, "Anthropic API error: 429",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.analyzer.err = tt.upstream

			rec := env.do(http.MethodPost, "/api/analyze", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decodeBody(t, rec)["error"])
		})
	}
}

func TestAnalyze_UpstreamDetails(t *testing.T) {
	env := newTestEnv(t, nil)
	env.analyzer.err = core.NewUpstreamError("Anthropic", http.StatusUnauthorized, []byte(`{"error":"invalid x-api-key"}`), nil)

	rec := env.do(http.MethodPost, "/api/analyze", `{"url":"https://acme.example"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `{"error":"invalid x-api-key"}`, decodeBody(t, rec)["details"])
}

func TestTTS(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/tts", `{"text":"Synergy!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "11", rec.Header().Get(echo.HeaderContentLength))
	assert.Equal(t, "ID3Synergy!", rec.Body.String())

	rec = env.do(http.MethodPost, "/api/tts", `{"text":"Synergy!"}`)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, int32(1), env.synthesizer.calls.Load())
}

func TestTTS_LengthBoundary(t *testing.T) {
	env := newTestEnv(t, nil)

	ok := env.do(http.MethodPost, "/api/tts", `{"text":"`+strings.Repeat("a", 5000)+`"}`)
	assert.Equal(t, http.StatusOK, ok.Code)

	tooLong := env.do(http.MethodPost, "/api/tts", `{"text":"`+strings.Repeat("a", 5001)+`"}`)
	assert.Equal(t, http.StatusBadRequest, tooLong.Code)
	assert.Equal(t, "Text too long (max 5000 characters)", decodeBody(t, tooLong)["error"])

	missing := env.do(http.MethodPost, "/api/tts", `{}`)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Equal(t, `Missing "text" in request body`, decodeBody(t, missing)["error"])
}

func TestShare_RoundTrip(t *testing.T) {
	env := newTestEnv(t, kv.NewMemoryStore())

	rec := env.do(http.MethodPost, "/api/share",
		`{"url":"https://acme.example","roast":"[dry] Bold claims.","results":{"buzzwordCount":12},"audio":"SUQz"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	created := decodeBody(t, rec)
	id, _ := created["shareId"].(string)
	require.Len(t, id, 8)
	assert.Equal(t, "https://roast.example/r/"+id, created["shareUrl"])

	rec = env.do(http.MethodGet, "/api/share/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, "https://acme.example", got["url"])
	assert.Equal(t, "[dry] Bold claims.", got["roast"])
	assert.Equal(t, map[string]any{"buzzwordCount": float64(12)}, got["results"])
	assert.Equal(t, "SUQz", got["audio"])
	assert.NotEmpty(t, got["createdAt"])

	rec = env.do(http.MethodGet, "/api/share/nonexistent", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShare_Errors(t *testing.T) {
	env := newTestEnv(t, kv.NewMemoryStore())
	rec := env.do(http.MethodPost, "/api/share", `{"url":"https://acme.example"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	disabled := newTestEnv(t, nil)
	rec = disabled.do(http.MethodPost, "/api/share", `{"url":"u","roast":"r","results":{}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Sharing is not configured", decodeBody(t, rec)["error"])
}

func TestSharePage(t *testing.T) {
	env := newTestEnv(t, kv.NewMemoryStore())
	record, err := env.shares.Create(context.Background(), &core.CreateShareRequest{
		URL:     "https://www.acme.example",
		Roast:   `[laughs] "Trusted" by <everyone>.`,
		Results: json.RawMessage(`{"buzzwordCount":1}`),
	})
	require.NoError(t, err)

	rec := env.do(http.MethodGet, "/r/"+record.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()

	assert.Contains(t, page, `<title>acme.example got roasted: grade A</title>`)
	assert.Contains(t, page, `<meta property="og:image" content="https://roast.example/api/og/`+record.ID+`">`)
	assert.Contains(t, page, `<meta name="twitter:card" content="summary_large_image">`)
	assert.Contains(t, page, `content="&#34;Trusted&#34; by &lt;everyone&gt;."`)
	assert.Less(t, strings.Index(page, "og:title"), strings.Index(page, "</head>"))

	fallback := env.do(http.MethodGet, "/r/missing1", "")
	require.Equal(t, http.StatusOK, fallback.Code)
	assert.Equal(t, testIndex, fallback.Body.String())
}

func TestOGImage(t *testing.T) {
	env := newTestEnv(t, kv.NewMemoryStore())

	rec := env.do(http.MethodGet, "/api/og/default", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	// Unknown ids fall back to the default image.
	unknown := env.do(http.MethodGet, "/api/og/unknown1", "")
	assert.Equal(t, etag, unknown.Header().Get("ETag"))

	req := httptest.NewRequest(http.MethodGet, "/api/og/default", nil)
	req.Header.Set("If-None-Match", etag)
	notModified := httptest.NewRecorder()
	env.srv.ServeHTTP(notModified, req)
	assert.Equal(t, http.StatusNotModified, notModified.Code)

	record, err := env.shares.Create(context.Background(), &core.CreateShareRequest{
		URL: "https://acme.example", Roast: "r", Results: json.RawMessage(`{"buzzwordCount":25}`),
	})
	require.NoError(t, err)
	graded := env.do(http.MethodGet, "/api/og/"+record.ID, "")
	require.Equal(t, http.StatusOK, graded.Code)
	assert.NotEqual(t, etag, graded.Header().Get("ETag"))
}

func TestHandleError_Unexpected(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, handleError(c, assert.AnError))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, assert.AnError.Error(), body["details"])
}
