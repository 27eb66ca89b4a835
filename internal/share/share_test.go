package share

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckiertz4887/website-roast/internal/core"
	"github.com/ckiertz4887/website-roast/internal/kv"
)

func validRequest() *core.CreateShareRequest {
	return &core.CreateShareRequest{
		URL:     "https://acme.example",
		Roast:   "[sarcastic] Acme is redefining redefinition.",
		Results: json.RawMessage(`{"buzzwordCount":3,"vagueClaimCount":2,"ctaCount":1}`),
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := New(kv.NewMemoryStore(), "https://roast.example/")
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return created }

	record, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	assert.Len(t, record.ID, 8)
	assert.Equal(t, "https://roast.example/r/"+record.ID, svc.ShareURL(record.ID))

	got, err := svc.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://acme.example", got.URL)
	assert.Equal(t, record.Roast, got.Roast)
	assert.JSONEq(t, string(record.Results), string(got.Results))
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Empty(t, got.Audio)
}

func TestCreate_WithAudio(t *testing.T) {
	ctx := context.Background()
	svc := New(kv.NewMemoryStore(), "https://roast.example")

	req := validRequest()
	req.Audio = "SUQzBAAAAAAA"
	record, err := svc.Create(ctx, req)
	require.NoError(t, err)

	got, err := svc.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "SUQzBAAAAAAA", got.Audio)
}

func TestGet_NotFound(t *testing.T) {
	svc := New(kv.NewMemoryStore(), "https://roast.example")

	for _, id := range []string{"nonexistent", ""} {
		_, err := svc.Get(context.Background(), id)
		var gwErr *core.GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, http.StatusNotFound, gwErr.HTTPStatusCode())
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := New(kv.NewMemoryStore(), "https://roast.example")

	tests := []struct {
		name   string
		mutate func(*core.CreateShareRequest)
	}{
		{"missing url", func(r *core.CreateShareRequest) { r.URL = "" }},
		{"missing roast", func(r *core.CreateShareRequest) { r.Roast = "" }},
		{"missing results", func(r *core.CreateShareRequest) { r.Results = nil }},
		{"null results", func(r *core.CreateShareRequest) { r.Results = json.RawMessage("null") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			_, err := svc.Create(context.Background(), req)
			assert.True(t, core.IsType(err, core.ErrorTypeValidation), "got %v", err)
		})
	}

	_, err := svc.Create(context.Background(), nil)
	assert.True(t, core.IsType(err, core.ErrorTypeValidation))
}

func TestDisabled(t *testing.T) {
	svc := New(nil, "https://roast.example")
	assert.False(t, svc.Enabled())

	// Configuration is checked before the request is validated.
	_, err := svc.Create(context.Background(), &core.CreateShareRequest{})
	assert.True(t, core.IsType(err, core.ErrorTypeConfiguration))

	_, err = svc.Get(context.Background(), "abc")
	assert.True(t, core.IsType(err, core.ErrorTypeConfiguration))
}

type brokenStore struct{}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("ERR max request size exceeded")
}
func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("dial tcp: connection refused")
}
func (brokenStore) Ping(context.Context) error { return nil }
func (brokenStore) Close() error               { return nil }

func TestStorageErrors(t *testing.T) {
	svc := New(brokenStore{}, "https://roast.example")

	_, err := svc.Create(context.Background(), validRequest())
	var gwErr *core.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, core.ErrorTypeStorage, gwErr.Type)
	assert.Contains(t, gwErr.Details, "max request size")

	_, err = svc.Get(context.Background(), "abcdEFGH")
	assert.True(t, core.IsType(err, core.ErrorTypeStorage))
}

func TestPreview(t *testing.T) {
	svc := New(kv.NewMemoryStore(), "https://roast.example")
	record := &core.ShareRecord{
		ID:      "abcdEFGH",
		URL:     "https://www.acme.example/pricing",
		Roast:   "[sarcastic]  Acme   promises everything. [sighs]",
		Results: json.RawMessage(`{"buzzwordCount":3,"vagueClaimCount":2,"ctaCount":1}`),
	}

	p := svc.Preview(record)
	assert.Equal(t, "acme.example got roasted: grade B", p.Title)
	assert.Equal(t, "Acme promises everything.", p.Description)
	assert.Equal(t, "https://roast.example/api/og/abcdEFGH", p.ImageURL)
	assert.Equal(t, "https://roast.example/r/abcdEFGH", p.PageURL)

	def := svc.Preview(nil)
	assert.Equal(t, "https://roast.example/api/og/default", def.ImageURL)
}

type countingRecorder map[string]int

func (c countingRecorder) ShareOperation(operation, outcome string) {
	c[operation+":"+outcome]++
}

func TestRecorder(t *testing.T) {
	rec := countingRecorder{}
	svc := New(kv.NewMemoryStore(), "https://roast.example").WithRecorder(rec)
	ctx := context.Background()

	record, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.Get(ctx, record.ID)
	require.NoError(t, err)
	_, _ = svc.Get(ctx, "missing1")

	assert.Equal(t, countingRecorder{"create:ok": 1, "get:ok": 1, "get:not_found": 1}, rec)
}
