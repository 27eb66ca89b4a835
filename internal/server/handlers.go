// Package server provides HTTP handlers and server setup for the roast relay.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ckiertz4887/website-roast/internal/cache"
	"github.com/ckiertz4887/website-roast/internal/core"
	"github.com/ckiertz4887/website-roast/internal/ogimage"
	"github.com/ckiertz4887/website-roast/internal/share"
)

// AnalysisService produces roasts, reporting cache hits
type AnalysisService interface {
	Analyze(ctx context.Context, url string) (*core.Analysis, core.CacheStatus, error)
}

// SpeechService produces MP3 audio, reporting cache hits
type SpeechService interface {
	Synthesize(ctx context.Context, text string) ([]byte, core.CacheStatus, error)
}

// ShareService persists share records and describes them for social previews
type ShareService interface {
	core.ShareStore
	ShareURL(id string) string
	Preview(record *core.ShareRecord) share.Preview
}

// ImageRenderer draws the preview image; nil renders the default layout
type ImageRenderer interface {
	Render(record *core.ShareRecord) ([]byte, error)
}

// Dependencies are the services behind the HTTP handlers
type Dependencies struct {
	Analysis AnalysisService
	Speech   SpeechService
	Shares   ShareService
	Images   ImageRenderer
	// ImageCache memoizes rendered previews by share id
	ImageCache *cache.Store[[]byte]
	// PublicDir holds index.html for share pages
	PublicDir string
}

// Handler holds the HTTP handlers
type Handler struct {
	analysis   AnalysisService
	speech     SpeechService
	shares     ShareService
	images     ImageRenderer
	imageCache *cache.Store[[]byte]
	publicDir  string
	now        func() time.Time
}

// NewHandler creates a new handler with the given services
func NewHandler(deps Dependencies) *Handler {
	imageCache := deps.ImageCache
	if imageCache == nil {
		imageCache = cache.New[[]byte]("og_image")
	}
	return &Handler{
		analysis:   deps.Analysis,
		speech:     deps.Speech,
		shares:     deps.Shares,
		images:     deps.Images,
		imageCache: imageCache,
		publicDir:  deps.PublicDir,
		now:        time.Now,
	}
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, core.HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Analyze handles POST /api/analyze
func (h *Handler) Analyze(c echo.Context) error {
	var req core.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("Invalid JSON in request body"))
	}

	result, status, err := h.analysis.Analyze(c.Request().Context(), req.URL)
	if err != nil {
		return handleError(c, err)
	}

	c.Response().Header().Set("X-Cache", string(status))
	return c.JSON(http.StatusOK, result)
}

// TTS handles POST /api/tts
func (h *Handler) TTS(c echo.Context) error {
	var req core.SpeechRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("Invalid JSON in request body"))
	}

	audio, status, err := h.speech.Synthesize(c.Request().Context(), req.Text)
	if err != nil {
		return handleError(c, err)
	}

	header := c.Response().Header()
	header.Set("X-Cache", string(status))
	header.Set(echo.HeaderContentLength, strconv.Itoa(len(audio)))
	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

// CreateShare handles POST /api/share
func (h *Handler) CreateShare(c echo.Context) error {
	var req core.CreateShareRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewValidationError("Invalid JSON in request body"))
	}

	record, err := h.shares.Create(c.Request().Context(), &req)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, core.ShareResponse{
		ShareID:  record.ID,
		ShareURL: h.shares.ShareURL(record.ID),
	})
}

// GetShare handles GET /api/share/:id
func (h *Handler) GetShare(c echo.Context) error {
	record, err := h.shares.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// SharePage handles GET /r/:id, serving index.html with the record's social metadata.
// Unknown records and disabled sharing fall back to the plain page.
func (h *Handler) SharePage(c echo.Context) error {
	indexPath := filepath.Join(h.publicDir, "index.html")
	index, err := os.ReadFile(indexPath)
	if err != nil {
		return handleError(c, core.NewNotFoundError("Page not found"))
	}

	var record *core.ShareRecord
	if h.shares.Enabled() {
		record, err = h.shares.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			if !core.IsType(err, core.ErrorTypeNotFound) {
				core.Logger(c.Request().Context()).Warn("share page rendered without record", "id", c.Param("id"), "error", err)
			}
			return c.HTMLBlob(http.StatusOK, index)
		}
	}
	if record == nil {
		return c.HTMLBlob(http.StatusOK, index)
	}

	return c.HTMLBlob(http.StatusOK, injectMeta(index, h.shares.Preview(record)))
}

// OGImage handles GET /api/og/:id. "default", unknown ids and disabled sharing
// all yield the promotional image.
func (h *Handler) OGImage(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var record *core.ShareRecord
	if id != ogimage.DefaultID && h.shares.Enabled() {
		r, err := h.shares.Get(ctx, id)
		switch {
		case err == nil:
			record = r
		case core.IsType(err, core.ErrorTypeNotFound):
		default:
			return handleError(c, err)
		}
	}

	key := ogimage.DefaultID
	if record != nil {
		key = "share:" + record.ID
	}
	png, _, err := h.imageCache.Do(ctx, key, func(context.Context) ([]byte, error) {
		return h.images.Render(record)
	})
	if err != nil {
		return handleError(c, core.NewInternalError(err))
	}

	etag := ogimage.ETag(png)
	header := c.Response().Header()
	header.Set("Cache-Control", "public, max-age=86400")
	header.Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// handleError converts gateway errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var gatewayErr *core.GatewayError
	if errors.As(err, &gatewayErr) {
		return c.JSON(gatewayErr.HTTPStatusCode(), gatewayErr.ToJSON())
	}

	// Fallback for unexpected errors
	internal := core.NewInternalError(err)
	return c.JSON(internal.HTTPStatusCode(), internal.ToJSON())
}
