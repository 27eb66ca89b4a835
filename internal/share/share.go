// Package share persists roast results behind short ids and derives their social previews.
package share

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ckiertz4887/website-roast/internal/core"
	"github.com/ckiertz4887/website-roast/internal/keys"
	"github.com/ckiertz4887/website-roast/internal/kv"
)

// RecordTTL is how long the remote store keeps a share record.
const RecordTTL = 30 * 24 * time.Hour

const keyPrefix = "share:"

// Service creates and loads share records. A Service without a store is disabled:
// every call fails with a configuration error.
type Service struct {
	store    kv.Store
	baseURL  string
	now      func() time.Time
	newID    func() (string, error)
	recorder Recorder
}

// Recorder counts share operations by outcome ("ok", "not_found", "error").
type Recorder interface {
	ShareOperation(operation, outcome string)
}

// New creates a share service. store may be nil when sharing is not configured.
// baseURL is the public origin used in share links ("https://roast.example").
func New(store kv.Store, baseURL string) *Service {
	return &Service{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		newID:   keys.NewShareID,
	}
}

// WithRecorder sets the recorder notified of every create and get.
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

func (s *Service) record(operation, outcome string) {
	if s.recorder != nil {
		s.recorder.ShareOperation(operation, outcome)
	}
}

// Enabled reports whether a remote store is configured
func (s *Service) Enabled() bool {
	return s != nil && s.store != nil
}

// ShareURL returns the public page for a share id
func (s *Service) ShareURL(id string) string {
	return s.baseURL + "/r/" + id
}

// ImageURL returns the preview image for a share id
func (s *Service) ImageURL(id string) string {
	return s.baseURL + "/api/og/" + id
}

// Create validates req, assigns a new id and persists the record for RecordTTL.
func (s *Service) Create(ctx context.Context, req *core.CreateShareRequest) (*core.ShareRecord, error) {
	if !s.Enabled() {
		return nil, core.NewConfigurationError("Sharing is not configured")
	}
	if err := validateCreate(ctx, req); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	record := &core.ShareRecord{
		ID:        id,
		URL:       req.URL,
		Roast:     req.Roast,
		Results:   req.Results,
		Audio:     req.Audio,
		CreatedAt: s.now().UTC(),
	}

	if err := kv.SetJSON(ctx, s.store, keyPrefix+id, record, RecordTTL); err != nil {
		core.Logger(ctx).Error("failed to persist share", "id", id, "error", err)
		s.record("create", "error")
		return nil, core.NewStorageError("Failed to save share", err)
	}
	s.record("create", "ok")

	core.Logger(ctx).Info("share created", "id", id, "url", req.URL, "with_audio", req.Audio != "")
	return record, nil
}

// Get loads a share record. Every call reads through to the remote store.
func (s *Service) Get(ctx context.Context, id string) (*core.ShareRecord, error) {
	if !s.Enabled() {
		return nil, core.NewConfigurationError("Sharing is not configured")
	}
	if id == "" {
		return nil, core.NewNotFoundError("Share not found")
	}

	var record core.ShareRecord
	found, err := kv.GetJSON(ctx, s.store, keyPrefix+id, &record)
	if err != nil {
		core.Logger(ctx).Error("failed to load share", "id", id, "error", err)
		s.record("get", "error")
		return nil, core.NewStorageError("Failed to load share", err)
	}
	if !found {
		s.record("get", "not_found")
		return nil, core.NewNotFoundError("Share not found")
	}
	s.record("get", "ok")
	return &record, nil
}

func validateCreate(ctx context.Context, req *core.CreateShareRequest) error {
	if req == nil {
		return core.NewValidationError("Missing required fields: url, roast, results")
	}
	err := validation.ValidateStructWithContext(ctx, req,
		validation.Field(&req.URL, validation.Required),
		validation.Field(&req.Roast, validation.Required),
		validation.Field(&req.Results, validation.Required, validation.By(notJSONNull)),
	)
	if err != nil {
		verr := core.NewValidationError("Missing required fields: url, roast, results")
		verr.Details = err.Error()
		return verr
	}
	return nil
}

func notJSONNull(value interface{}) error {
	if raw, ok := value.(json.RawMessage); ok && strings.TrimSpace(string(raw)) == "null" {
		return validation.ErrRequired
	}
	return nil
}
