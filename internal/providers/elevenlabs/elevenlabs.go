// Package elevenlabs converts roast text to speech with the ElevenLabs API.
package elevenlabs

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ckiertz4887/website-roast/internal/core"
	"github.com/ckiertz4887/website-roast/internal/pkg/llmclient"
)

const (
	// ProviderName prefixes upstream error messages ("ElevenLabs API error: 401").
	ProviderName = "ElevenLabs"

	DefaultBaseURL = "https://api.elevenlabs.io/v1"
	DefaultVoiceID = "G0yjIg3xY8gEJZkHpjVm"
	DefaultModelID = "eleven_v3"
)

// Config configures the synthesizer
type Config struct {
	APIKey  string
	BaseURL string
	VoiceID string
	ModelID string
}

// VoiceSettings are sent with every synthesis request
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// DefaultVoiceSettings favors an expressive but recognisable delivery.
var DefaultVoiceSettings = VoiceSettings{Stability: 0.5, SimilarityBoost: 0.8}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Provider implements core.Synthesizer
type Provider struct {
	client  *llmclient.Client
	voiceID string
	modelID string
}

// New creates a new ElevenLabs synthesizer
func New(cfg Config, httpClient *http.Client, observer llmclient.Observer) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	voiceID := cfg.VoiceID
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = DefaultModelID
	}

	clientCfg := llmclient.DefaultConfig(ProviderName, strings.TrimRight(baseURL, "/"))
	clientCfg.Observer = observer

	apiKey := cfg.APIKey
	return &Provider{
		client: llmclient.NewWithHTTPClient(httpClient, clientCfg, func(req *http.Request) {
			req.Header.Set("xi-api-key", apiKey)
			req.Header.Set("Accept", "audio/mpeg")
		}),
		voiceID: voiceID,
		modelID: modelID,
	}
}

// VoiceID returns the voice used for synthesis
func (p *Provider) VoiceID() string {
	return p.voiceID
}

// Synthesize returns MP3-encoded audio for text
func (p *Provider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := p.client.DoRaw(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/text-to-speech/" + url.PathEscape(p.voiceID),
		Body: &speechRequest{
			Text:          text,
			ModelID:       p.modelID,
			VoiceSettings: DefaultVoiceSettings,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, core.NewTransportError(ProviderName, "ElevenLabs returned empty audio", nil)
	}
	return resp.Body, nil
}
