// Package config provides configuration management for the application.
//
// Values come from the process environment, optionally seeded from a .env file
// in the working directory. Existing environment variables win over .env entries.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ckiertz4887/website-roast/internal/httpclient"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig
	Anthropic  AnthropicConfig
	ElevenLabs ElevenLabsConfig
	Share      ShareConfig
	Filter     FilterConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
	HTTP       HTTPConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	// PublicBaseURL is the origin used in share links and preview metadata
	PublicBaseURL string
	// PublicDir holds the static front-end
	PublicDir     string
	BodySizeLimit string
}

// AnthropicConfig holds the language model settings
type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// ElevenLabsConfig holds the speech synthesis settings
type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string
	// StylePrefix is prepended to synthesized text, e.g. "[sarcastic]"
	StylePrefix string
}

// ShareConfig holds the remote share store settings. An empty StoreURL disables sharing.
type ShareConfig struct {
	StoreURL   string
	StoreToken string
}

// FilterConfig holds the optional extra blocklist
type FilterConfig struct {
	BlocklistFile string
}

// LoggingConfig selects the log handler
type LoggingConfig struct {
	Format string
	Level  string
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// HTTPConfig holds outbound HTTP client settings
type HTTPConfig struct {
	Timeout time.Duration
}

// Load reads configuration from .env and the environment.
// It does not validate required keys; call Validate.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("PORT", "3001")
	v.SetDefault("PUBLIC_DIR", "./public")
	v.SetDefault("BODY_SIZE_LIMIT", "10M")
	v.SetDefault("ELEVENLABS_VOICE_ID", "G0yjIg3xY8gEJZkHpjVm")
	v.SetDefault("ELEVENLABS_MODEL_ID", "eleven_v3")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_ENABLED", false)
	v.SetDefault("METRICS_ENDPOINT", "/metrics")
	v.SetDefault("HTTP_TIMEOUT", httpclient.DefaultTimeout.String())
	v.AutomaticEnv()

	port := strings.TrimSpace(v.GetString("PORT"))
	baseURL := strings.TrimRight(strings.TrimSpace(v.GetString("PUBLIC_BASE_URL")), "/")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	timeout, err := httpclient.ParseDuration(v.GetString("HTTP_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:          port,
			PublicBaseURL: baseURL,
			PublicDir:     v.GetString("PUBLIC_DIR"),
			BodySizeLimit: v.GetString("BODY_SIZE_LIMIT"),
		},
		Anthropic: AnthropicConfig{
			APIKey:  strings.TrimSpace(v.GetString("ANTHROPIC_API_KEY")),
			Model:   v.GetString("ANTHROPIC_MODEL"),
			BaseURL: v.GetString("ANTHROPIC_BASE_URL"),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:      strings.TrimSpace(v.GetString("ELEVENLABS_API_KEY")),
			VoiceID:     v.GetString("ELEVENLABS_VOICE_ID"),
			ModelID:     v.GetString("ELEVENLABS_MODEL_ID"),
			BaseURL:     v.GetString("ELEVENLABS_BASE_URL"),
			StylePrefix: v.GetString("TTS_STYLE_PREFIX"),
		},
		Share: ShareConfig{
			StoreURL:   strings.TrimSpace(v.GetString("SHARE_STORE_URL")),
			StoreToken: v.GetString("SHARE_STORE_TOKEN"),
		},
		Filter: FilterConfig{
			BlocklistFile: v.GetString("BLOCKLIST_FILE"),
		},
		Logging: LoggingConfig{
			Format: v.GetString("LOG_FORMAT"),
			Level:  v.GetString("LOG_LEVEL"),
		},
		Metrics: MetricsConfig{
			Enabled:  v.GetBool("METRICS_ENABLED"),
			Endpoint: v.GetString("METRICS_ENDPOINT"),
		},
		HTTP: HTTPConfig{
			Timeout: timeout,
		},
	}

	return cfg, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Anthropic.APIKey == "" {
		errs = append(errs, errors.New("ANTHROPIC_API_KEY is required"))
	}
	if c.ElevenLabs.APIKey == "" {
		errs = append(errs, errors.New("ELEVENLABS_API_KEY is required"))
	}
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a TCP port, got %q", c.Server.Port))
	}
	return errors.Join(errs...)
}
