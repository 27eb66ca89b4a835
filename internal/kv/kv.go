// Package kv provides the durable key-value store used for share records.
// Supports a Redis-protocol server (Redis, Upstash), Valkey, an embedded SQLite
// file and process memory. Expiration is enforced by the backend.
package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

var (
	// ErrNotFound is returned by Get when the key is absent or expired.
	ErrNotFound = errors.New("kv: key not found")

	// ErrNotConfigured is returned by New when no store URL is configured.
	ErrNotConfigured = errors.New("kv: store not configured")
)

// DefaultConnectTimeout bounds the startup ping.
const DefaultConnectTimeout = 5 * time.Second

// compressedPrefix marks values written by SetJSON with brotli compression.
var compressedPrefix = []byte("br:")

// Store is a minimal remote key-value protocol: SET key value EX seconds, GET key.
// Implementations must be safe for concurrent use.
type Store interface {
	// Set writes value under key; the backend drops it after ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Config holds the remote store connection settings.
type Config struct {
	// URL selects the backend by scheme: redis://, rediss://, valkey://, valkeys://,
	// sqlite://<path>, memory://
	URL string

	// Token is used as the password when the URL carries none (Upstash-style credentials).
	Token string

	// ConnectTimeout is optional, defaults to DefaultConnectTimeout
	ConnectTimeout time.Duration
}

// New opens the store described by cfg and verifies connectivity.
// Returns ErrNotConfigured when cfg.URL is empty.
func New(ctx context.Context, cfg Config) (Store, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNotConfigured
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid store URL: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}

	var store Store
	switch u.Scheme {
	case "redis", "rediss":
		store, err = NewRedisStore(cfg.URL, cfg.Token)
	case "valkey", "valkeys":
		store, err = NewValkeyStore(u, cfg.Token)
	case "sqlite":
		store, err = NewSQLiteStore(sqlitePath(cfg.URL))
	case "memory":
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to connect to %s store (timeout: %v): %w", u.Scheme, timeout, err)
	}

	return store, nil
}

func sqlitePath(raw string) string {
	return strings.TrimPrefix(raw, "sqlite://")
}

// SetJSON serializes v to JSON, compresses it and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(compressedPrefix)
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to compress value: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to compress value: %w", err)
	}

	return s.Set(ctx, key, buf.Bytes(), ttl)
}

// GetJSON reads key and decodes it into dst. Reports false when the key is absent.
// Plain JSON values (written by other tools) are accepted as well.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	data := raw
	if bytes.HasPrefix(raw, compressedPrefix) {
		data, err = io.ReadAll(brotli.NewReader(bytes.NewReader(raw[len(compressedPrefix):])))
		if err != nil {
			return false, fmt.Errorf("failed to decompress value: %w", err)
		}
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to parse value: %w", err)
	}
	return true, nil
}
