package kv

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"
)

// ValkeyStore implements Store on top of valkey-go.
type ValkeyStore struct {
	inner valkeylib.Client
}

// NewValkeyStore creates a client for valkey://[user:pass@]host:port[/db] URLs.
// The valkeys scheme enables TLS. token is used as the password when the URL has none.
func NewValkeyStore(u *url.URL, token string) (*ValkeyStore, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{u.Host},
	}

	if u.User != nil {
		opts.Username = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			opts.Password = pass
		}
	}
	if opts.Password == "" && token != "" {
		opts.Password = token
	}

	if db := strings.Trim(u.Path, "/"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid valkey database %q: %w", db, err)
		}
		opts.SelectDB = n
	}

	if u.Scheme == "valkeys" {
		opts.TLSConfig = &tls.Config{
			ServerName: u.Hostname(),
			MinVersion: tls.VersionTLS12,
		}
	}

	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	return &ValkeyStore{inner: inner}, nil
}

// Set stores value under key with an expiration rounded down to whole seconds (minimum 1s).
func (s *ValkeyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	cmd := s.inner.B().Set().Key(key).Value(valkeylib.BinaryString(value)).ExSeconds(seconds).Build()
	if err := s.inner.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to set key in valkey: %w", err)
	}
	return nil
}

// Get retrieves the value stored under key.
func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.inner.Do(ctx, s.inner.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if valkeylib.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get key from valkey: %w", err)
	}
	return data, nil
}

// Ping tests the connection.
func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.inner.Do(ctx, s.inner.B().Ping().Build()).Error()
}

// Close closes the Valkey connection.
func (s *ValkeyStore) Close() error {
	if s.inner != nil {
		s.inner.Close()
	}
	return nil
}
