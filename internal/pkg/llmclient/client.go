// Package llmclient provides a base HTTP client for upstream vendor APIs with:
// - JSON request marshaling
// - Raw response bodies (JSON documents and binary audio alike)
// - Standardized upstream error passthrough (status code and body kept verbatim)
//
// Requests are sent exactly once. A failed call is surfaced to the caller as-is.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ckiertz4887/website-roast/internal/core"
)

// Config holds configuration for the client
type Config struct {
	// ProviderName identifies the provider for error messages ("Anthropic API error: 429")
	ProviderName string

	// BaseURL is the API base URL
	BaseURL string

	// Observer is optional; it is told about every completed call
	Observer Observer
}

// Observer receives the outcome of each upstream call.
// status is "error" when no response was received.
type Observer interface {
	UpstreamRequest(provider, status string, elapsed time.Duration)
}

// DefaultConfig returns default client configuration
func DefaultConfig(providerName, baseURL string) Config {
	return Config{
		ProviderName: providerName,
		BaseURL:      baseURL,
	}
}

// HeaderSetter is a function that sets headers on an HTTP request
type HeaderSetter func(req *http.Request)

// Client is a base HTTP client for vendor APIs
type Client struct {
	httpClient   *http.Client
	config       Config
	headerSetter HeaderSetter
}

// NewWithHTTPClient creates a new client with a custom HTTP client
func NewWithHTTPClient(httpClient *http.Client, config Config, headerSetter HeaderSetter) *Client {
	return &Client{
		httpClient:   httpClient,
		config:       config,
		headerSetter: headerSetter,
	}
}

// Request represents an HTTP request to be made
type Request struct {
	Method   string
	Endpoint string
	Body     interface{} // Will be JSON marshaled if not nil
	Headers  map[string]string
}

// Response represents an HTTP response
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// DoRaw executes a request and returns the raw response.
// Any non-2xx status becomes an upstream error carrying that status and body.
func (c *Client) DoRaw(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := c.doRequest(ctx, req)
	if err != nil {
		c.observe("error", start)
		return nil, err
	}
	c.observe(strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, core.NewUpstreamError(c.config.ProviderName, resp.StatusCode, resp.Body, nil)
	}
	return resp, nil
}

func (c *Client) observe(status string, start time.Time) {
	if c.config.Observer != nil {
		c.config.Observer.UpstreamRequest(c.config.ProviderName, status, time.Since(start))
	}
}

// doRequest executes a single HTTP request
func (c *Client) doRequest(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewTransportError(c.config.ProviderName, "failed to send request: "+err.Error(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewTransportError(c.config.ProviderName, "failed to read response: "+err.Error(), err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// buildRequest creates an HTTP request from a Request
func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	url := c.config.BaseURL + req.Endpoint

	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, core.NewInternalError(err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, bodyReader)
	if err != nil {
		return nil, core.NewInternalError(err)
	}

	// Set default content type for requests with body
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// Apply provider-specific headers
	if c.headerSetter != nil {
		c.headerSetter(httpReq)
	}

	// Apply request-specific headers
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, nil
}
