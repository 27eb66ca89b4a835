// Package anthropic asks the Anthropic Messages API to fetch a live page and roast it.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ckiertz4887/website-roast/internal/core"
	"github.com/ckiertz4887/website-roast/internal/pkg/llmclient"
)

const (
	// ProviderName prefixes upstream error messages ("Anthropic API error: 529").
	ProviderName = "Anthropic"

	DefaultBaseURL      = "https://api.anthropic.com/v1"
	DefaultModel        = "claude-sonnet-4-20250514"
	anthropicAPIVersion = "2023-06-01"
	defaultMaxTokens    = 4096
)

// Config configures the analyzer
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Provider implements core.Analyzer on top of the Messages API
type Provider struct {
	client *llmclient.Client
	model  string
}

// New creates a new Anthropic analyzer
func New(cfg Config, httpClient *http.Client, observer llmclient.Observer) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	clientCfg := llmclient.DefaultConfig(ProviderName, strings.TrimRight(baseURL, "/"))
	clientCfg.Observer = observer

	apiKey := cfg.APIKey
	return &Provider{
		client: llmclient.NewWithHTTPClient(httpClient, clientCfg, func(req *http.Request) {
			req.Header.Set("x-api-key", apiKey)
			req.Header.Set("anthropic-version", anthropicAPIVersion)
		}),
		model: model,
	}
}

// Model returns the configured model id
func (p *Provider) Model() string {
	return p.model
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Tools     []tool    `json:"tools,omitempty"`
	Messages  []message `json:"messages"`
}

type tool struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildPrompt asks for the page's copy plus a spoken-friendly roast as one JSON object.
func buildPrompt(url string) string {
	return fmt.Sprintf(`Fetch and analyze the content of this website: %s

Use web search to retrieve the live marketing copy of the page first. Then reply with ONLY this JSON object and nothing else:

{
  "pageText": "the text you found on the page: headings, paragraphs, button labels and marketing copy",
  "roast": "a 2-3 paragraph sarcastic roast of how the site presents itself. Mock the corporate speak, the vague promises and the self-importance, quoting specific lines from the page. Leave the product itself alone. It will be read aloud, so it must flow when spoken."
}`, url)
}

// Analyze fetches the page through the web search tool and parses the model's JSON reply.
// Upstream failures are returned as upstream errors with the vendor's status and body.
func (p *Provider) Analyze(ctx context.Context, url string) (*core.Analysis, error) {
	req := &messagesRequest{
		Model:     p.model,
		MaxTokens: defaultMaxTokens,
		Tools:     []tool{{Type: "web_search_20250305", Name: "web_search"}},
		Messages:  []message{{Role: "user", Content: buildPrompt(url)}},
	}

	resp, err := p.client.DoRaw(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/messages",
		Body:     req,
	})
	if err != nil {
		return nil, err
	}

	return parseAnalysis(resp.Body)
}

// parseAnalysis pulls the final text block out of a Messages response and decodes it.
// Web search responses interleave tool-use blocks with several text blocks; the JSON
// document is in the last one that contains an object.
func parseAnalysis(body []byte) (*core.Analysis, error) {
	if !gjson.ValidBytes(body) {
		return nil, core.NewTransportError(ProviderName, "Anthropic returned a non-JSON response", nil)
	}

	texts := gjson.GetBytes(body, `content.#(type=="text")#.text`).Array()
	if len(texts) == 0 {
		return nil, core.NewTransportError(ProviderName, "Anthropic response contained no text", nil)
	}

	var lastErr error
	for i := len(texts) - 1; i >= 0; i-- {
		analysis, err := decodeEnvelope(texts[i].String())
		if err == nil {
			return analysis, nil
		}
		if lastErr == nil {
			lastErr = err
		}
	}

	// The whole reply may also be split across adjacent text blocks.
	var joined strings.Builder
	for _, t := range texts {
		joined.WriteString(t.String())
	}
	if analysis, err := decodeEnvelope(joined.String()); err == nil {
		return analysis, nil
	}

	return nil, core.NewTransportError(ProviderName, "Anthropic returned an invalid analysis: "+lastErr.Error(), lastErr)
}

// decodeEnvelope finds the outermost JSON object in text and validates it.
func decodeEnvelope(text string) (*core.Analysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in reply")
	}
	raw := text[start : end+1]
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("reply is not valid JSON")
	}

	var analysis core.Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("reply does not match envelope: %w", err)
	}
	if err := analysis.Validate(); err != nil {
		return nil, err
	}
	return &analysis, nil
}
