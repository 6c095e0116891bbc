// Package ai talks to a generative-language REST endpoint that returns JSON
// documents for free-form prompts.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const generativeLanguageScope = "https://www.googleapis.com/auth/generative-language"

// ErrEmptyResponse is returned when the endpoint answers without any candidate text.
var ErrEmptyResponse = errors.New("ai: empty response")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai: unexpected status %d: %s", e.StatusCode, e.Body)
}

// RateLimited reports whether the upstream rejected the call for quota reasons.
func (e *StatusError) RateLimited() bool { return e.StatusCode == http.StatusTooManyRequests }

// Options configure a Client.
type Options struct {
	BaseURL string
	Model   string
	APIKey  string
	// UseGoogleCredentials authenticates with Application Default Credentials
	// instead of an API key.
	UseGoogleCredentials bool
	Timeout              time.Duration
	HTTPClient           *http.Client
}

// Client calls the generateContent endpoint in JSON response mode.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient builds a client. With UseGoogleCredentials the underlying HTTP
// client carries an oauth2 token source.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.BaseURL == "" || opts.Model == "" {
		return nil, fmt.Errorf("ai: base url and model are required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.UseGoogleCredentials {
		ts, err := google.DefaultTokenSource(ctx, generativeLanguageScope)
		if err != nil {
			return nil, fmt.Errorf("ai: load google credentials: %w", err)
		}
		httpClient = &http.Client{
			Timeout:   httpClient.Timeout,
			Transport: &oauth2.Transport{Source: ts, Base: httpClient.Transport},
		}
	} else if opts.APIKey == "" {
		return nil, fmt.Errorf("ai: api key is required")
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(opts.BaseURL, "/"), url.PathEscape(opts.Model))
	return &Client{endpoint: endpoint, apiKey: opts.APIKey, http: httpClient}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateJSON sends prompt and decodes the returned JSON document into out.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, out interface{}) error {
	raw, err := c.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripFence(raw)), out); err != nil {
		return fmt.Errorf("ai: decode model output: %w", err)
	}
	return nil
}

// Generate sends prompt and returns the first candidate's text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return "", fmt.Errorf("ai: encode request: %w", err)
	}

	target := c.endpoint
	if c.apiKey != "" {
		target += "?key=" + url.QueryEscape(c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: call endpoint: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("ai: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(payload), 256)}
	}

	var decoded generateResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// stripFence removes a ```json fence some models wrap around JSON output.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
