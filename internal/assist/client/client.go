// Package client calls the external text-generation service behind the
// writing assistant.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"safedesk/pkg/platform/circuit"
	"safedesk/pkg/platform/sentinel"
)

const maxResponseBody = 1 << 20

// Client posts a prompt and returns the generated text.
type Client struct {
	url     string
	apiKey  string
	http    *http.Client
	breaker *circuit.Breaker
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		cl.breaker = b
	}
}

func New(url, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		url:     url,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		breaker: circuit.New("assist"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
}

type response struct {
	Text string `json:"text"`
}

// Generate returns the service's completion of prompt. Returns
// sentinel.ErrUnavailable when the service is not configured or the breaker
// is open.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.url == "" || c.apiKey == "" {
		return "", fmt.Errorf("assistant not configured: %w", sentinel.ErrUnavailable)
	}
	if !c.breaker.Allow() {
		return "", fmt.Errorf("assistant circuit open: %w", sentinel.ErrUnavailable)
	}

	text, err := c.call(ctx, prompt)
	if err != nil {
		c.breaker.RecordFailure()
		return "", err
	}
	c.breaker.RecordSuccess()
	return text, nil
}

func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(request{Prompt: prompt, Temperature: 0.2})
	if err != nil {
		return "", fmt.Errorf("encode assistant request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build assistant request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call assistant: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("read assistant response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assistant returned status %d", resp.StatusCode)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode assistant response: %w", err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", fmt.Errorf("assistant returned empty text")
	}
	return text, nil
}
