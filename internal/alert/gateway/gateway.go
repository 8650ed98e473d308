// Package gateway sends SMS through a Twilio-compatible REST endpoint.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"safedesk/pkg/platform/sentinel"
)

const maxResponseBody = 64 << 10

// Receipt is the gateway's acknowledgement of a queued message.
type Receipt struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Client posts form-encoded messages with basic auth.
type Client struct {
	url        string
	accountSID string
	authToken  string
	from       string
	http       *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

func New(url, accountSID, authToken, from string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		url:        url,
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		http:       &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers body to the E.164 number to.
func (c *Client) Send(ctx context.Context, to, body string) (*Receipt, error) {
	if c.url == "" || c.accountSID == "" || c.authToken == "" || c.from == "" {
		return nil, fmt.Errorf("sms gateway not configured: %w", sentinel.ErrUnavailable)
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build sms request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call sms gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read sms response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	var receipt Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("decode sms response: %w", err)
	}
	if receipt.Status == "" {
		receipt.Status = "queued"
	}
	return &receipt, nil
}
