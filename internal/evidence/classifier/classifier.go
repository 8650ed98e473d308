// Package classifier calls the external image-authenticity service.
package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"safedesk/internal/evidence/models"
	"safedesk/pkg/platform/circuit"
	"safedesk/pkg/platform/sentinel"
)

const maxResponseBody = 1 << 20

// Observer receives call timings; nil is allowed.
type Observer interface {
	ObserveClassifier(outcome string, d time.Duration)
}

// Client posts images as base64 data URIs and maps the response to a verdict.
type Client struct {
	url      string
	apiKey   string
	http     *http.Client
	breaker  *circuit.Breaker
	observer Observer
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

func WithObserver(o Observer) Option {
	return func(cl *Client) {
		cl.observer = o
	}
}

func New(url, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		url:     url,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		breaker: circuit.New("classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	Image string `json:"image"`
	Rich  bool   `json:"rich"`
}

// response accepts the fields the service is known to return. Unknown
// fields are preserved in the verdict details.
type response struct {
	IsAI    *bool    `json:"isAI"`
	AIScore *float64 `json:"aiScore"`
}

// Classify scores one image. ext is the stored extension without the dot
// ("png"). Returns sentinel.ErrUnavailable when the service is not
// configured or the breaker is open.
func (c *Client) Classify(ctx context.Context, image []byte, ext string) (*models.Verdict, error) {
	ctx, span := otel.Tracer("safedesk/evidence").Start(ctx, "classifier.Classify",
		trace.WithAttributes(
			attribute.Int("image.bytes", len(image)),
			attribute.String("image.ext", ext),
		),
	)
	defer span.End()

	if c.url == "" || c.apiKey == "" {
		span.SetStatus(codes.Error, "not configured")
		return nil, fmt.Errorf("classifier not configured: %w", sentinel.ErrUnavailable)
	}
	if !c.breaker.Allow() {
		span.SetStatus(codes.Error, "circuit open")
		c.observe("circuit_open", 0)
		return nil, fmt.Errorf("classifier circuit open: %w", sentinel.ErrUnavailable)
	}

	start := time.Now()
	verdict, err := c.call(ctx, image, ext)
	if err != nil {
		c.breaker.RecordFailure()
		c.observe("error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		return nil, err
	}
	c.breaker.RecordSuccess()
	c.observe("ok", time.Since(start))
	span.SetAttributes(attribute.Bool("verdict.flagged", verdict.Flagged()))
	return verdict, nil
}

func (c *Client) call(ctx context.Context, image []byte, ext string) (*models.Verdict, error) {
	body, err := json.Marshal(request{
		Image: "data:image/" + strings.TrimPrefix(ext, ".") + ";base64," + base64.StdEncoding.EncodeToString(image),
		Rich:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode classifier request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build classifier request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read classifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}
	return parseVerdict(raw)
}

func parseVerdict(raw []byte) (*models.Verdict, error) {
	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}
	if resp.IsAI == nil && resp.AIScore == nil {
		return nil, fmt.Errorf("classifier response has neither isAI nor aiScore")
	}
	var details map[string]any
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, fmt.Errorf("decode classifier details: %w", err)
	}

	v := &models.Verdict{Score: resp.AIScore, Details: details}
	if resp.IsAI != nil {
		v.IsSynthetic = *resp.IsAI
	}
	return v, nil
}

func (c *Client) observe(outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveClassifier(outcome, d)
	}
}
