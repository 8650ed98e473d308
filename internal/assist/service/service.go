// Package service turns reporter drafts and questions into prompts for the
// text service and validates what comes back.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode/utf8"

	complaintmodels "safedesk/internal/complaint/models"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	MinDescriptionLength = 20
	MaxInputLength       = 5000
)

// Improvement is the assistant's rewrite of a draft description.
type Improvement struct {
	ImprovedText     string                   `json:"improvedText"`
	DetectedSeverity complaintmodels.Severity `json:"detectedSeverity"`
	GuidanceMessage  string                   `json:"guidanceMessage"`
}

// Answer is the assistant's reply to a guidance question.
type Answer struct {
	Response string `json:"response"`
}

var errUnavailable = dErrors.New(dErrors.CodeDependencyUnavailable, "Assistant is unavailable, please try again later")

type Service struct {
	generator Generator
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(generator Generator, opts ...Option) *Service {
	s := &Service{
		generator: generator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Improve rewrites a draft description in neutral, factual language and
// suggests a severity. Nothing is stored.
func (s *Service) Improve(ctx context.Context, description string) (*Improvement, error) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) < MinDescriptionLength {
		return nil, dErrors.New(dErrors.CodeValidation, "Description too short")
	}
	if utf8.RuneCountInString(description) > MaxInputLength {
		return nil, dErrors.New(dErrors.CodeValidation, "Description too long")
	}

	text, err := s.generator.Generate(ctx, improvePrompt(description))
	if err != nil {
		s.logger.WarnContext(ctx, "assistant improve failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, errUnavailable
	}

	imp, err := parseImprovement(text)
	if err != nil {
		s.logger.WarnContext(ctx, "assistant returned unusable improvement",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "assistant response parsing failed")
	}
	return imp, nil
}

// Guidance answers a question about the reporting process.
func (s *Service) Guidance(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Question is required")
	}
	if utf8.RuneCountInString(question) > MaxInputLength {
		return nil, dErrors.New(dErrors.CodeValidation, "Question too long")
	}

	text, err := s.generator.Generate(ctx, guidancePrompt(question))
	if err != nil {
		s.logger.WarnContext(ctx, "assistant guidance failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, errUnavailable
	}
	return &Answer{Response: text}, nil
}

func improvePrompt(description string) string {
	var b strings.Builder
	b.WriteString("You help people document workplace harassment reports for an internal complaints committee.\n")
	b.WriteString("Rewrite the report below in clear, factual, professional language. Keep every fact, add none.\n")
	b.WriteString("Classify severity as Low (single minor incident), Medium (repeated or moderate) or High (severe, threatening or physical).\n")
	b.WriteString("Add one or two supportive sentences for the reporter.\n")
	b.WriteString(`Reply with JSON only: {"improvedText": "...", "detectedSeverity": "Low|Medium|High", "guidanceMessage": "..."}`)
	b.WriteString("\n\nReport:\n")
	b.WriteString(quote(description))
	return b.String()
}

func guidancePrompt(question string) string {
	var b strings.Builder
	b.WriteString("You answer questions about workplace sexual harassment law and the internal complaints committee process.\n")
	b.WriteString("Be supportive and factual. Do not judge individuals or predict outcomes of an investigation.\n")
	b.WriteString("Keep the answer under 200 words.\n\nQuestion:\n")
	b.WriteString(quote(question))
	return b.String()
}

// quote marks user text as data so instructions inside it read as content.
func quote(s string) string {
	return `"""` + strings.ReplaceAll(s, `"""`, `"`) + `"""`
}

// parseImprovement extracts the first JSON object from text. Models often
// wrap the object in prose or code fences.
func parseImprovement(text string) (*Improvement, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, dErrors.New(dErrors.CodeInternal, "no JSON object in assistant response")
	}

	var raw struct {
		ImprovedText     string `json:"improvedText"`
		DetectedSeverity string `json:"detectedSeverity"`
		GuidanceMessage  string `json:"guidanceMessage"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.ImprovedText) == "" {
		return nil, dErrors.New(dErrors.CodeInternal, "assistant response has no improved text")
	}

	severity, err := complaintmodels.ParseSeverity(titleCase(strings.TrimSpace(raw.DetectedSeverity)))
	if err != nil {
		severity = complaintmodels.SeverityMedium
	}
	return &Improvement{
		ImprovedText:     strings.TrimSpace(raw.ImprovedText),
		DetectedSeverity: severity,
		GuidanceMessage:  strings.TrimSpace(raw.GuidanceMessage),
	}, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
