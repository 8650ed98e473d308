package models

import (
	"time"
)

// EndpointClass categorizes public endpoints for differentiated rate limiting.
type EndpointClass string

const (
	// ClassSubmit: anonymous case submission (5 per 15 minutes)
	ClassSubmit EndpointClass = "submit"
	// ClassVerify: case ID and PIN checks (10 per minute)
	ClassVerify EndpointClass = "verify"
	// ClassEvidence: evidence uploads (20 per minute)
	ClassEvidence EndpointClass = "evidence"
	// ClassLogin: reviewer login (10 per minute)
	ClassLogin EndpointClass = "login"
	// ClassImprove: text improvement assistant (10 per minute)
	ClassImprove EndpointClass = "improve"
	// ClassGuidance: guidance assistant (20 per minute)
	ClassGuidance EndpointClass = "guidance"
	// ClassSOS: emergency alerts (5 per minute)
	ClassSOS EndpointClass = "sos"
	// ClassMessages: PIN-proven conversation reads and writes (30 per minute)
	ClassMessages EndpointClass = "messages"
)

// IsValid checks if the endpoint class is one of the supported enum values.
func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassSubmit, ClassVerify, ClassEvidence, ClassLogin, ClassImprove, ClassGuidance, ClassSOS, ClassMessages:
		return true
	}
	return false
}

// Limit is the request budget of one endpoint class.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// Denied builds a rejected result whose retry hint points at resetAt.
func Denied(limit int, now, resetAt time.Time) *RateLimitResult {
	retry := int(resetAt.Sub(now).Seconds() + 0.999)
	if retry < 1 {
		retry = 1
	}
	return &RateLimitResult{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: retry,
	}
}
