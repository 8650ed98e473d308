package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"safedesk/internal/platform/config"
	"safedesk/internal/ratelimit/models"
	"safedesk/internal/ratelimit/store/bucket"
	"safedesk/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*models.RateLimitResult, error) {
	return nil, errors.New("connection refused")
}

type LimiterSuite struct {
	suite.Suite
	limiter *Limiter
	now     time.Time
}

func TestLimiterSuite(t *testing.T) {
	suite.Run(t, new(LimiterSuite))
}

func (s *LimiterSuite) SetupTest() {
	var err error
	s.limiter, err = New(bucket.New(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *LimiterSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(offset))
}

func (s *LimiterSuite) TestSubmissionBudget() {
	s.Run("sixth submission in fifteen minutes is rejected", func() {
		for i := range 5 {
			result, err := s.limiter.CheckIP(s.at(time.Duration(i)*time.Minute), "10.1.1.1", models.ClassSubmit)
			s.Require().NoError(err)
			s.Require().True(result.Allowed)
		}
		result, err := s.limiter.CheckIP(s.at(10*time.Minute), "10.1.1.1", models.ClassSubmit)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(5*60, result.RetryAfter)
	})

	s.Run("other addresses keep their own budget", func() {
		result, err := s.limiter.CheckIP(s.at(10*time.Minute), "10.1.1.2", models.ClassSubmit)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})

	s.Run("classes do not share a budget", func() {
		result, err := s.limiter.CheckIP(s.at(10*time.Minute), "10.1.1.1", models.ClassGuidance)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(20, result.Limit)
	})
}

func (s *LimiterSuite) TestUnknownClassIsDenied() {
	result, err := s.limiter.CheckIP(s.at(0), "10.1.1.1", models.EndpointClass("export"))
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Equal(60, result.RetryAfter)
}

func (s *LimiterSuite) TestStoreErrorsPropagate() {
	limiter, err := New(failingStore{})
	s.Require().NoError(err)

	_, err = limiter.CheckIP(s.at(0), "10.1.1.1", models.ClassLogin)
	s.Error(err)
}

func (s *LimiterSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}

func TestLimitsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Case.SubmissionsPerWindow = 3
	cfg.Case.SubmissionWindow = time.Hour
	cfg.RateLimit.SOSPerMinute = 0
	cfg.RateLimit.MessagesPerMinute = 12

	limits := LimitsFromConfig(&cfg)

	if got := limits[models.ClassSubmit]; got.RequestsPerWindow != 3 || got.Window != time.Hour {
		t.Fatalf("submit limit = %+v", got)
	}
	if got := limits[models.ClassSOS]; got.RequestsPerWindow != 5 {
		t.Fatalf("zero config should keep the default, got %+v", got)
	}
	if got := limits[models.ClassEvidence]; got.RequestsPerWindow != 20 || got.Window != time.Minute {
		t.Fatalf("evidence limit = %+v", got)
	}
	if got := limits[models.ClassMessages]; got.RequestsPerWindow != 12 || got.Window != time.Minute {
		t.Fatalf("messages limit = %+v", got)
	}
}
