package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"safedesk/pkg/platform/circuit"
	"safedesk/pkg/platform/sentinel"
)

type ClassifierSuite struct {
	suite.Suite
	ctx context.Context
}

func TestClassifierSuite(t *testing.T) {
	suite.Run(t, new(ClassifierSuite))
}

func (s *ClassifierSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *ClassifierSuite) server(status int, body string, check func(*http.Request, request)) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		if check != nil {
			check(r, req)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	s.T().Cleanup(srv.Close)
	return srv
}

func (s *ClassifierSuite) TestSendsDataURIWithBearerKey() {
	srv := s.server(http.StatusOK, `{"isAI":false,"aiScore":0.91,"model":"v3"}`, func(r *http.Request, req request) {
		s.Equal("Bearer key-1", r.Header.Get("Authorization"))
		s.True(req.Rich)
		s.True(strings.HasPrefix(req.Image, "data:image/png;base64,"))
	})

	v, err := New(srv.URL, "key-1", time.Second).Classify(s.ctx, []byte("png-bytes"), ".png")
	s.Require().NoError(err)
	s.False(v.IsSynthetic)
	s.Require().NotNil(v.Score)
	s.InDelta(0.91, *v.Score, 1e-9)
	s.Equal("v3", v.Details["model"])
	s.False(v.Flagged())
}

func (s *ClassifierSuite) TestSyntheticVerdict() {
	srv := s.server(http.StatusOK, `{"isAI":true}`, nil)
	v, err := New(srv.URL, "k", time.Second).Classify(s.ctx, []byte("x"), "jpg")
	s.Require().NoError(err)
	s.True(v.Flagged())
	s.Nil(v.Score)
}

func (s *ClassifierSuite) TestFailures() {
	s.Run("not configured", func() {
		_, err := New("", "", time.Second).Classify(s.ctx, []byte("x"), "png")
		s.ErrorIs(err, sentinel.ErrUnavailable)
	})

	s.Run("error status", func() {
		srv := s.server(http.StatusInternalServerError, `oops`, nil)
		_, err := New(srv.URL, "k", time.Second).Classify(s.ctx, []byte("x"), "png")
		s.Error(err)
	})

	s.Run("unrecognized body", func() {
		srv := s.server(http.StatusOK, `{"hello":"world"}`, nil)
		_, err := New(srv.URL, "k", time.Second).Classify(s.ctx, []byte("x"), "png")
		s.Error(err)
	})

	s.Run("breaker opens after repeated failures", func() {
		srv := s.server(http.StatusBadGateway, ``, nil)
		client := New(srv.URL, "k", time.Second,
			WithBreaker(circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))))

		for range 2 {
			_, err := client.Classify(s.ctx, []byte("x"), "png")
			s.Error(err)
		}
		_, err := client.Classify(s.ctx, []byte("x"), "png")
		s.ErrorIs(err, sentinel.ErrUnavailable)
	})
}
