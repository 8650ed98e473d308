package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"safedesk/pkg/platform/circuit"
	"safedesk/pkg/platform/sentinel"
)

type ClientSuite struct {
	suite.Suite
	ctx context.Context
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *ClientSuite) server(status int, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		s.Equal("Bearer key-1", r.Header.Get("Authorization"))
		s.NotEmpty(req.Prompt)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	s.T().Cleanup(srv.Close)
	return srv
}

func (s *ClientSuite) TestGenerate() {
	s.Run("returns trimmed text", func() {
		srv := s.server(http.StatusOK, `{"text":"  You can report anonymously.  "}`)

		text, err := New(srv.URL, "key-1", time.Second).Generate(s.ctx, "how do I report?")
		s.Require().NoError(err)
		s.Equal("You can report anonymously.", text)
	})

	s.Run("non-200 is an error", func() {
		srv := s.server(http.StatusBadGateway, `{}`)

		_, err := New(srv.URL, "key-1", time.Second).Generate(s.ctx, "prompt")
		s.Require().Error(err)
		s.Contains(err.Error(), "502")
	})

	s.Run("empty text is an error", func() {
		srv := s.server(http.StatusOK, `{"text":"   "}`)

		_, err := New(srv.URL, "key-1", time.Second).Generate(s.ctx, "prompt")
		s.Error(err)
	})
}

func (s *ClientSuite) TestUnavailable() {
	s.Run("unconfigured", func() {
		_, err := New("", "", time.Second).Generate(s.ctx, "prompt")
		s.True(errors.Is(err, sentinel.ErrUnavailable))
	})

	s.Run("open breaker short-circuits", func() {
		srv := s.server(http.StatusInternalServerError, `{}`)
		breaker := circuit.New("test", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))
		c := New(srv.URL, "key-1", time.Second, WithBreaker(breaker))

		_, err := c.Generate(s.ctx, "prompt")
		s.Require().Error(err)
		s.False(errors.Is(err, sentinel.ErrUnavailable))

		_, err = c.Generate(s.ctx, "prompt")
		s.True(errors.Is(err, sentinel.ErrUnavailable))
	})
}
