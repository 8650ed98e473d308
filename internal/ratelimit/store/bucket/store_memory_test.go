package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"safedesk/pkg/requestcontext"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	now   time.Time
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.store = NewInMemoryBucketStore()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryBucketStoreSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(offset))
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed with full remaining", func() {
		result, err := s.store.Allow(s.at(0), "test:allow:first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.Equal(s.now.Add(testWindow), result.ResetAt)
	})

	s.Run("over limit denied with retry hint", func() {
		for i := range testLimit {
			result, err := s.store.Allow(s.at(time.Duration(i)*time.Second), "test:allow:over", testLimit, testWindow)
			s.Require().NoError(err)
			s.Require().True(result.Allowed)
		}
		result, err := s.store.Allow(s.at(20*time.Second), "test:allow:over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(40, result.RetryAfter)
	})

	s.Run("window slides instead of resetting", func() {
		key := "test:allow:slide"
		for i := range testLimit {
			_, err := s.store.Allow(s.at(time.Duration(i)*5*time.Second), key, testLimit, testWindow)
			s.Require().NoError(err)
		}

		result, err := s.store.Allow(s.at(59*time.Second), key, testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)

		// the first request ages out at one minute, the second is still counted
		result, err = s.store.Allow(s.at(61*time.Second), key, testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("rejections do not extend the lockout", func() {
		key := "test:allow:hammer"
		_, err := s.store.Allow(s.at(0), key, 1, testWindow)
		s.Require().NoError(err)
		for i := 1; i < 30; i++ {
			result, err := s.store.Allow(s.at(time.Duration(i)*time.Second), key, 1, testWindow)
			s.Require().NoError(err)
			s.Require().False(result.Allowed)
		}
		result, err := s.store.Allow(s.at(testWindow+time.Second), key, 1, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})

	s.Run("keys are independent", func() {
		_, err := s.store.Allow(s.at(0), "test:allow:a", 1, testWindow)
		s.Require().NoError(err)
		result, err := s.store.Allow(s.at(0), "test:allow:b", 1, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *InMemoryBucketStoreSuite) TestAllowN() {
	s.Run("cost of 5 consumes 5 tokens", func() {
		result, err := s.store.AllowN(s.at(0), "test:allown:five", 5, testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(5, result.Remaining)
	})

	s.Run("cost greater than remaining denied", func() {
		first, err := s.store.AllowN(s.at(0), "test:allown:deny", 7, testLimit, testWindow)
		s.Require().NoError(err)
		s.Require().True(first.Allowed)

		result, err := s.store.AllowN(s.at(0), "test:allown:deny", 4, testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)

		count, err := s.store.GetCurrentCount(s.at(0), "test:allown:deny")
		s.Require().NoError(err)
		s.Equal(7, count)
	})
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	_, err := s.store.AllowN(s.at(0), "test:reset", testLimit, testLimit, testWindow)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Reset(s.at(0), "test:reset"))

	result, err := s.store.Allow(s.at(0), "test:reset", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(testLimit-1, result.Remaining)
}

func (s *InMemoryBucketStoreSuite) TestSweep() {
	_, err := s.store.Allow(s.at(0), "test:sweep:old", testLimit, testWindow)
	s.Require().NoError(err)
	_, err = s.store.Allow(s.at(50*time.Second), "test:sweep:fresh", testLimit, testWindow)
	s.Require().NoError(err)

	s.Equal(1, s.store.Sweep(s.now.Add(90*time.Second)))

	count, err := s.store.GetCurrentCount(s.at(90*time.Second), "test:sweep:fresh")
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *InMemoryBucketStoreSuite) TestConcurrent() {
	limit := 100
	key := "test:concurrent"
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for range 200 {
		wg.Go(func() {
			result, err := s.store.Allow(s.at(0), key, limit, testWindow)
			s.Require().NoError(err)
			if result.Allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		})
	}

	wg.Wait()
	s.Equal(limit, allowedCount)
}
