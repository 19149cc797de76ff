package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	clock time.Time
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.clock = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.store.now = func() time.Time { return s.clock }
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) allow(key string) *Result {
	result, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
	s.Require().NoError(err)
	return result
}

func (s *InMemoryStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result := s.allow("first")
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
	})

	s.Run("requests up to limit allowed", func() {
		var result *Result
		for range testLimit {
			result = s.allow("limit")
		}
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("request over limit denied", func() {
		for range testLimit {
			s.allow("over")
		}
		result := s.allow("over")
		s.False(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testWindow, result.RetryAfter)
	})

	s.Run("keys are independent", func() {
		for range testLimit {
			s.allow("a")
		}
		s.True(s.allow("b").Allowed)
	})
}

func (s *InMemoryStoreSuite) TestWindowSlides() {
	for range testLimit {
		s.allow("slide")
		s.clock = s.clock.Add(time.Second)
	}
	s.False(s.allow("slide").Allowed)

	// The first request leaves the window one minute after it arrived.
	s.clock = time.Date(2024, 1, 1, 12, 1, 0, 1, time.UTC)
	s.True(s.allow("slide").Allowed)
}

func (s *InMemoryStoreSuite) TestSweepDropsIdleKeys() {
	s.allow("idle")
	s.clock = s.clock.Add(2 * testWindow)
	s.allow("fresh")
	s.NotContains(s.store.buckets, "idle")
}

func (s *InMemoryStoreSuite) TestConcurrentAccessNeverExceedsLimit() {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(s.ctx, "race", testLimit, testWindow)
			s.NoError(err)
			if result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(testLimit, allowed)
}
