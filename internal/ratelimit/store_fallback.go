package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"relief/pkg/platform/circuit"
)

// FallbackStore checks a shared primary store and switches to an in-process
// store while the breaker is open. Results served by the fallback are marked
// Degraded.
type FallbackStore struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewFallbackStore wraps primary. A nil breaker gets the circuit defaults.
func NewFallbackStore(primary, fallback Store, breaker *circuit.Breaker, logger *slog.Logger) *FallbackStore {
	if breaker == nil {
		breaker = circuit.New("ratelimit")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackStore{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

// Allow always tries the primary so the breaker can close again. Below the
// failure threshold the primary error is returned and the middleware fails open.
func (s *FallbackStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	result, err := s.primary.Allow(ctx, key, limit, window)
	if err == nil {
		usePrimary, change := s.breaker.RecordSuccess()
		if change.Closed {
			s.logger.InfoContext(ctx, "rate limit store recovered", "breaker", s.breaker.Name())
		}
		if usePrimary {
			return result, nil
		}
		return s.degraded(ctx, key, limit, window)
	}

	useFallback, change := s.breaker.RecordFailure()
	if change.Opened {
		s.logger.WarnContext(ctx, "rate limit store unavailable, using in-process fallback",
			"breaker", s.breaker.Name(),
			"error", err,
		)
	}
	if !useFallback {
		return nil, err
	}
	return s.degraded(ctx, key, limit, window)
}

func (s *FallbackStore) degraded(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	result, err := s.fallback.Allow(ctx, key, limit, window)
	if err != nil {
		return nil, err
	}
	result.Degraded = true
	return result, nil
}
