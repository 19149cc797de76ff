// Package ratelimit bounds requests per client IP. Counters live in process
// for single instances or in Redis when several instances share a limit.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is set when the request was refused.
	RetryAfter time.Duration
	// Degraded is set when the shared store was bypassed.
	Degraded bool
}

// Store counts requests per key within a window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Key namespaces client identifiers so a shared Redis can hold other data.
func Key(clientIP string) string {
	return "relief:ratelimit:ip:" + clientIP
}
