package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so the coordinator can translate them into domain errors.
//
// These represent factual states about the store, not validation failures:
// - ErrNotFound: row does not exist in store
// - ErrConflict: write collided with a uniqueness, foreign key or serialization constraint
// - ErrUnavailable: store temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
