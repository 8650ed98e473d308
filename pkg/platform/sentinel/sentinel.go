package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, blob backends and external
// adapters return these (optionally wrapped) so services can translate them
// into domain errors.
//
//   - ErrNotFound: entity or blob does not exist
//   - ErrConflict: uniqueness constraint hit (case number, email)
//   - ErrInvalidState: entity in wrong state for requested operation
//   - ErrUnavailable: external dependency unreachable or not configured
//   - ErrQueueFull: background work could not be accepted
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrQueueFull    = errors.New("queue full")
)
