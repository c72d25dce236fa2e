package rag

import (
	"context"
	"errors"
	"fmt"
)

// Failure taxonomy shared by every retrieval and answer component.
// The router is the only place that turns these into user-facing text.
var (
	// ErrNotFound means an identifier or document does not exist. User-correctable.
	ErrNotFound = errors.New("not found")

	// ErrNoGroundingFound means retrieval returned nothing above the relevance floor.
	ErrNoGroundingFound = errors.New("no grounding found")

	// ErrUpstreamTimeout means a retrieval or LLM call exceeded its deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrUpstreamUnavailable means a retrieval or LLM call failed.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrAmbiguousReference means a deictic reference had no candidate in session memory.
	ErrAmbiguousReference = errors.New("ambiguous reference")

	// ErrMissingIdentifier guards identifier-keyed actions.
	ErrMissingIdentifier = errors.New("missing identifier")
)

// Upstream classifies a raw error from an external call.
// Errors already in the taxonomy are returned unchanged.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsClassified(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUpstreamUnavailable, err)
}

// IsClassified reports whether err already carries a taxonomy sentinel.
func IsClassified(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrNoGroundingFound,
		ErrUpstreamTimeout,
		ErrUpstreamUnavailable,
		ErrAmbiguousReference,
		ErrMissingIdentifier,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether an idempotent read may be attempted again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMissingIdentifier) || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
