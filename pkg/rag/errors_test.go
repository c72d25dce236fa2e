package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpstream(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Upstream("search", nil))
	})

	t.Run("deadline becomes timeout", func(t *testing.T) {
		err := Upstream("search", fmt.Errorf("wrapped: %w", context.DeadlineExceeded))
		assert.ErrorIs(t, err, ErrUpstreamTimeout)
		assert.NotErrorIs(t, err, ErrUpstreamUnavailable)
	})

	t.Run("other errors become unavailable", func(t *testing.T) {
		err := Upstream("search", errors.New("connection refused"))
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	})

	t.Run("classified errors pass through", func(t *testing.T) {
		err := fmt.Errorf("isbn 123: %w", ErrNotFound)
		assert.Equal(t, err, Upstream("lookup", err))
	})
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(fmt.Errorf("x: %w", ErrMissingIdentifier)))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(errors.New("io timeout")))
	assert.True(t, IsRetryable(ErrUpstreamUnavailable))
}
