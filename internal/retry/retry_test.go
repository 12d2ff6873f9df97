package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tributary-ai/llm-router/internal/errs"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 1000, cfg.InitialDelayMs)
	assert.Equal(t, 30000, cfg.MaxDelayMs)
	assert.Equal(t, 2.0, cfg.Multiplier)
	assert.Contains(t, cfg.RetryableCodes, string(errs.RateLimited))
}

func TestDoSucceedsFirstTry(t *testing.T) {
	e := New()
	cfg := DefaultConfig()
	cfg.InitialDelayMs = 1
	cfg.MaxDelayMs = 2

	calls := 0
	err := e.Do(context.Background(), "openai", cfg, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesRetryableErrorsUpToMax(t *testing.T) {
	e := New()
	cfg := DefaultConfig()
	cfg.MaxRetries = 2
	cfg.InitialDelayMs = 1
	cfg.MaxDelayMs = 2

	calls := 0
	err := e.Do(context.Background(), "openai", cfg, func() error {
		calls++
		return errs.New(errs.RateLimited, "openai", errors.New("429"))
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls) // first attempt + 2 retries
}

func TestDoDoesNotRetryNonRetryableErrors(t *testing.T) {
	e := New()
	cfg := DefaultConfig()
	cfg.InitialDelayMs = 1
	cfg.MaxDelayMs = 2

	calls := 0
	err := e.Do(context.Background(), "openai", cfg, func() error {
		calls++
		return errs.New(errs.AuthenticationFailed, "openai", nil)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoStopsOnContextCancellation(t *testing.T) {
	e := New()
	cfg := DefaultConfig()
	cfg.InitialDelayMs = 50
	cfg.MaxDelayMs = 50
	cfg.MaxRetries = 10

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := e.Do(ctx, "openai", cfg, func() error {
		calls++
		return errs.New(errs.RateLimited, "openai", nil)
	})
	require.Error(t, err)
	assert.Less(t, calls, 10)
}

func TestDoSucceedsAfterTransientFailure(t *testing.T) {
	e := New()
	cfg := DefaultConfig()
	cfg.InitialDelayMs = 1
	cfg.MaxDelayMs = 2

	calls := 0
	err := e.Do(context.Background(), "openai", cfg, func() error {
		calls++
		if calls < 2 {
			return errs.New(errs.NetworkError, "openai", nil)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
