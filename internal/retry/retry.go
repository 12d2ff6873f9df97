// Package retry implements the Retry Executor: bounded exponential-backoff
// retries against a single provider for retryable error kinds only. Retries
// are always serial — no concurrent attempts against the same provider.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tributary-ai/llm-router/internal/errs"
	"github.com/tributary-ai/llm-router/internal/types"
)

// DefaultConfig returns the spec's default retry parameters: 3 retries,
// 1000ms initial delay, 30000ms max delay, multiplier 2, the default
// retryable set.
func DefaultConfig() types.RetryConfig {
	return types.RetryConfig{
		MaxRetries:     3,
		InitialDelayMs: 1000,
		MaxDelayMs:     30000,
		Multiplier:     2,
		RetryableCodes: []string{
			string(errs.RateLimited),
			string(errs.Timeout),
			string(errs.NetworkError),
			string(errs.ProviderUnavailable),
		},
	}
}

// Executor runs a thunk with bounded exponential backoff.
type Executor struct{}

// New builds a Retry Executor. It holds no state: retry parameters are
// supplied per call so different providers may use different policies.
func New() *Executor { return &Executor{} }

func retryable(cfg types.RetryConfig, code errs.Code) bool {
	if len(cfg.RetryableCodes) == 0 {
		return errs.IsRetryableByDefault(code)
	}
	for _, c := range cfg.RetryableCodes {
		if c == string(code) {
			return true
		}
	}
	return false
}

// Do attempts fn up to cfg.MaxRetries additional times after the first,
// sleeping the exponential backoff sequence between attempts. Only errors
// whose normalized code is retryable are retried; any other error, or
// context cancellation, propagates immediately. On exhaustion the last
// error is returned unchanged.
func (e *Executor) Do(ctx context.Context, provider string, cfg types.RetryConfig, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(cfg.InitialDelayMs) * time.Millisecond
	b.MaxInterval = time.Duration(cfg.MaxDelayMs) * time.Millisecond
	b.Multiplier = cfg.Multiplier
	b.RandomizationFactor = 0 // deterministic sequence per §8
	b.MaxElapsedTime = 0      // bounded by MaxRetries, not by wall clock

	attempts := 0
	operation := func() error {
		attempts++
		err := fn()
		if err == nil {
			return nil
		}
		re, ok := errs.As(err)
		if !ok {
			return backoff.Permanent(err)
		}
		if !retryable(cfg, re.Code) {
			return backoff.Permanent(err)
		}
		if attempts > cfg.MaxRetries {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.WithMaxRetries(b, uint64(cfg.MaxRetries))
	bo = backoff.WithContext(bo, ctx)

	err := backoff.Retry(operation, bo)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
