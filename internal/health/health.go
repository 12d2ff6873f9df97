// Package health implements the Health Tracker: per-provider rolling error
// rate, consecutive failure count, last observed latency, and the derived
// healthy bit.
package health

import (
	"sync"
	"time"

	"github.com/tributary-ai/llm-router/internal/types"
)

const consecutiveFailureThreshold = 5

type entry struct {
	healthy             bool
	lastCheck           time.Time
	latencyMs           int64
	hasLatency          bool
	errorRate           float64
	consecutiveFailures int
}

// Tracker is the mutable, mutex-guarded shared state described in §5 —
// the Go stand-in for the original cooperative single-loop serialization.
type Tracker struct {
	mu       sync.RWMutex
	byProvider map[string]*entry
}

// New creates a Tracker seeded with one healthy entry per provider name.
func New(providers []string) *Tracker {
	t := &Tracker{byProvider: make(map[string]*entry, len(providers))}
	for _, p := range providers {
		t.byProvider[p] = &entry{healthy: true}
	}
	return t
}

func (t *Tracker) get(provider string) *entry {
	e, ok := t.byProvider[provider]
	if !ok {
		e = &entry{healthy: true}
		t.byProvider[provider] = e
	}
	return e
}

// RecordSuccess resets ConsecutiveFailures to 0, restores healthy, decays the
// error rate by 0.9, and records the measured latency.
func (t *Tracker) RecordSuccess(provider string, latencyMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.get(provider)
	e.consecutiveFailures = 0
	e.healthy = true
	e.errorRate *= 0.9
	e.latencyMs = latencyMs
	e.hasLatency = true
	e.lastCheck = time.Now()
}

// RecordFailure increments ConsecutiveFailures, flips healthy false at the
// threshold, and nudges the error rate toward 1 via 0.9*rate + 0.1.
func (t *Tracker) RecordFailure(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.get(provider)
	e.consecutiveFailures++
	e.errorRate = 0.9*e.errorRate + 0.1
	if e.consecutiveFailures >= consecutiveFailureThreshold {
		e.healthy = false
	}
	e.lastCheck = time.Now()
}

// IsHealthy reports the current healthy bit for a provider (defaults true
// for a provider never recorded against, matching the router's optimistic
// pre-health-check default).
func (t *Tracker) IsHealthy(provider string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.byProvider[provider]
	if !ok {
		return true
	}
	return e.healthy
}

// LatencyMs returns the last observed latency, or -1 if none has been recorded.
func (t *Tracker) LatencyMs(provider string) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.byProvider[provider]
	if !ok || !e.hasLatency {
		return -1
	}
	return e.latencyMs
}

// ErrorRate returns the current EWMA error rate for a provider.
func (t *Tracker) ErrorRate(provider string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.byProvider[provider]
	if !ok {
		return 0
	}
	return e.errorRate
}

// Snapshot returns the exported ProviderHealth view for one provider.
func (t *Tracker) Snapshot(provider string) types.ProviderHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.byProvider[provider]
	if !ok {
		return types.ProviderHealth{Healthy: true}
	}
	return types.ProviderHealth{
		Healthy:             e.healthy,
		LastCheck:           e.lastCheck,
		LatencyMs:           e.latencyMs,
		ErrorRate:           e.errorRate,
		ConsecutiveFailures: e.consecutiveFailures,
	}
}

// SetHealthy force-sets the healthy bit, used by an explicit HealthCheck probe.
func (t *Tracker) SetHealthy(provider string, healthy bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.get(provider)
	e.healthy = healthy
	e.lastCheck = time.Now()
}
