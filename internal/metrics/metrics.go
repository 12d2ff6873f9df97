// Package metrics implements the Metrics Registry: monotonic counters for
// requests, tokens, and cost, plus a running mean latency over successful
// requests via Welford's incremental algorithm. Counters are exposed both as
// a plain snapshot struct (the Facade's GetMetrics) and as prometheus
// collectors scoped to a private registry, so resets and independent router
// instances never collide with the global default registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tributary-ai/llm-router/internal/types"
)

// Registry aggregates router-wide and per-provider counters.
type Registry struct {
	mu sync.Mutex

	totalRequests      int64
	successfulRequests int64
	failedRequests     int64
	totalTokens        int64
	totalCostUSD       float64

	latencyCount int64
	latencyMean  float64 // Welford running mean, successful requests only

	perProvider map[string]*providerTally

	promRegistry *prometheus.Registry
	reqCounter   *prometheus.CounterVec
	tokenCounter *prometheus.CounterVec
	costCounter  *prometheus.CounterVec
}

type providerTally struct {
	requests int64
	tokens   int64
	costUSD  float64
}

// New builds an empty Metrics Registry backed by its own prometheus registry.
func New() *Registry {
	r := &Registry{
		perProvider:  make(map[string]*providerTally),
		promRegistry: prometheus.NewRegistry(),
	}
	r.reqCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_router_requests_total",
		Help: "Total completion requests by provider and outcome.",
	}, []string{"provider", "outcome"})
	r.tokenCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_router_tokens_total",
		Help: "Total tokens consumed by provider.",
	}, []string{"provider"})
	r.costCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_router_cost_usd_total",
		Help: "Total USD cost by provider.",
	}, []string{"provider"})
	r.promRegistry.MustRegister(r.reqCounter, r.tokenCounter, r.costCounter)
	return r
}

// PrometheusRegistry exposes the private registry for collaborators who want
// to mount a /metrics scrape endpoint themselves; the router never owns an
// HTTP listener (per the library-only contract).
func (r *Registry) PrometheusRegistry() *prometheus.Registry { return r.promRegistry }

func (r *Registry) tally(provider string) *providerTally {
	t, ok := r.perProvider[provider]
	if !ok {
		t = &providerTally{}
		r.perProvider[provider] = t
	}
	return t
}

// RecordSuccess updates totals, the per-provider tally, and the running mean
// latency (Welford's incremental formula) for a successful terminal outcome.
func (r *Registry) RecordSuccess(provider string, usage types.Usage, cost types.Cost, latencyMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalRequests++
	r.successfulRequests++
	r.totalTokens += int64(usage.TotalTokens)
	r.totalCostUSD += cost.TotalCost

	r.latencyCount++
	delta := float64(latencyMs) - r.latencyMean
	r.latencyMean += delta / float64(r.latencyCount)

	t := r.tally(provider)
	t.requests++
	t.tokens += int64(usage.TotalTokens)
	t.costUSD += cost.TotalCost

	r.reqCounter.WithLabelValues(provider, "success").Inc()
	r.tokenCounter.WithLabelValues(provider).Add(float64(usage.TotalTokens))
	r.costCounter.WithLabelValues(provider).Add(cost.TotalCost)
}

// RecordFailure updates the total and failed counters. It must be called
// exactly once per terminal request outcome — never once per failing
// provider attempt inside a fallback loop, or a single request exhausting
// N providers would be overcounted as N failed requests.
func (r *Registry) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalRequests++
	r.failedRequests++
}

// RecordProviderAttemptFailure tracks one failing attempt against one
// provider at the prometheus label level only; it never touches the
// snapshot's TotalRequests/FailedRequests counters, which are request-level
// (see RecordFailure), not attempt-level.
func (r *Registry) RecordProviderAttemptFailure(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqCounter.WithLabelValues(provider, "failure").Inc()
}

// Snapshot returns the current immutable view.
func (r *Registry) Snapshot() types.MetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	per := make(map[string]types.ProviderTally, len(r.perProvider))
	for name, t := range r.perProvider {
		per[name] = types.ProviderTally{Requests: t.requests, Tokens: t.tokens, CostUSD: t.costUSD}
	}
	return types.MetricsSnapshot{
		TotalRequests:      r.totalRequests,
		SuccessfulRequests: r.successfulRequests,
		FailedRequests:     r.failedRequests,
		TotalTokens:        r.totalTokens,
		TotalCostUSD:       r.totalCostUSD,
		AverageLatencyMs:   r.latencyMean,
		PerProvider:        per,
	}
}

// Reset zeroes every counter. This is the only supported mutation besides
// RecordSuccess/RecordFailure/RecordProviderAttemptFailure.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalRequests = 0
	r.successfulRequests = 0
	r.failedRequests = 0
	r.totalTokens = 0
	r.totalCostUSD = 0
	r.latencyCount = 0
	r.latencyMean = 0
	r.perProvider = make(map[string]*providerTally)
	r.reqCounter.Reset()
	r.tokenCounter.Reset()
	r.costCounter.Reset()
}
