// Package routing implements the Router Core: ordered provider selection
// under the active policy (§4.6), the fallback loop across that ordering
// (§4.7), and budget/latency hint filtering (§4.8). This is the single
// copy of that loop — the teacher repo duplicates an equivalent loop once
// in its router and again independently in its HTTP server; here the
// Facade calls this package rather than re-implementing it.
package routing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-router/internal/accounting"
	"github.com/tributary-ai/llm-router/internal/catalog"
	"github.com/tributary-ai/llm-router/internal/errs"
	"github.com/tributary-ai/llm-router/internal/health"
	"github.com/tributary-ai/llm-router/internal/metrics"
	"github.com/tributary-ai/llm-router/internal/providers"
	"github.com/tributary-ai/llm-router/internal/retry"
	"github.com/tributary-ai/llm-router/internal/types"
)

// Core is the Router Core: selection + fallback loop + metric aggregation.
type Core struct {
	mu sync.Mutex // guards roundRobinIndex only; everything else is read-mostly or independently synchronized

	adapters map[string]providers.Adapter
	configs  map[string]types.ProviderConfig
	order    []string // initialization order, used as a stable fallback-chain default

	catalog *catalog.Catalog
	health  *health.Tracker
	metrics *metrics.Registry
	retryer *retry.Executor

	cfg             types.RouterConfig
	roundRobinIndex int

	logger *logrus.Logger
}

// New builds a Router Core from initialized adapters and configuration.
func New(adapters map[string]providers.Adapter, configs map[string]types.ProviderConfig, order []string, cat *catalog.Catalog, ht *health.Tracker, mr *metrics.Registry, cfg types.RouterConfig, logger *logrus.Logger) *Core {
	return &Core{
		adapters: adapters,
		configs:  configs,
		order:    order,
		catalog:  cat,
		health:   ht,
		metrics:  mr,
		retryer:  retry.New(),
		cfg:      cfg,
		logger:   logger,
	}
}

func (c *Core) healthyProviders(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, p := range candidates {
		if c.health.IsHealthy(p) {
			out = append(out, p)
		}
	}
	return out
}

func dedupeAppend(head []string, tail []string) []string {
	seen := make(map[string]bool, len(head))
	out := append([]string(nil), head...)
	for _, p := range head {
		seen[p] = true
	}
	for _, p := range tail {
		if !seen[p] {
			out = append(out, p)
			seen[p] = true
		}
	}
	return out
}

// selectProviders returns the ordered list of provider names to try,
// covering every initialized provider exactly once (strategy head + fallback
// tail), per §4.6's precedence rules.
func (c *Core) selectProviders(req *types.Request) []string {
	all := append([]string(nil), c.order...)

	if req.Metadata.PreferredProvider != "" {
		if _, ok := c.adapters[req.Metadata.PreferredProvider]; ok {
			chain := dedupeAppend([]string{req.Metadata.PreferredProvider}, c.cfg.FallbackChain)
			return dedupeAppend(chain, all)
		}
	}

	healthy := c.healthyProviders(all)
	sc := &selectionContext{configs: c.configs, cat: c.catalog, health: c.health}

	c.mu.Lock()
	head := selectByStrategy(c.cfg.RoutingStrategy, sc, healthy, req, &c.roundRobinIndex)
	c.mu.Unlock()

	chain := dedupeAppend(head, c.cfg.FallbackChain)
	return dedupeAppend(chain, all)
}

// filterVisionCapable restricts ordered to providers with at least one
// vision-capable model, preserving relative order.
func (c *Core) filterVisionCapable(ordered []string) []string {
	out := make([]string, 0, len(ordered))
	for _, p := range ordered {
		if c.catalog.HasVisionCapable(p) {
			out = append(out, p)
		}
	}
	return out
}

// filterByBudget drops candidates whose pre-call cost estimate exceeds the
// request's budget limit; it does not fail them, it skips them.
func (c *Core) filterByBudget(ordered []string, req *types.Request) []string {
	if req.Metadata.BudgetLimit == nil {
		return ordered
	}
	limit := *req.Metadata.BudgetLimit
	out := make([]string, 0, len(ordered))
	for _, p := range ordered {
		model, ok := c.catalog.DefaultOf(p)
		if !ok {
			continue
		}
		maxOut := 0
		if req.MaxTokens != nil {
			maxOut = *req.MaxTokens
		}
		if accounting.EstimatedCostFor(model, req.Messages, maxOut) <= limit {
			out = append(out, p)
		}
	}
	return out
}

type attemptFunc func(ctx context.Context, adapter providers.Adapter) (*types.Response, error)

// fallbackReasonFor renders the normalized code of the previous provider's
// failure into the human-readable reason attached to a successful fallback
// response, so a caller inspecting Metadata.FallbackReason can see why the
// earlier candidate was skipped (e.g. "previous provider failed: RATE_LIMITED").
func fallbackReasonFor(err error) string {
	if err == nil {
		return ""
	}
	if re, ok := errs.As(err); ok {
		return fmt.Sprintf("previous provider failed: %s", re.Code)
	}
	return fmt.Sprintf("previous provider failed: %v", err)
}

// runFallbackLoop iterates ordered, invoking attempt through the Retry
// Executor for each, until one succeeds or the list is exhausted. The
// snapshot-level total/failed request counters (metrics.RecordFailure) are
// incremented exactly once per call, at the single terminal point — the
// cancellation return, or after the loop exhausts every candidate — never
// once per failing provider attempt; per-provider attempt failures are
// tracked separately via RecordProviderAttemptFailure.
func (c *Core) runFallbackLoop(ctx context.Context, requestID string, ordered []string, attempt attemptFunc) (*types.Response, error) {
	var lastErr error
	for i, name := range ordered {
		adapter, ok := c.adapters[name]
		if !ok {
			continue
		}
		var resp *types.Response
		err := c.retryer.Do(ctx, name, c.cfg.RetryConfig, func() error {
			var attemptErr error
			resp, attemptErr = attempt(ctx, adapter)
			return attemptErr
		})

		if ctx.Err() != nil {
			c.metrics.RecordProviderAttemptFailure(name)
			c.metrics.RecordFailure()
			if resp != nil {
				resp.FinishReason = types.FinishCancelled
				return resp, nil
			}
			return nil, errs.Aggregate(ctx.Err())
		}

		if err == nil {
			c.health.RecordSuccess(name, resp.LatencyMs)
			resp.Metadata.FallbackUsed = i > 0
			if i > 0 {
				resp.Metadata.FallbackReason = fallbackReasonFor(lastErr)
			}
			c.metrics.RecordSuccess(name, resp.Usage, resp.Cost, resp.LatencyMs)
			return resp, nil
		}

		c.health.RecordFailure(name)
		c.metrics.RecordProviderAttemptFailure(name)
		c.logger.WithFields(logrus.Fields{"provider": name, "request_id": requestID, "error": err}).Warn("provider attempt failed, trying next")
		lastErr = err
	}
	c.metrics.RecordFailure()
	return nil, errs.Aggregate(lastErr)
}

// logDecision records the Router Core's selection outcome for one request —
// the active strategy, the resulting ordering, and why — as structured log
// fields, so a reviewer correlating a fallback or a slow request can see the
// decision that produced it without re-deriving it from the strategy code.
func (c *Core) logDecision(requestID string, ordered []string) {
	d := Decision{
		Strategy: c.cfg.RoutingStrategy,
		Ordered:  ordered,
		Reasoning: []string{
			fmt.Sprintf("strategy=%s selected %d of %d initialized providers", c.cfg.RoutingStrategy, len(ordered), len(c.order)),
		},
		ConsideredAt: time.Now(),
	}
	c.logger.WithFields(logrus.Fields{
		"request_id":    requestID,
		"strategy":      d.Strategy,
		"ordered":       d.Ordered,
		"reasoning":     d.Reasoning,
		"considered_at": d.ConsideredAt,
	}).Debug("provider selection decision")
}

// Complete runs the fallback loop for a non-streaming request.
func (c *Core) Complete(ctx context.Context, req *types.Request) (*types.Response, error) {
	ordered := c.selectProviders(req)
	c.logDecision(req.Metadata.RequestID, ordered)
	ordered = c.filterByBudget(ordered, req)
	if len(ordered) == 0 {
		return nil, errs.New(errs.InvalidRequest, "", nil)
	}
	return c.runFallbackLoop(ctx, req.Metadata.RequestID, ordered, func(ctx context.Context, a providers.Adapter) (*types.Response, error) {
		return a.Complete(ctx, req)
	})
}

// Stream runs the fallback loop for a streaming request.
func (c *Core) Stream(ctx context.Context, req *types.Request, onChunk providers.ChunkFunc) (*types.Response, error) {
	ordered := c.selectProviders(req)
	c.logDecision(req.Metadata.RequestID, ordered)
	ordered = c.filterByBudget(ordered, req)
	if len(ordered) == 0 {
		return nil, errs.New(errs.InvalidRequest, "", nil)
	}
	return c.runFallbackLoop(ctx, req.Metadata.RequestID, ordered, func(ctx context.Context, a providers.Adapter) (*types.Response, error) {
		return a.Stream(ctx, req, onChunk)
	})
}

// CompleteWithVision restricts selection to vision-capable providers before
// running the fallback loop.
func (c *Core) CompleteWithVision(ctx context.Context, req *types.Request) (*types.Response, error) {
	ordered := c.selectProviders(req)
	ordered = c.filterVisionCapable(ordered)
	c.logDecision(req.Metadata.RequestID, ordered)
	if len(ordered) == 0 {
		return nil, errs.New(errs.ProviderUnavailable, "", nil)
	}
	ordered = c.filterByBudget(ordered, req)
	if len(ordered) == 0 {
		return nil, errs.New(errs.InvalidRequest, "", nil)
	}
	return c.runFallbackLoop(ctx, req.Metadata.RequestID, ordered, func(ctx context.Context, a providers.Adapter) (*types.Response, error) {
		return a.CompleteWithVision(ctx, req)
	})
}

// CompleteWithProvider skips selection and fallback entirely.
func (c *Core) CompleteWithProvider(ctx context.Context, name string, req *types.Request) (*types.Response, error) {
	adapter, ok := c.adapters[name]
	if !ok {
		return nil, errs.New(errs.ProviderUnavailable, name, nil)
	}
	var resp *types.Response
	err := c.retryer.Do(ctx, name, c.cfg.RetryConfig, func() error {
		var attemptErr error
		resp, attemptErr = adapter.Complete(ctx, req)
		return attemptErr
	})
	if err != nil {
		c.health.RecordFailure(name)
		c.metrics.RecordProviderAttemptFailure(name)
		c.metrics.RecordFailure()
		return nil, err
	}
	c.health.RecordSuccess(name, resp.LatencyMs)
	c.metrics.RecordSuccess(name, resp.Usage, resp.Cost, resp.LatencyMs)
	return resp, nil
}

// HealthCheck probes every initialized adapter and records the result.
func (c *Core) HealthCheck(ctx context.Context) map[string]bool {
	out := make(map[string]bool, len(c.adapters))
	for name, adapter := range c.adapters {
		healthy := adapter.IsHealthy(ctx)
		c.health.SetHealthy(name, healthy)
		out[name] = healthy
	}
	return out
}

// Providers returns the initialized provider names in their init order.
func (c *Core) Providers() []string { return append([]string(nil), c.order...) }

// Catalog exposes the frozen model catalog.
func (c *Core) Catalog() *catalog.Catalog { return c.catalog }

// Metrics exposes the Metrics Registry.
func (c *Core) Metrics() *metrics.Registry { return c.metrics }

// HealthTracker exposes the Health Tracker for the Facade's health snapshot needs.
func (c *Core) HealthTracker() *health.Tracker { return c.health }
