package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tributary-ai/llm-router/internal/catalog"
	"github.com/tributary-ai/llm-router/internal/errs"
	"github.com/tributary-ai/llm-router/internal/health"
	"github.com/tributary-ai/llm-router/internal/metrics"
	"github.com/tributary-ai/llm-router/internal/providers"
	"github.com/tributary-ai/llm-router/internal/retry"
	"github.com/tributary-ai/llm-router/internal/types"
)

type fakeAdapter struct {
	name       string
	models     []types.ModelDescriptor
	completeFn func(ctx context.Context, req *types.Request) (*types.Response, error)
	healthy    bool
}

func (f *fakeAdapter) Name() string                             { return f.name }
func (f *fakeAdapter) IsHealthy(ctx context.Context) bool        { return f.healthy }
func (f *fakeAdapter) Models() []types.ModelDescriptor           { return f.models }
func (f *fakeAdapter) EstimateTokens(m []types.Message) int      { return 1 }
func (f *fakeAdapter) CalculateCost(id string, u types.Usage) (types.Cost, bool) {
	return types.Cost{}, true
}
func (f *fakeAdapter) Model(id string) (types.ModelDescriptor, bool) {
	for _, m := range f.models {
		if m.ID == id {
			return m, true
		}
	}
	return types.ModelDescriptor{}, false
}
func (f *fakeAdapter) Complete(ctx context.Context, req *types.Request) (*types.Response, error) {
	return f.completeFn(ctx, req)
}
func (f *fakeAdapter) CompleteWithVision(ctx context.Context, req *types.Request) (*types.Response, error) {
	return f.completeFn(ctx, req)
}
func (f *fakeAdapter) Stream(ctx context.Context, req *types.Request, onChunk providers.ChunkFunc) (*types.Response, error) {
	return f.completeFn(ctx, req)
}

var _ providers.Adapter = (*fakeAdapter)(nil)

func newTestCore(t *testing.T, adapters map[string]*fakeAdapter, order []string, strategy types.RoutingStrategyType) *Core {
	t.Helper()
	adapterMap := make(map[string]providers.Adapter, len(adapters))
	byProvider := make(map[string][]types.ModelDescriptor, len(adapters))
	configs := make(map[string]types.ProviderConfig, len(adapters))
	for i, name := range order {
		a := adapters[name]
		adapterMap[name] = a
		byProvider[name] = a.models
		configs[name] = types.ProviderConfig{Name: name, Priority: i}
	}
	cat := catalog.New(byProvider)
	ht := health.New(order)
	mr := metrics.New()
	cfg := types.RouterConfig{
		RoutingStrategy: strategy,
		RetryConfig:     retry.DefaultConfig(),
	}
	cfg.RetryConfig.InitialDelayMs = 1
	cfg.RetryConfig.MaxDelayMs = 2
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(adapterMap, configs, order, cat, ht, mr, cfg, logger)
}

func okResponse(provider string) *types.Response {
	return &types.Response{Content: "ok", Provider: provider, FinishReason: types.FinishStop}
}

func TestCompleteHappyPathSingleProvider(t *testing.T) {
	a := &fakeAdapter{name: "anthropic", healthy: true, completeFn: func(ctx context.Context, r *types.Request) (*types.Response, error) {
		return okResponse("anthropic"), nil
	}}
	core := newTestCore(t, map[string]*fakeAdapter{"anthropic": a}, []string{"anthropic"}, types.StrategyPriority)

	resp, err := core.Complete(context.Background(), req("hi"))
	require.NoError(t, err)
	assert.Equal(t, "anthropic", resp.Provider)
	assert.False(t, resp.Metadata.FallbackUsed)
}

func TestCompleteFallsBackOnFailure(t *testing.T) {
	first := &fakeAdapter{name: "first", healthy: true, completeFn: func(ctx context.Context, r *types.Request) (*types.Response, error) {
		return nil, errs.New(errs.RateLimited, "first", errors.New("429"))
	}}
	second := &fakeAdapter{name: "second", healthy: true, completeFn: func(ctx context.Context, r *types.Request) (*types.Response, error) {
		return okResponse("second"), nil
	}}
	core := newTestCore(t, map[string]*fakeAdapter{"first": first, "second": second}, []string{"first", "second"}, types.StrategyPriority)

	resp, err := core.Complete(context.Background(), req("hi"))
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Provider)
	assert.True(t, resp.Metadata.FallbackUsed)
}

func TestCompleteAllProvidersFail(t *testing.T) {
	mkFailing := func(name string) *fakeAdapter {
		return &fakeAdapter{name: name, healthy: true, completeFn: func(ctx context.Context, r *types.Request) (*types.Response, error) {
			return nil, errs.New(errs.ProviderUnavailable, name, errors.New("down"))
		}}
	}
	core := newTestCore(t, map[string]*fakeAdapter{"a": mkFailing("a"), "b": mkFailing("b")}, []string{"a", "b"}, types.StrategyPriority)

	_, err := core.Complete(context.Background(), req("hi"))
	require.Error(t, err)
	re, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.ProviderUnavailable, re.Code)
}

func TestCompleteWithVisionFailsFastWithNoCapableProvider(t *testing.T) {
	a := &fakeAdapter{name: "anthropic", healthy: true, models: []types.ModelDescriptor{{ID: "m", SupportsVision: false}}}
	core := newTestCore(t, map[string]*fakeAdapter{"anthropic": a}, []string{"anthropic"}, types.StrategyPriority)

	_, err := core.CompleteWithVision(context.Background(), req("describe this image"))
	require.Error(t, err)
	re, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.ProviderUnavailable, re.Code)
}

func TestCompleteRespectsPreferredProvider(t *testing.T) {
	preferred := &fakeAdapter{name: "groq", healthy: true, completeFn: func(ctx context.Context, r *types.Request) (*types.Response, error) {
		return okResponse("groq"), nil
	}}
	other := &fakeAdapter{name: "anthropic", healthy: true, completeFn: func(ctx context.Context, r *types.Request) (*types.Response, error) {
		return okResponse("anthropic"), nil
	}}
	core := newTestCore(t, map[string]*fakeAdapter{"groq": preferred, "anthropic": other}, []string{"anthropic", "groq"}, types.StrategyPriority)

	r := req("hi")
	r.Metadata.PreferredProvider = "groq"
	resp, err := core.Complete(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "groq", resp.Provider)
}

func TestCompleteCancelledMidRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &fakeAdapter{name: "anthropic", healthy: true, completeFn: func(ctx context.Context, r *types.Request) (*types.Response, error) {
		return nil, ctx.Err()
	}}
	core := newTestCore(t, map[string]*fakeAdapter{"anthropic": a}, []string{"anthropic"}, types.StrategyPriority)

	_, err := core.Complete(ctx, req("hi"))
	require.Error(t, err)
}

func TestFilterByBudgetSkipsExpensiveCandidates(t *testing.T) {
	cheap := &fakeAdapter{name: "cheap", healthy: true, models: []types.ModelDescriptor{{ID: "c", IsDefault: true, InputCostPer1K: 0.0001, OutputCostPer1K: 0.0001, MaxOutputTokens: 100}}}
	pricey := &fakeAdapter{name: "pricey", healthy: true, models: []types.ModelDescriptor{{ID: "p", IsDefault: true, InputCostPer1K: 10, OutputCostPer1K: 10, MaxOutputTokens: 100}}}
	core := newTestCore(t, map[string]*fakeAdapter{"cheap": cheap, "pricey": pricey}, []string{"cheap", "pricey"}, types.StrategyPriority)

	limit := 0.01
	r := req("hi")
	r.Metadata.BudgetLimit = &limit
	ordered := core.selectProviders(r)
	ordered = core.filterByBudget(ordered, r)
	assert.Equal(t, []string{"cheap"}, ordered)
}
