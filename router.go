// Package llmrouter is the Router Facade: the library's public entry point.
// Callers obtain a *Router via New or Initialize, or use the package-level
// default-router functions bootstrapped from environment variables. Every
// method here is a thin wrapper over internal/routing's Router Core — the
// facade never re-implements selection or the fallback loop itself.
package llmrouter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-router/internal/catalog"
	"github.com/tributary-ai/llm-router/internal/config"
	"github.com/tributary-ai/llm-router/internal/errs"
	"github.com/tributary-ai/llm-router/internal/health"
	"github.com/tributary-ai/llm-router/internal/metrics"
	"github.com/tributary-ai/llm-router/internal/providers"
	"github.com/tributary-ai/llm-router/internal/providers/anthropic"
	"github.com/tributary-ai/llm-router/internal/providers/groq"
	"github.com/tributary-ai/llm-router/internal/providers/ollama"
	"github.com/tributary-ai/llm-router/internal/providers/openai"
	"github.com/tributary-ai/llm-router/internal/routing"
	"github.com/tributary-ai/llm-router/internal/types"
)

// Request, Response, and the rest of the neutral contract are re-exported so
// callers never need to import internal/types directly.
type (
	Request          = types.Request
	Response         = types.Response
	Message          = types.Message
	ContentPart      = types.ContentPart
	ImagePart        = types.ImagePart
	RequestMetadata  = types.RequestMetadata
	RouterConfig     = types.RouterConfig
	ProviderConfig   = types.ProviderConfig
	ModelDescriptor  = types.ModelDescriptor
	MetricsSnapshot  = types.MetricsSnapshot
	ProviderHealth   = types.ProviderHealth
)

// ChunkFunc receives one textual delta per streamed event.
type ChunkFunc = providers.ChunkFunc

var factories = map[string]func(*logrus.Logger) providers.Factory{
	"anthropic": anthropic.Factory,
	"openai":    openai.Factory,
	"groq":      groq.Factory,
	"ollama":    ollama.Factory,
}

// Router is the facade over one Router Core instance, including its own
// catalog, health tracker, and metrics registry.
type Router struct {
	core   *routing.Core
	logger *logrus.Logger
}

func newLogger(cfg types.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// New builds a Router from an already-assembled RouterConfig, constructing
// one adapter per configured, enabled provider via its package factory. A
// provider whose adapter fails to construct is logged and skipped; New fails
// with PROVIDER_UNAVAILABLE only when no adapter could be constructed.
func New(cfg types.RouterConfig) (*Router, error) {
	logger := newLogger(cfg.Logging)

	adapters := make(map[string]providers.Adapter, len(cfg.Providers))
	byProvider := make(map[string][]types.ModelDescriptor, len(cfg.Providers))
	order := make([]string, 0, len(cfg.Providers))

	for _, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}
		newFactory, ok := factories[pc.Name]
		if !ok {
			return nil, fmt.Errorf("llmrouter: unknown provider %q", pc.Name)
		}
		adapter, err := newFactory(logger)(pc)
		if err != nil {
			logger.WithFields(logrus.Fields{"provider": pc.Name, "error": err}).Warn("provider failed to initialize, skipping")
			continue
		}
		adapters[pc.Name] = adapter
		byProvider[pc.Name] = adapter.Models()
		order = append(order, pc.Name)
	}
	if len(adapters) == 0 {
		return nil, errs.New(errs.ProviderUnavailable, "", fmt.Errorf("llmrouter: no provider adapter could be initialized"))
	}

	cat := catalog.New(byProvider)
	ht := health.New(order)
	mr := metrics.New()
	core := routing.New(adapters, providerConfigIndex(cfg.Providers), order, cat, ht, mr, cfg, logger)

	return &Router{core: core, logger: logger}, nil
}

func providerConfigIndex(configs []types.ProviderConfig) map[string]types.ProviderConfig {
	out := make(map[string]types.ProviderConfig, len(configs))
	for _, c := range configs {
		out[c.Name] = c
	}
	return out
}

// Initialize loads configuration from an optional YAML file plus environment
// variables and builds a Router from it. This is the bootstrap path most
// callers should use; path may be empty to rely on defaults and environment
// alone (ANTHROPIC_API_KEY, OPENAI_API_KEY, GROQ_API_KEY, OLLAMA_BASE_URL).
func Initialize(path string) (*Router, error) {
	fileCfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg := fileCfg.Router
	cfg.Providers = fileCfg.ProviderConfigs()
	return New(cfg)
}

// assignRequestID stamps a fresh request ID when the caller didn't supply
// one, so every log line and fallback decision can be correlated even for
// callers that never think about request IDs.
func assignRequestID(req *types.Request) {
	if req.Metadata.RequestID == "" {
		req.Metadata.RequestID = uuid.New().String()
	}
}

// Complete performs a non-streaming chat completion through the selection
// and fallback policy.
func (r *Router) Complete(ctx context.Context, req *types.Request) (*types.Response, error) {
	assignRequestID(req)
	return r.core.Complete(ctx, req)
}

// Stream performs a streaming chat completion, invoking onChunk per delta.
func (r *Router) Stream(ctx context.Context, req *types.Request, onChunk ChunkFunc) (*types.Response, error) {
	assignRequestID(req)
	return r.core.Stream(ctx, req, onChunk)
}

// CompleteWithVision performs a completion carrying image content, routed
// only to providers with at least one vision-capable model.
func (r *Router) CompleteWithVision(ctx context.Context, req *types.Request) (*types.Response, error) {
	assignRequestID(req)
	return r.core.CompleteWithVision(ctx, req)
}

// CompleteWithProvider bypasses selection and the fallback chain, retrying
// only against the named provider.
func (r *Router) CompleteWithProvider(ctx context.Context, provider string, req *types.Request) (*types.Response, error) {
	return r.core.CompleteWithProvider(ctx, provider, req)
}

// HealthCheck probes every initialized adapter and returns its live result.
func (r *Router) HealthCheck(ctx context.Context) map[string]bool {
	return r.core.HealthCheck(ctx)
}

// GetMetrics returns the current metrics snapshot.
func (r *Router) GetMetrics() types.MetricsSnapshot {
	return r.core.Metrics().Snapshot()
}

// ResetMetrics zeroes all counters.
func (r *Router) ResetMetrics() {
	r.core.Metrics().Reset()
}

// GetProviders returns the initialized provider names.
func (r *Router) GetProviders() []string {
	return r.core.Providers()
}

// GetModels returns the frozen model table for one provider.
func (r *Router) GetModels(provider string) []types.ModelDescriptor {
	return r.core.Catalog().Models(provider)
}

// GetAllModels returns every initialized provider's model table.
func (r *Router) GetAllModels() map[string][]types.ModelDescriptor {
	out := make(map[string][]types.ModelDescriptor)
	for _, p := range r.core.Providers() {
		out[p] = r.core.Catalog().Models(p)
	}
	return out
}

var (
	defaultRouter     *Router
	defaultRouterErr  error
	defaultRouterOnce sync.Once
)

// GetDefaultRouter returns the process-wide default Router, building it on
// first use from environment variables alone (no config file). Subsequent
// calls return the same instance.
func GetDefaultRouter() (*Router, error) {
	defaultRouterOnce.Do(func() {
		defaultRouter, defaultRouterErr = Initialize("")
	})
	return defaultRouter, defaultRouterErr
}

// ResetDefaultRouter clears the process-wide default Router so the next
// GetDefaultRouter call rebuilds it. Intended for tests.
func ResetDefaultRouter() {
	defaultRouter = nil
	defaultRouterErr = nil
	defaultRouterOnce = sync.Once{}
}
