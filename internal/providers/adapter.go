// Package providers defines the Provider Adapter contract (§4.1): the
// boundary every backend-specific adapter (Anthropic, OpenAI, Groq, Ollama,
// or any future addition) must satisfy.
package providers

import (
	"context"

	"github.com/tributary-ai/llm-router/internal/types"
)

// ChunkFunc receives one textual delta per streamed event, in wire order.
type ChunkFunc func(delta string)

// Adapter is the capability set every provider implementation exposes. It is
// a plain interface — no embedding hierarchy — satisfied independently by
// each backend package.
type Adapter interface {
	// Name returns the provider name this adapter was configured with.
	Name() string

	// IsHealthy performs a cheap probe against the backend without throwing.
	IsHealthy(ctx context.Context) bool

	// Models returns the frozen model table cached at Initialize.
	Models() []types.ModelDescriptor

	// Model looks up one model descriptor by id.
	Model(id string) (types.ModelDescriptor, bool)

	// Complete performs a non-streaming chat completion.
	Complete(ctx context.Context, req *types.Request) (*types.Response, error)

	// Stream performs a streaming chat completion, invoking onChunk for each
	// textual delta in wire order, and returns the accumulated terminal response.
	Stream(ctx context.Context, req *types.Request, onChunk ChunkFunc) (*types.Response, error)

	// CompleteWithVision performs a completion carrying image parts. Callers
	// must pre-filter to vision-capable adapters; an adapter with no
	// vision-capable model returns INVALID_REQUEST.
	CompleteWithVision(ctx context.Context, req *types.Request) (*types.Response, error)

	// EstimateTokens delegates to the shared Accountant so every adapter
	// agrees on the same deterministic estimate.
	EstimateTokens(messages []types.Message) int

	// CalculateCost delegates to the shared Accountant.
	CalculateCost(modelID string, usage types.Usage) (types.Cost, bool)
}

// Factory constructs an Adapter from a ProviderConfig. Each backend package
// exposes one of these; the router facade's bootstrap dispatches by
// config.Name to the matching factory.
type Factory func(cfg types.ProviderConfig) (Adapter, error)
