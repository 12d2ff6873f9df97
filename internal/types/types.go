// Package types defines the neutral request/response contract shared by every
// provider adapter and by the router core. No provider-specific wire shape
// leaks past this package.
package types

import "time"

// Role identifies the speaker of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ImageMediaType enumerates the media types the router accepts for image parts.
type ImageMediaType string

const (
	ImagePNG  ImageMediaType = "image/png"
	ImageJPEG ImageMediaType = "image/jpeg"
	ImageGIF  ImageMediaType = "image/gif"
	ImageWEBP ImageMediaType = "image/webp"
)

// PartKind discriminates a ContentPart.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image"
)

// ContentPart is one element of an ordered content sequence. Exactly one of
// Text or Image is meaningful, selected by Kind.
type ContentPart struct {
	Kind  PartKind
	Text  string
	Image *ImagePart
}

// ImagePart carries a base64-encoded image payload.
type ImagePart struct {
	MediaType ImageMediaType
	Data      string // base64, no data-URL prefix
}

// Message is a single turn. Content is either plain text (Text != "" and
// Parts == nil) or an ordered sequence of parts (Parts != nil). Ordering
// within Parts is significant.
type Message struct {
	Role  Role
	Text  string
	Parts []ContentPart
}

// HasParts reports whether the message uses the multipart content form.
func (m Message) HasParts() bool { return m.Parts != nil }

// ComplexityTier classifies the estimated difficulty of a request.
type ComplexityTier string

const (
	ComplexitySimple   ComplexityTier = "simple"
	ComplexityModerate ComplexityTier = "moderate"
	ComplexityComplex  ComplexityTier = "complex"
	ComplexityExpert   ComplexityTier = "expert"
)

// ModelDescriptor is an immutable, per-process entry in the Model Catalog.
type ModelDescriptor struct {
	ID               string
	Name             string
	ContextWindow    int
	MaxOutputTokens  int
	InputCostPer1K   float64
	OutputCostPer1K  float64
	SupportsVision   bool
	SupportsStream   bool
	SupportsFunction bool
	Complexity       ComplexityTier
	IsDefault        bool
}

// ProviderConfig configures one adapter at initialization. Immutable thereafter.
type ProviderConfig struct {
	Name      string
	APIKey    string
	BaseURL   string
	Enabled   bool
	Priority  int // lower = higher preference
	Models    []ModelDescriptor
	TimeoutMs int
}

// RequestMetadata carries routing hints that do not change wire content.
type RequestMetadata struct {
	TaskComplexity    ComplexityTier
	RequiresVision    bool
	PreferredProvider string
	BudgetLimit       *float64 // USD cap, pre-call estimate
	LatencyTargetMs   *int     // advisory only
	RequestID         string
}

// Request is the neutral chat-completion request.
type Request struct {
	Messages      []Message
	Model         string
	Provider      string
	MaxTokens     *int
	Temperature   *float64
	TopP          *float64
	StopSequences []string
	Stream        bool
	Metadata      RequestMetadata
}

// FinishReason is the neutral terminal state of a completion.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishMaxTokens FinishReason = "max_tokens"
	FinishError     FinishReason = "error"
	FinishCancelled FinishReason = "cancelled"
)

// Usage holds token counts; Total is always Input+Output.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Cost holds a USD cost breakdown; Total is always Input+Output.
type Cost struct {
	InputCost  float64
	OutputCost float64
	TotalCost  float64
}

// ResponseMetadata carries router-observable facts about how a response was produced.
type ResponseMetadata struct {
	Cached         bool
	FallbackUsed   bool
	FallbackReason string
	RetryCount     int
}

// Response is the neutral chat-completion response.
type Response struct {
	Content      string
	Model        string
	Provider     string
	Usage        Usage
	Cost         Cost
	LatencyMs    int64
	FinishReason FinishReason
	Metadata     ResponseMetadata
}

// ProviderHealth is the mutable per-provider health record.
type ProviderHealth struct {
	Healthy             bool
	LastCheck           time.Time
	LatencyMs           int64
	ErrorRate           float64
	ConsecutiveFailures int
}

// RetryConfig configures the Retry Executor.
type RetryConfig struct {
	MaxRetries      int
	InitialDelayMs  int
	MaxDelayMs      int
	Multiplier      float64
	RetryableCodes  []string
}

// RoutingStrategyType selects the Router Core's primary ordering policy.
type RoutingStrategyType string

const (
	StrategyPriority   RoutingStrategyType = "priority"
	StrategyCost       RoutingStrategyType = "cost"
	StrategyLatency    RoutingStrategyType = "latency"
	StrategyComplexity RoutingStrategyType = "complexity"
	StrategyRoundRobin RoutingStrategyType = "round-robin"
	StrategyAdaptive   RoutingStrategyType = "adaptive"
)

// CostTrackingConfig toggles and tunes cost accounting.
type CostTrackingConfig struct {
	Enabled bool
}

// LoggingConfig configures the shared logrus logger.
type LoggingConfig struct {
	Level  string
	Format string // "text" | "json"
}

// RouterConfig is the top-level configuration accepted by Initialize.
type RouterConfig struct {
	Providers       []ProviderConfig
	DefaultProvider string
	FallbackChain   []string
	RetryConfig     RetryConfig
	RoutingStrategy RoutingStrategyType
	CostTracking    CostTrackingConfig
	Logging         LoggingConfig
}

// MetricsSnapshot is the immutable point-in-time view returned by GetMetrics.
type MetricsSnapshot struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	TotalTokens        int64
	TotalCostUSD       float64
	AverageLatencyMs   float64
	PerProvider        map[string]ProviderTally
}

// ProviderTally is the per-provider slice of a metrics snapshot.
type ProviderTally struct {
	Requests int64
	Tokens   int64
	CostUSD  float64
}
