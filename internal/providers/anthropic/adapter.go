// Package anthropic adapts the router's neutral contract to Anthropic's
// messages API: a separate system slot, inline base64 images, and
// server-sent-event streaming accumulated via the SDK's own Message type.
package anthropic

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-router/internal/accounting"
	"github.com/tributary-ai/llm-router/internal/errs"
	"github.com/tributary-ai/llm-router/internal/providers"
	"github.com/tributary-ai/llm-router/internal/types"
)

// Adapter implements providers.Adapter for Anthropic Claude.
type Adapter struct {
	name    string
	client  anthropic.Client
	models  []types.ModelDescriptor
	timeout time.Duration
	logger  *logrus.Logger
}

// New constructs and validates an Anthropic adapter from a ProviderConfig.
func New(cfg types.ProviderConfig, logger *logrus.Logger) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, errs.New(errs.AuthenticationFailed, cfg.Name, nil)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	timeout := 60 * time.Second
	if cfg.TimeoutMs > 0 {
		timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	name := cfg.Name
	if name == "" {
		name = "anthropic"
	}
	return &Adapter{
		name:    name,
		client:  anthropic.NewClient(opts...),
		models:  cfg.Models,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Factory adapts New to the providers.Factory shape.
func Factory(logger *logrus.Logger) providers.Factory {
	return func(cfg types.ProviderConfig) (providers.Adapter, error) {
		return New(cfg, logger)
	}
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Models() []types.ModelDescriptor { return a.models }

func (a *Adapter) Model(id string) (types.ModelDescriptor, bool) {
	for _, m := range a.models {
		if m.ID == id {
			return m, true
		}
	}
	return types.ModelDescriptor{}, false
}

func (a *Adapter) EstimateTokens(messages []types.Message) int {
	return accounting.EstimateTokens(messages)
}

func (a *Adapter) CalculateCost(modelID string, usage types.Usage) (types.Cost, bool) {
	m, ok := a.Model(modelID)
	if !ok {
		return types.Cost{}, false
	}
	return accounting.CalculateCost(m, usage), true
}

func (a *Adapter) IsHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	model := anthropic.ModelClaude3Haiku20240307
	if len(a.models) > 0 {
		model = anthropic.Model(a.models[0].ID)
	}
	_, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     model,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock("ping"))},
		MaxTokens: 1,
	})
	return err == nil
}

func modelIDFor(req *types.Request, models []types.ModelDescriptor) string {
	if req.Model != "" {
		return req.Model
	}
	for _, m := range models {
		if m.IsDefault {
			return m.ID
		}
	}
	if len(models) > 0 {
		return models[0].ID
	}
	return ""
}

func (a *Adapter) buildParams(req *types.Request) (anthropic.MessageNewParams, error) {
	var system string
	var messages []anthropic.MessageParam

	for _, msg := range req.Messages {
		if msg.Role == types.RoleSystem {
			if msg.HasParts() {
				return anthropic.MessageNewParams{}, errs.New(errs.InvalidRequest, a.name, nil)
			}
			if system != "" {
				system += "\n" + msg.Text
			} else {
				system = msg.Text
			}
			continue
		}
		blocks, err := a.convertParts(msg)
		if err != nil {
			return anthropic.MessageNewParams{}, err
		}
		if msg.Role == types.RoleUser {
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		} else {
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		}
	}

	params := anthropic.MessageNewParams{
		Model:    anthropic.Model(modelIDFor(req, a.models)),
		Messages: messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.MaxTokens != nil {
		params.MaxTokens = int64(*req.MaxTokens)
	} else {
		params.MaxTokens = 1024
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = anthropic.Float(*req.TopP)
	}
	if len(req.StopSequences) > 0 {
		params.StopSequences = append([]string(nil), req.StopSequences...)
	}
	return params, nil
}

func (a *Adapter) convertParts(msg types.Message) ([]anthropic.ContentBlockParamUnion, error) {
	if !msg.HasParts() {
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(msg.Text)}, nil
	}
	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range msg.Parts {
		switch part.Kind {
		case types.PartText:
			blocks = append(blocks, anthropic.NewTextBlock(part.Text))
		case types.PartImage:
			if !a.hasVisionModel() {
				return nil, errs.New(errs.InvalidRequest, a.name, nil)
			}
			blocks = append(blocks, anthropic.NewImageBlockBase64(string(part.Image.MediaType), part.Image.Data))
		}
	}
	return blocks, nil
}

func (a *Adapter) hasVisionModel() bool {
	for _, m := range a.models {
		if m.SupportsVision {
			return true
		}
	}
	return false
}

func translateFinish(stopReason anthropic.StopReason) types.FinishReason {
	switch stopReason {
	case anthropic.StopReasonMaxTokens:
		return types.FinishMaxTokens
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		return types.FinishStop
	default:
		return types.FinishStop
	}
}

func (a *Adapter) normalizeError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "unauthorized"):
		return errs.New(errs.AuthenticationFailed, a.name, err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return errs.New(errs.RateLimited, a.name, err)
	case strings.Contains(msg, "context") && strings.Contains(msg, "length"):
		return errs.New(errs.ContextLengthExceeded, a.name, err)
	case strings.Contains(msg, "content") && (strings.Contains(msg, "filter") || strings.Contains(msg, "safety")):
		return errs.New(errs.ContentFiltered, a.name, err)
	case strings.Contains(msg, "model") && strings.Contains(msg, "not found"):
		return errs.New(errs.ModelNotFound, a.name, err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "408") || strings.Contains(msg, "504") || strings.Contains(msg, "deadline"):
		return errs.New(errs.Timeout, a.name, err)
	case strings.Contains(msg, "connection") || strings.Contains(msg, "no such host") || strings.Contains(msg, "refused"):
		return errs.New(errs.NetworkError, a.name, err)
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503") || strings.Contains(msg, "overloaded"):
		return errs.New(errs.ProviderUnavailable, a.name, err)
	default:
		return errs.New(errs.UnknownError, a.name, err)
	}
}

func (a *Adapter) Complete(ctx context.Context, req *types.Request) (*types.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params, err := a.buildParams(req)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := a.client.Messages.New(ctx, params)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, a.normalizeError(err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	usage := types.Usage{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
		TotalTokens:  int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}
	cost, _ := a.CalculateCost(string(resp.Model), usage)
	return &types.Response{
		Content:      content.String(),
		Model:        string(resp.Model),
		Provider:     a.name,
		Usage:        usage,
		Cost:         cost,
		LatencyMs:    latency,
		FinishReason: translateFinish(resp.StopReason),
	}, nil
}

func (a *Adapter) CompleteWithVision(ctx context.Context, req *types.Request) (*types.Response, error) {
	if !a.hasVisionModel() {
		return nil, errs.New(errs.InvalidRequest, a.name, nil)
	}
	return a.Complete(ctx, req)
}

func (a *Adapter) Stream(ctx context.Context, req *types.Request, onChunk providers.ChunkFunc) (*types.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params, err := a.buildParams(req)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	stream := a.client.Messages.NewStreaming(ctx, params)

	var message anthropic.Message
	var content strings.Builder
	for stream.Next() {
		event := stream.Current()
		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if delta.Delta.Text != "" {
				content.WriteString(delta.Delta.Text)
				onChunk(delta.Delta.Text)
			}
		}
		if err := message.Accumulate(event); err != nil {
			return nil, a.normalizeError(err)
		}
		select {
		case <-ctx.Done():
			return &types.Response{
				Content:      content.String(),
				Model:        string(params.Model),
				Provider:     a.name,
				FinishReason: types.FinishCancelled,
				LatencyMs:    time.Since(start).Milliseconds(),
			}, nil
		default:
		}
	}
	if err := stream.Err(); err != nil {
		return nil, a.normalizeError(err)
	}
	latency := time.Since(start).Milliseconds()

	usage := types.Usage{
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
		TotalTokens:  int(message.Usage.InputTokens + message.Usage.OutputTokens),
	}
	if usage.TotalTokens == 0 {
		usage.InputTokens = a.EstimateTokens(req.Messages)
		usage.OutputTokens = accounting.EstimateTokens([]types.Message{{Text: content.String()}})
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	cost, _ := a.CalculateCost(string(params.Model), usage)
	return &types.Response{
		Content:      content.String(),
		Model:        string(params.Model),
		Provider:     a.name,
		Usage:        usage,
		Cost:         cost,
		LatencyMs:    latency,
		FinishReason: translateFinish(message.StopReason),
	}, nil
}

var _ providers.Adapter = (*Adapter)(nil)
