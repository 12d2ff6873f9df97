// Package openaicompat implements the OpenAI-style adapter: unified messages
// (system inline), data-URL images, and SSE streaming via go-openai. It backs
// both the "openai" and "groq" provider packages — Groq speaks the identical
// wire protocol at a different base URL, so the adapter is parameterized
// rather than duplicated.
package openaicompat

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-router/internal/accounting"
	"github.com/tributary-ai/llm-router/internal/errs"
	"github.com/tributary-ai/llm-router/internal/providers"
	"github.com/tributary-ai/llm-router/internal/types"
)

// Adapter implements providers.Adapter for any OpenAI-wire-compatible backend.
type Adapter struct {
	name    string
	client  *openai.Client
	models  []types.ModelDescriptor
	timeout time.Duration
	logger  *logrus.Logger
}

// New constructs an adapter for a named backend. defaultBaseURL is used when
// cfg.BaseURL is empty (Groq supplies one; plain OpenAI leaves it empty to
// use go-openai's own default).
func New(name string, defaultBaseURL string, requireAPIKey bool, cfg types.ProviderConfig, logger *logrus.Logger) (*Adapter, error) {
	if requireAPIKey && cfg.APIKey == "" {
		return nil, errs.New(errs.AuthenticationFailed, name, nil)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	timeout := 60 * time.Second
	if cfg.TimeoutMs > 0 {
		timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	return &Adapter{
		name:    name,
		client:  openai.NewClientWithConfig(clientCfg),
		models:  cfg.Models,
		timeout: timeout,
		logger:  logger,
	}, nil
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
	_, err := a.client.ListModels(ctx)
	return err == nil
}

func (a *Adapter) hasVisionModel() bool {
	for _, m := range a.models {
		if m.SupportsVision {
			return true
		}
	}
	return false
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

func (a *Adapter) convertMessage(msg types.Message) (openai.ChatCompletionMessage, error) {
	role := string(msg.Role)
	if !msg.HasParts() {
		return openai.ChatCompletionMessage{Role: role, Content: msg.Text}, nil
	}
	var parts []openai.ChatMessagePart
	for _, p := range msg.Parts {
		switch p.Kind {
		case types.PartText:
			parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: p.Text})
		case types.PartImage:
			if !a.hasVisionModel() {
				return openai.ChatCompletionMessage{}, errs.New(errs.InvalidRequest, a.name, nil)
			}
			dataURL := fmt.Sprintf("data:%s;base64,%s", p.Image.MediaType, p.Image.Data)
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
			})
		}
	}
	return openai.ChatCompletionMessage{Role: role, MultiContent: parts}, nil
}

func (a *Adapter) buildRequest(req *types.Request) (openai.ChatCompletionRequest, error) {
	var messages []openai.ChatCompletionMessage
	for _, msg := range req.Messages {
		m, err := a.convertMessage(msg)
		if err != nil {
			return openai.ChatCompletionRequest{}, err
		}
		messages = append(messages, m)
	}
	out := openai.ChatCompletionRequest{
		Model:    modelIDFor(req, a.models),
		Messages: messages,
	}
	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		out.Temperature = float32(*req.Temperature)
	}
	if req.TopP != nil {
		out.TopP = float32(*req.TopP)
	}
	if len(req.StopSequences) > 0 {
		out.Stop = append([]string(nil), req.StopSequences...)
	}
	return out, nil
}

func translateFinish(reason openai.FinishReason) types.FinishReason {
	switch reason {
	case openai.FinishReasonLength:
		return types.FinishMaxTokens
	case openai.FinishReasonStop, openai.FinishReasonNull, openai.FinishReasonFunctionCall, openai.FinishReasonToolCalls:
		return types.FinishStop
	default:
		return types.FinishStop
	}
}

func (a *Adapter) normalizeError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	msg := strings.ToLower(err.Error())
	if asAPIErr(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return errs.New(errs.AuthenticationFailed, a.name, err)
		case 429:
			return errs.New(errs.RateLimited, a.name, err)
		case 408, 504:
			return errs.New(errs.Timeout, a.name, err)
		case 400:
			if strings.Contains(msg, "context") || strings.Contains(msg, "maximum context length") {
				return errs.New(errs.ContextLengthExceeded, a.name, err)
			}
			if strings.Contains(msg, "safety") || strings.Contains(msg, "filter") || strings.Contains(msg, "policy") {
				return errs.New(errs.ContentFiltered, a.name, err)
			}
			return errs.New(errs.InvalidRequest, a.name, err)
		case 404:
			return errs.New(errs.ModelNotFound, a.name, err)
		}
		if apiErr.HTTPStatusCode >= 500 {
			return errs.New(errs.ProviderUnavailable, a.name, err)
		}
	}
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return errs.New(errs.Timeout, a.name, err)
	case strings.Contains(msg, "connection") || strings.Contains(msg, "no such host") || strings.Contains(msg, "refused"):
		return errs.New(errs.NetworkError, a.name, err)
	default:
		return errs.New(errs.UnknownError, a.name, err)
	}
}

func asAPIErr(err error, target **openai.APIError) bool {
	if apiErr, ok := err.(*openai.APIError); ok {
		*target = apiErr
		return true
	}
	return false
}

func (a *Adapter) Complete(ctx context.Context, req *types.Request) (*types.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	oreq, err := a.buildRequest(req)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, oreq)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, a.normalizeError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errs.New(errs.UnknownError, a.name, nil)
	}
	usage := types.Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	cost, _ := a.CalculateCost(resp.Model, usage)
	return &types.Response{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		Provider:     a.name,
		Usage:        usage,
		Cost:         cost,
		LatencyMs:    latency,
		FinishReason: translateFinish(resp.Choices[0].FinishReason),
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

	oreq, err := a.buildRequest(req)
	if err != nil {
		return nil, err
	}
	oreq.Stream = true
	oreq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	start := time.Now()
	stream, err := a.client.CreateChatCompletionStream(ctx, oreq)
	if err != nil {
		return nil, a.normalizeError(err)
	}
	defer stream.Close()

	var content strings.Builder
	var model string
	var usage types.Usage
	finish := types.FinishStop
	for {
		chunk, err := stream.Recv()
		if err != nil {
			if isStreamEOF(err) {
				break
			}
			return nil, a.normalizeError(err)
		}
		model = chunk.Model
		if chunk.Usage != nil {
			usage = types.Usage{
				InputTokens:  chunk.Usage.PromptTokens,
				OutputTokens: chunk.Usage.CompletionTokens,
				TotalTokens:  chunk.Usage.TotalTokens,
			}
		}
		if len(chunk.Choices) > 0 {
			delta := chunk.Choices[0].Delta.Content
			if delta != "" {
				content.WriteString(delta)
				onChunk(delta)
			}
			if chunk.Choices[0].FinishReason != "" {
				finish = translateFinish(chunk.Choices[0].FinishReason)
			}
		}
		select {
		case <-ctx.Done():
			return &types.Response{
				Content:      content.String(),
				Model:        model,
				Provider:     a.name,
				FinishReason: types.FinishCancelled,
				LatencyMs:    time.Since(start).Milliseconds(),
			}, nil
		default:
		}
	}

	latency := time.Since(start).Milliseconds()
	if usage.TotalTokens == 0 {
		usage.InputTokens = a.EstimateTokens(req.Messages)
		usage.OutputTokens = accounting.EstimateTokens([]types.Message{{Text: content.String()}})
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	cost, _ := a.CalculateCost(model, usage)
	return &types.Response{
		Content:      content.String(),
		Model:        model,
		Provider:     a.name,
		Usage:        usage,
		Cost:         cost,
		LatencyMs:    latency,
		FinishReason: finish,
	}, nil
}

func isStreamEOF(err error) bool {
	return err != nil && (err.Error() == "EOF" || strings.Contains(err.Error(), "EOF"))
}

var _ providers.Adapter = (*Adapter)(nil)
