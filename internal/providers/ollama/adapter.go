// Package ollama adapts the router's neutral contract to a local Ollama
// server's native /api/chat endpoint (newline-delimited JSON when
// streaming). No complete example repo in the
// retrieved pack depends on an Ollama SDK, so this adapter speaks the wire
// protocol directly over net/http + encoding/json rather than adopting a
// standalone-file dependency with no grounding in a complete repo.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-router/internal/accounting"
	"github.com/tributary-ai/llm-router/internal/errs"
	"github.com/tributary-ai/llm-router/internal/providers"
	"github.com/tributary-ai/llm-router/internal/types"
)

const defaultBaseURL = "http://localhost:11434"

// Adapter implements providers.Adapter against a local Ollama server.
type Adapter struct {
	name    string
	baseURL string
	client  *http.Client
	models  []types.ModelDescriptor
	logger  *logrus.Logger
}

// New constructs an Ollama adapter. No API key is required; absence of a
// reachable server is treated as PROVIDER_UNAVAILABLE, not a config error.
func New(cfg types.ProviderConfig, logger *logrus.Logger) (*Adapter, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := 60 * time.Second
	if cfg.TimeoutMs > 0 {
		timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	name := cfg.Name
	if name == "" {
		name = "ollama"
	}
	return &Adapter{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		models:  cfg.Models,
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
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	EvalCount      int `json:"eval_count"`
	PromptEvalCount int `json:"prompt_eval_count"`
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

func (a *Adapter) buildRequest(req *types.Request, stream bool) (ollamaChatRequest, error) {
	out := ollamaChatRequest{Model: modelIDFor(req, a.models), Stream: stream}
	for _, msg := range req.Messages {
		if msg.HasParts() {
			// No vision-capable local model assumed; image parts fail fast.
			return ollamaChatRequest{}, errs.New(errs.InvalidRequest, a.name, nil)
		}
		out.Messages = append(out.Messages, ollamaMessage{Role: string(msg.Role), Content: msg.Text})
	}
	opts := map[string]any{}
	if req.Temperature != nil {
		opts["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		opts["top_p"] = *req.TopP
	}
	if req.MaxTokens != nil {
		opts["num_predict"] = *req.MaxTokens
	}
	if len(opts) > 0 {
		out.Options = opts
	}
	return out, nil
}

func (a *Adapter) normalizeError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") || strings.Contains(msg, "eof"):
		return errs.New(errs.ProviderUnavailable, a.name, err)
	case strings.Contains(msg, "deadline") || strings.Contains(msg, "timeout"):
		return errs.New(errs.Timeout, a.name, err)
	default:
		return errs.New(errs.UnknownError, a.name, err)
	}
}

func (a *Adapter) Complete(ctx context.Context, req *types.Request) (*types.Response, error) {
	oreq, err := a.buildRequest(req, false)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(oreq)
	if err != nil {
		return nil, errs.New(errs.InvalidRequest, a.name, err)
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, errs.New(errs.InvalidRequest, a.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, a.normalizeError(err)
	}
	defer resp.Body.Close()
	latency := time.Since(start).Milliseconds()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errs.New(errs.ModelNotFound, a.name, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 500 {
		return nil, errs.New(errs.ProviderUnavailable, a.name, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, errs.New(errs.InvalidRequest, a.name, fmt.Errorf("status %d", resp.StatusCode))
	}

	var decoded ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errs.New(errs.UnknownError, a.name, err)
	}

	usage := types.Usage{
		InputTokens:  decoded.PromptEvalCount,
		OutputTokens: decoded.EvalCount,
		TotalTokens:  decoded.PromptEvalCount + decoded.EvalCount,
	}
	if usage.TotalTokens == 0 {
		usage.InputTokens = a.EstimateTokens(req.Messages)
		usage.OutputTokens = accounting.EstimateTokens([]types.Message{{Text: decoded.Message.Content}})
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	cost, _ := a.CalculateCost(decoded.Model, usage)
	return &types.Response{
		Content:      decoded.Message.Content,
		Model:        decoded.Model,
		Provider:     a.name,
		Usage:        usage,
		Cost:         cost,
		LatencyMs:    latency,
		FinishReason: types.FinishStop,
	}, nil
}

func (a *Adapter) CompleteWithVision(ctx context.Context, req *types.Request) (*types.Response, error) {
	return nil, errs.New(errs.InvalidRequest, a.name, nil)
}

func (a *Adapter) Stream(ctx context.Context, req *types.Request, onChunk providers.ChunkFunc) (*types.Response, error) {
	oreq, err := a.buildRequest(req, true)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(oreq)
	if err != nil {
		return nil, errs.New(errs.InvalidRequest, a.name, err)
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, errs.New(errs.InvalidRequest, a.name, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, a.normalizeError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, errs.New(errs.ProviderUnavailable, a.name, fmt.Errorf("status %d", resp.StatusCode))
	}

	var content strings.Builder
	var model string
	var usage types.Usage
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk ollamaChatResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}
		model = chunk.Model
		if chunk.Message.Content != "" {
			content.WriteString(chunk.Message.Content)
			onChunk(chunk.Message.Content)
		}
		if chunk.Done {
			usage = types.Usage{
				InputTokens:  chunk.PromptEvalCount,
				OutputTokens: chunk.EvalCount,
				TotalTokens:  chunk.PromptEvalCount + chunk.EvalCount,
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
		FinishReason: types.FinishStop,
	}, nil
}

var _ providers.Adapter = (*Adapter)(nil)
