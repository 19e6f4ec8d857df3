package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skua-dev/skua/internal/runtime"
)

// OpenAIClient talks to any OpenAI-compatible API. It implements
// runtime.Gateway (chat completions with function calling), Completer
// (single-prompt text) and the vector package's Embedder.
type OpenAIClient struct {
	baseURL     string
	apiKey      string
	model       string
	embedModel  string
	temperature float64
	httpClient  *http.Client
	logger      *zap.Logger
}

// OpenAIOptions configures an OpenAIClient.
type OpenAIOptions struct {
	BaseURL     string
	APIKey      string
	Model       string
	EmbedModel  string
	Temperature float64
	// Timeout bounds each HTTP round trip. Zero means 60s.
	Timeout time.Duration
}

// NewOpenAIClient creates a client for the given endpoint.
func NewOpenAIClient(opts OpenAIOptions, logger *zap.Logger) *OpenAIClient {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		model:       opts.Model,
		embedModel:  opts.EmbedModel,
		temperature: opts.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// WithModel returns a copy of the client that generates with the given
// model and temperature. An empty model or zero temperature keeps the
// client's configured value. The copy shares the underlying HTTP
// client.
func (c *OpenAIClient) WithModel(model string, temperature float64) runtime.Gateway {
	clone := *c
	if model != "" {
		clone.model = model
	}
	if temperature > 0 {
		clone.temperature = temperature
	}
	return &clone
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name string `json:"name"`
	// Arguments is a JSON object serialised as a string, per the
	// chat-completions wire format.
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string      `json:"name"`
		Description string      `json:"description"`
		Parameters  interface{} `json:"parameters"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ---------------------------------------------------------------------------
// runtime.Gateway
// ---------------------------------------------------------------------------

// Generate sends the system instruction, the full history and every
// tool spec to the chat-completions endpoint and returns the assistant
// reply. All failures wrap runtime.ErrGeneration.
func (c *OpenAIClient) Generate(ctx context.Context, system string, history []runtime.Message, tools []runtime.Spec) (runtime.Message, error) {
	req := chatRequest{
		Model:       c.model,
		Temperature: c.temperature,
	}

	if system != "" {
		req.Messages = append(req.Messages, wireMessage{Role: "system", Content: system})
	}
	for _, msg := range history {
		req.Messages = append(req.Messages, toWire(msg))
	}
	for _, spec := range tools {
		var wt wireTool
		wt.Type = "function"
		wt.Function.Name = spec.Name
		wt.Function.Description = spec.Description
		wt.Function.Parameters = spec.Parameters
		req.Tools = append(req.Tools, wt)
	}

	c.logger.Debug("chat completion request",
		zap.String("model", c.model),
		zap.Int("messages", len(req.Messages)),
		zap.Int("tools", len(req.Tools)),
	)

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return runtime.Message{}, err
	}
	if resp.Error != nil {
		return runtime.Message{}, fmt.Errorf("%w: %s", runtime.ErrGeneration, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return runtime.Message{}, fmt.Errorf("%w: response carried no choices", runtime.ErrGeneration)
	}

	reply, err := fromWire(resp.Choices[0].Message)
	if err != nil {
		return runtime.Message{}, fmt.Errorf("%w: %v", runtime.ErrGeneration, err)
	}

	c.logger.Debug("chat completion response",
		zap.String("finishReason", resp.Choices[0].FinishReason),
		zap.Int("toolCalls", len(reply.ToolCalls)),
		zap.Int("contentLen", len(reply.Content)),
	)
	return reply, nil
}

// Complete satisfies Completer with a single-user-message completion.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	reply, err := c.Generate(ctx, "", []runtime.Message{runtime.UserMessage(prompt)}, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply.Content), nil
}

// ---------------------------------------------------------------------------
// Embeddings
// ---------------------------------------------------------------------------

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Embed returns one vector per input text, in input order.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	if err := c.post(ctx, "/embeddings", embedRequest{Model: c.embedModel, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s", runtime.ErrGeneration, resp.Error.Message)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", runtime.ErrGeneration, len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", runtime.ErrGeneration, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

func (c *OpenAIClient) post(ctx context.Context, path string, body, target interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", runtime.ErrGeneration, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: building request: %v", runtime.ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrGeneration, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", runtime.ErrGeneration, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", runtime.ErrGeneration, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if err := json.Unmarshal(respBody, target); err != nil {
		return fmt.Errorf("%w: decoding response: %v", runtime.ErrGeneration, err)
	}
	return nil
}

func toWire(msg runtime.Message) wireMessage {
	wm := wireMessage{
		Role:       string(msg.Role),
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
	}
	for _, call := range msg.ToolCalls {
		wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
			ID:   call.ID,
			Type: "function",
			Function: wireFunction{
				Name:      call.Name,
				Arguments: string(call.Arguments),
			},
		})
	}
	return wm
}

func fromWire(wm wireMessage) (runtime.Message, error) {
	msg := runtime.Message{
		Role:      runtime.RoleAssistant,
		Content:   wm.Content,
		Timestamp: time.Now(),
	}
	for _, wc := range wm.ToolCalls {
		args := wc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		if !json.Valid([]byte(args)) {
			return runtime.Message{}, fmt.Errorf("tool call %s carried malformed arguments", wc.Function.Name)
		}
		id := wc.ID
		if id == "" {
			// Some compatible backends omit call IDs; synthesize one so
			// result correlation always holds.
			id = "call_" + uuid.NewString()
		}
		msg.ToolCalls = append(msg.ToolCalls, runtime.ToolCall{
			ID:        id,
			Name:      wc.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}
	return msg, nil
}
