package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OllamaAgent implements Agent using Ollama's native chat API
type OllamaAgent struct {
	baseURL      string
	model        string
	systemPrompt string
	client       *http.Client
	timeout      time.Duration
	conversation *Conversation
	logger       *zap.Logger
}

// Option configures an OllamaAgent
type Option func(*OllamaAgent)

// WithSystemPrompt replaces the default system prompt
func WithSystemPrompt(prompt string) Option {
	return func(o *OllamaAgent) {
		o.systemPrompt = prompt
	}
}

// WithTimeout bounds each request, 0 disables the timeout
func WithTimeout(timeout time.Duration) Option {
	return func(o *OllamaAgent) {
		o.timeout = timeout
	}
}

// WithConversation turns on multi-turn memory
func WithConversation(conv *Conversation) Option {
	return func(o *OllamaAgent) {
		o.conversation = conv
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *OllamaAgent) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOllamaAgent creates a new Ollama agent
func NewOllamaAgent(baseURL, model string, opts ...Option) *OllamaAgent {
	o := &OllamaAgent{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		model:        model,
		systemPrompt: SystemPrompt,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.client = &http.Client{Timeout: o.timeout}
	return o
}

// Conversation returns the memory in use, nil when the agent is stateless
func (o *OllamaAgent) Conversation() *Conversation {
	return o.conversation
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message *Message `json:"message"`
}

// Chat sends the system prompt and the user prompt to /api/chat
func (o *OllamaAgent) Chat(ctx context.Context, prompt string) (string, error) {
	messages := o.buildMessages(prompt)

	o.logger.Debug("sending chat request",
		zap.String("model", o.model),
		zap.Int("messages", len(messages)),
	)

	var resp chatResponse
	if err := o.post(ctx, "chat", "/api/chat", chatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   false,
	}, &resp); err != nil {
		return "", err
	}

	if resp.Message == nil {
		return "", &BackendError{Op: "chat", Err: errors.New("response missing message")}
	}

	o.logger.Debug("received chat response", zap.Int("length", len(resp.Message.Content)))

	if o.conversation != nil {
		o.conversation.Append(prompt, resp.Message.Content)
	}

	return resp.Message.Content, nil
}

// buildMessages puts the system prompt first, then any remembered turns, then the prompt
func (o *OllamaAgent) buildMessages(prompt string) []Message {
	messages := []Message{{Role: RoleSystem, Content: o.systemPrompt}}
	if o.conversation != nil {
		messages = append(messages, o.conversation.Messages()...)
	}
	return append(messages, Message{Role: RoleUser, Content: prompt})
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

// Complete sends a flattened transcript to /api/generate
func (o *OllamaAgent) Complete(ctx context.Context, prompt string) (string, error) {
	var b strings.Builder
	for _, m := range o.buildMessages(prompt) {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	b.WriteString("assistant:")

	var resp generateResponse
	if err := o.post(ctx, "complete", "/api/generate", generateRequest{
		Model:  o.model,
		Prompt: b.String(),
		Stream: false,
	}, &resp); err != nil {
		return "", err
	}

	if resp.Response == nil {
		return "", &BackendError{Op: "complete", Err: errors.New("response missing text")}
	}

	if o.conversation != nil {
		o.conversation.Append(prompt, *resp.Response)
	}

	return *resp.Response, nil
}

// ListModels returns the names of the models installed on the server
func (o *OllamaAgent) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, &BackendError{Op: "list models", Err: err}
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := o.do(req, "list models", &result); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(result.Models))
	for _, m := range result.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (o *OllamaAgent) post(ctx context.Context, op, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return &BackendError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return o.do(req, op, out)
}

func (o *OllamaAgent) do(req *http.Request, op string, out any) error {
	resp, err := o.client.Do(req)
	if err != nil {
		o.logger.Debug("backend request failed", zap.String("op", op), zap.Error(err))
		return &BackendError{Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &BackendError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &BackendError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}
