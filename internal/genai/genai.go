package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

// DefaultModel is used when the conversation's model is not an OpenAI model.
const DefaultModel = "gpt-4o-mini"

// DefaultHistoryLimit caps how many timeline messages are sent as context.
const DefaultHistoryLimit = 20

// Error variables for better error handling and testability
var (
	ErrNoChoicesReturned = errors.New("no choices returned")
	ErrMissingAPIKey     = errors.New("OpenAI API key not set")
)

// chatService defines minimal interface for chat completions.
type chatService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Opts holds configuration for the OpenAI client.
type Opts struct {
	APIKey       string
	Model        string
	HistoryLimit int
	Assistants   AssistantCatalog
}

// Option configures a Client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the fallback model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithHistoryLimit sets how many recent messages are sent as context.
func WithHistoryLimit(n int) Option {
	return func(o *Opts) { o.HistoryLimit = n }
}

// WithAssistants sets the catalog used to resolve system prompts.
func WithAssistants(c AssistantCatalog) Option {
	return func(o *Opts) { o.Assistants = c }
}

// Client generates replies through OpenAI Chat Completions.
type Client struct {
	chat         chatService
	model        string
	historyLimit int
	assistants   AssistantCatalog
}

// NewClient initializes a Client. An API key is required.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{Model: DefaultModel, HistoryLimit: DefaultHistoryLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("genai.NewClient: OpenAI client created", "model", cfg.Model)
	return &Client{
		chat:         &cli.Chat.Completions,
		model:        cfg.Model,
		historyLimit: cfg.HistoryLimit,
		assistants:   cfg.Assistants,
	}, nil
}

// GenerateReply asks the model for the next assistant message.
func (c *Client) GenerateReply(ctx context.Context, req ReplyRequest) (string, error) {
	model := c.modelFor(req.ModelID)
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: c.buildMessages(req),
	}
	resp, err := c.chat.New(ctx, params)
	if err != nil {
		slog.Error("Client.GenerateReply: chat completion failed", "error", err, "conversationID", req.ConversationID, "model", model)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrNoChoicesReturned
	}
	slog.Debug("Client.GenerateReply: reply received", "conversationID", req.ConversationID, "model", model, "length", len(content))
	return content, nil
}

// modelFor keeps OpenAI model ids and maps everything else to the default.
func (c *Client) modelFor(modelID string) string {
	if strings.HasPrefix(modelID, "gpt-") || strings.HasPrefix(modelID, "o1") || strings.HasPrefix(modelID, "o3") {
		return modelID
	}
	return c.model
}

func (c *Client) buildMessages(req ReplyRequest) []openai.ChatCompletionMessageParamUnion {
	var msgs []openai.ChatCompletionMessageParamUnion
	if sys := c.systemPrompt(req); sys != "" {
		msgs = append(msgs, openai.SystemMessage(sys))
	}

	history := req.Messages
	if c.historyLimit > 0 && len(history) > c.historyLimit {
		history = history[len(history)-c.historyLimit:]
	}
	for _, m := range history {
		switch m.Role {
		case models.MessageRoleUser:
			msgs = append(msgs, openai.UserMessage(m.Content))
		case models.MessageRoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		}
	}
	return msgs
}

func (c *Client) systemPrompt(req ReplyRequest) string {
	var b strings.Builder
	if c.assistants != nil {
		b.WriteString(c.assistants.Assistant(req.AssistantID).SystemPrompt)
	}
	switch req.Kind {
	case ReplyOpening:
		b.WriteString("\n\nThe user has just shared the challenge below. Acknowledge it and propose how to start exploring it.")
	case ReplyActivation:
		if req.Role != nil {
			fmt.Fprintf(&b, "\n\nYou have been brought in for the %s step: %s. Open that step in two or three sentences.",
				req.Role.Name, strings.ToLower(req.Role.Description))
		}
	}
	return strings.TrimSpace(b.String())
}
