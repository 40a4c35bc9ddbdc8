// Package genai produces assistant replies for the conversation orchestrator.
//
// Client calls the OpenAI Chat Completions API; SimulatedGenerator returns
// canned text and is used when no API key is configured.
package genai

import (
	"context"

	"github.com/BTreeMap/ThoughtWeaver/internal/catalog"
	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

// ReplyKind tells the generator why a reply is being requested.
type ReplyKind string

const (
	// ReplyOpening answers the seed prompt of a conversation.
	ReplyOpening ReplyKind = "opening"
	// ReplyActivation answers the activation of a workflow step.
	ReplyActivation ReplyKind = "activation"
	// ReplyContinuation answers an ordinary user message.
	ReplyContinuation ReplyKind = "continuation"
)

// ReplyRequest carries the context for one assistant reply.
type ReplyRequest struct {
	ConversationID string
	AssistantID    string
	ModelID        string
	Kind           ReplyKind
	Role           *models.Role // set for ReplyActivation
	Messages       []models.Message
}

// ReplyGenerator produces the text of an assistant reply.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, req ReplyRequest) (string, error)
}

// AssistantCatalog resolves assistant display and prompt data.
type AssistantCatalog interface {
	Assistant(id string) catalog.Assistant
}
