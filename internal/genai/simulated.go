package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Canned replies.
const (
	DefaultOpener      = "Thanks for sharing! I can help you explore this from multiple angles. Let's start by identifying your core objectives and then work through different approaches to achieve them."
	ContinuationReply  = "This is a thoughtful point. Let me add to the discussion..."
	activationFallback = "Great! I'm here to help with %s."
)

var activationReplies = map[string]string{
	"frame":     "Let's start by clearly defining the problem and understanding the context. What specific challenge are we trying to address, and what constraints or considerations should we keep in mind?",
	"ideate":    "Now that we have clarity on the problem, let's explore creative possibilities. I'll help generate diverse ideas and approaches we can consider.",
	"challenge": "Let me play devil's advocate here. What are the potential downsides and risks we haven't considered? Let's stress-test these ideas thoroughly.",
	"analyze":   "Looking at this from a data perspective, I notice some interesting patterns we should explore further. Let me break down the key factors systematically.",
	"refine":    "I can see several opportunities to strengthen and polish this work. Let's focus on clarity and impact to make this even better.",
}

// SimulatedGenerator answers with fixed text. It never fails.
type SimulatedGenerator struct {
	assistants AssistantCatalog
}

// NewSimulatedGenerator creates a SimulatedGenerator. The catalog supplies
// assistant-specific openers and may be nil.
func NewSimulatedGenerator(assistants AssistantCatalog) *SimulatedGenerator {
	return &SimulatedGenerator{assistants: assistants}
}

// GenerateReply returns the canned reply for req.
func (g *SimulatedGenerator) GenerateReply(ctx context.Context, req ReplyRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var reply string
	switch req.Kind {
	case ReplyOpening:
		reply = DefaultOpener
		if g.assistants != nil {
			if opener := g.assistants.Assistant(req.AssistantID).Opener; opener != "" {
				reply = opener
			}
		}
	case ReplyActivation:
		reply = ActivationReply(req)
	default:
		reply = ContinuationReply
	}
	slog.Debug("SimulatedGenerator.GenerateReply", "conversationID", req.ConversationID, "kind", req.Kind, "assistantID", req.AssistantID)
	return reply, nil
}

// ActivationReply returns the canned answer to a step activation.
func ActivationReply(req ReplyRequest) string {
	if req.Role == nil {
		return ContinuationReply
	}
	if r, ok := activationReplies[req.Role.ID]; ok {
		return r
	}
	return fmt.Sprintf(activationFallback, strings.ToLower(req.Role.Description))
}
