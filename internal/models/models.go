// Package models defines the core data structures for ThoughtWeaver.
//
// It includes the conversation, message and project types shared by the
// session stores, the message timeline and the workflow engine.
package models

import (
	"errors"
	"time"
)

// MessageRole identifies who authored a message.
type MessageRole string

const (
	// MessageRoleUser marks a message typed by the user.
	MessageRoleUser MessageRole = "user"
	// MessageRoleAssistant marks a reply produced by an AI assistant.
	MessageRoleAssistant MessageRole = "assistant"
	// MessageRoleSystem marks an engine notice, such as a step activation.
	MessageRoleSystem MessageRole = "system"
)

// IsValidMessageRole checks if the given role is supported.
func IsValidMessageRole(r MessageRole) bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		return true
	default:
		return false
	}
}

// Validation constants for input validation
const (
	// MaxMessageLength defines the maximum allowed length for message content
	MaxMessageLength = 16384
	// MaxTitleLength defines the maximum length of a derived conversation title
	MaxTitleLength = 60
	// MaxAssistantSelection is the maximum number of assistants selected at once
	MaxAssistantSelection = 5
)

// Error variables for better error handling and testability
var (
	ErrNotFound           = errors.New("not found")
	ErrEmptyContent       = errors.New("message content cannot be empty")
	ErrContentTooLong     = errors.New("message content exceeds maximum length")
	ErrInvalidMessageRole = errors.New("invalid message role")
	ErrMissingAssistantID = errors.New("assistant messages require an assistant id")
	ErrEmptyName          = errors.New("name cannot be empty")
)

// Message is a single chat message. Messages are append-only and never
// mutated once added to a timeline.
type Message struct {
	ID          string      `json:"id"`
	Role        MessageRole `json:"role"`
	Content     string      `json:"content"`
	AssistantID string      `json:"assistant_id,omitempty"` // set iff role is assistant
	ModelID     string      `json:"model_id,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Validate performs validation on a Message structure.
func (m *Message) Validate() error {
	if !IsValidMessageRole(m.Role) {
		return ErrInvalidMessageRole
	}
	if m.Content == "" {
		return ErrEmptyContent
	}
	if len(m.Content) > MaxMessageLength {
		return ErrContentTooLong
	}
	if m.Role == MessageRoleAssistant && m.AssistantID == "" {
		return ErrMissingAssistantID
	}
	return nil
}

// MessageGroup is a derived run of messages that share a time bucket.
// It is recomputed from the message list and never stored.
type MessageGroup struct {
	Timestamp time.Time `json:"timestamp"` // timestamp of the first message in the group
	Messages  []Message `json:"messages"`
}

// Conversation is a chat session seeded by a prompt.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Prompt       string    `json:"prompt"` // immutable seed text
	WorkflowID   string    `json:"workflow_id"`
	AssistantIDs []string  `json:"assistant_ids"`
	ModelID      string    `json:"model_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Project groups conversations. A conversation belongs to at most one project.
type Project struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	ConversationIDs []string  `json:"conversation_ids"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasConversation reports whether the project contains the conversation.
func (p *Project) HasConversation(conversationID string) bool {
	for _, id := range p.ConversationIDs {
		if id == conversationID {
			return true
		}
	}
	return false
}

// TimerInfo describes a pending scheduled callback.
type TimerInfo struct {
	ID          string    `json:"id"`
	Key         string    `json:"key,omitempty"` // cancellation group, usually a conversation id
	ScheduledAt time.Time `json:"scheduled_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Remaining   string    `json:"remaining"`
	Description string    `json:"description"`
}
