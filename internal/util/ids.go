// Package util provides id generation helpers shared across components.
package util

import "github.com/google/uuid"

// ID prefixes used across the engine. The prefix keeps ids readable in logs.
const (
	PrefixConversation = "conv-"
	PrefixProject      = "proj-"
	PrefixMessage      = "msg-"
	PrefixSystem       = "system-"
	PrefixStep         = "step-"
	PrefixSuggestion   = "suggestion-"
	PrefixTemplate     = "tmpl-"
)

// GenerateID returns "{prefix}{uuid}".
func GenerateID(prefix string) string {
	return prefix + uuid.NewString()
}
