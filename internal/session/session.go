// Package session holds the process-lifetime state the workflow engine reads
// and mutates: the assistant/model/workflow selection, conversations with
// their projects, and navigation.
package session

// Session aggregates the three scoped stores. Each store exposes only its own
// mutators.
type Session struct {
	Selection     *Selection
	Conversations *Conversations
	Navigation    *Navigation
}

// New creates a Session with default selection and no conversations.
func New() *Session {
	return &Session{
		Selection:     NewSelection(),
		Conversations: NewConversations(),
		Navigation:    NewNavigation(),
	}
}
