package session

import (
	"log/slog"
	"strings"
	"sync"
)

// Page identifies a screen of the hosting UI.
type Page string

const (
	PageSignup           Page = "signup"
	PageHome             Page = "home"
	PageConversation     Page = "conversation"
	PageContext          Page = "context"
	PageWorkflow         Page = "workflow"
	PageWorkflowEditor   Page = "workflow-editor"
	PagePreferences      Page = "preferences"
	PageBilling          Page = "billing"
	PageLLMs             Page = "llms"
	PageTeam             Page = "team"
	PageAccount          Page = "account"
	PageAssistantCreator Page = "assistant-creator"
	PageAssistants       Page = "ai-assistants"
	PageProjects         Page = "projects"
	PageAssistantEditor  Page = "ai-assistant-editor"
	PageProject          Page = "project"
)

// pagesWithID may carry an entity id.
var pagesWithID = map[Page]bool{
	PageConversation:    true,
	PageAssistantEditor: true,
	PageProject:         true,
}

// Target is a navigation destination. ID is only meaningful for pages that
// show a single entity.
type Target struct {
	Page Page   `json:"page"`
	ID   string `json:"id,omitempty"`
}

// Home targets the home page.
func Home() Target { return Target{Page: PageHome} }

// ConversationPage targets a conversation.
func ConversationPage(id string) Target { return Target{Page: PageConversation, ID: id} }

// AssistantEditor targets the editor for an assistant; "new" creates one.
func AssistantEditor(id string) Target { return Target{Page: PageAssistantEditor, ID: id} }

// ProjectPage targets a single project.
func ProjectPage(id string) Target { return Target{Page: PageProject, ID: id} }

// Token renders the target in the legacy "<base>-<id>" form.
func (t Target) Token() string {
	if t.ID == "" || !pagesWithID[t.Page] {
		return string(t.Page)
	}
	return string(t.Page) + "-" + t.ID
}

func (t Target) String() string { return t.Token() }

// ParseToken converts a legacy page token into a Target. Tokens are matched
// against the longest known base first so "ai-assistant-editor-x" resolves to
// the editor and not to "ai-assistants". Unknown tokens become a bare page.
func ParseToken(token string) Target {
	token = strings.TrimSpace(token)
	if token == "" {
		return Home()
	}
	var best Page
	for p := range pagesWithID {
		prefix := string(p) + "-"
		if strings.HasPrefix(token, prefix) && len(p) > len(best) {
			best = p
		}
	}
	if best != "" {
		return Target{Page: best, ID: strings.TrimPrefix(token, string(best)+"-")}
	}
	return Target{Page: Page(token)}
}

// Navigation tracks the current screen and a single previous screen.
type Navigation struct {
	mu       sync.RWMutex
	current  Target
	previous *Target
}

// NewNavigation starts on the signup page.
func NewNavigation() *Navigation {
	return &Navigation{current: Target{Page: PageSignup}}
}

// Current returns the current target.
func (n *Navigation) Current() Target {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Previous returns the target Back would restore.
func (n *Navigation) Previous() (Target, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.previous == nil {
		return Target{}, false
	}
	return *n.previous, true
}

// IsCurrent reports whether t is the current target.
func (n *Navigation) IsCurrent(t Target) bool {
	return n.Current() == t
}

// Navigate records the current target as previous and moves to t.
func (n *Navigation) Navigate(t Target) {
	n.mu.Lock()
	prev := n.current
	n.previous = &prev
	n.current = t
	n.mu.Unlock()
	slog.Debug("Navigation.Navigate", "from", prev.Token(), "to", t.Token())
}

// NavigateToken navigates to a legacy page token.
func (n *Navigation) NavigateToken(token string) {
	n.Navigate(ParseToken(token))
}

// GoHome navigates to the home page.
func (n *Navigation) GoHome() {
	n.Navigate(Home())
}

// Back restores the previous target once. Without an intervening Navigate a
// second call stays where it is.
func (n *Navigation) Back() Target {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.previous != nil {
		n.current = *n.previous
		n.previous = nil
	}
	return n.current
}
