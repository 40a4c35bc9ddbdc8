package session

import "testing"

func TestNavigation_BackRestoresOnce(t *testing.T) {
	n := NewNavigation()
	n.GoHome()
	n.Navigate(ConversationPage("conv-1"))

	if got := n.Back(); got != Home() {
		t.Fatalf("Back() = %v, want home", got)
	}
	if got := n.Back(); got != Home() {
		t.Errorf("second Back() = %v, want to stay home", got)
	}
	if _, ok := n.Previous(); ok {
		t.Error("previous still set after Back")
	}
}

func TestNavigation_StartsOnSignup(t *testing.T) {
	n := NewNavigation()
	if n.Current().Page != PageSignup {
		t.Errorf("start page = %v", n.Current())
	}
	if got := n.Back(); got.Page != PageSignup {
		t.Errorf("Back with no history = %v", got)
	}
}

func TestNavigation_IsCurrent(t *testing.T) {
	n := NewNavigation()
	n.Navigate(AssistantEditor("writing-coach"))
	if !n.IsCurrent(AssistantEditor("writing-coach")) {
		t.Error("IsCurrent = false for current target")
	}
	if n.IsCurrent(AssistantEditor("seo-expert")) {
		t.Error("IsCurrent = true for a different id")
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		token string
		want  Target
	}{
		{"home", Home()},
		{"", Home()},
		{"ai-assistants", Target{Page: PageAssistants}},
		{"ai-assistant-editor-new", AssistantEditor("new")},
		{"ai-assistant-editor-writing-coach", AssistantEditor("writing-coach")},
		{"conversation-conv-123", ConversationPage("conv-123")},
		{"conversation", Target{Page: PageConversation}},
		{"project-proj-9", ProjectPage("proj-9")},
		{"workflow-editor", Target{Page: PageWorkflowEditor}},
	}
	for _, tt := range tests {
		if got := ParseToken(tt.token); got != tt.want {
			t.Errorf("ParseToken(%q) = %+v, want %+v", tt.token, got, tt.want)
		}
	}
}

func TestTarget_TokenRoundTrip(t *testing.T) {
	for _, target := range []Target{Home(), AssistantEditor("new"), ConversationPage("conv-1"), {Page: PageProjects}} {
		if got := ParseToken(target.Token()); got != target {
			t.Errorf("ParseToken(%q) = %+v, want %+v", target.Token(), got, target)
		}
	}
}

func TestNavigation_NavigateToken(t *testing.T) {
	n := New().Navigation
	n.NavigateToken("ai-assistant-editor-seo-expert")
	if got := n.Current(); got != AssistantEditor("seo-expert") {
		t.Errorf("Current = %+v", got)
	}
}
