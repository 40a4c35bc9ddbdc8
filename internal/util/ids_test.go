package util

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID(PrefixConversation)
	if !strings.HasPrefix(id, PrefixConversation) {
		t.Fatalf("expected %q to carry prefix %q", id, PrefixConversation)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(id, PrefixConversation)); err != nil {
		t.Errorf("id %q does not end in a uuid: %v", id, err)
	}
}

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateID(PrefixMessage)
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}
