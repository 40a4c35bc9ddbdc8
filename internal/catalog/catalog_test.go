package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

func TestDefault_RolesInDisplayOrder(t *testing.T) {
	c := Default()
	var ids []string
	for _, r := range c.Roles() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"frame", "ideate", "challenge", "analyze", "refine", "present", "find", "check"}, ids)
}

func TestDefault_FrameIsHuman(t *testing.T) {
	c := Default()
	frame, ok := c.LookupRole("frame")
	require.True(t, ok)
	assert.Equal(t, models.RoleCategoryHuman, frame.Category)
	assert.Equal(t, "Define the problem and context clearly", frame.Description)
	assert.Equal(t, []string{"problem-statement-guide", "all-rounder", "visionary-strategist"}, frame.SuggestedAssistantIDs)

	for _, r := range c.Roles() {
		if r.ID != "frame" {
			assert.Equal(t, models.RoleCategoryAI, r.Category, r.ID)
		}
	}
}

func TestDefault_EverySuggestedAssistantExists(t *testing.T) {
	c := Default()
	for _, r := range c.Roles() {
		for _, a := range r.SuggestedAssistantIDs {
			_, ok := c.LookupAssistant(a)
			assert.True(t, ok, "role %s references unknown assistant %s", r.ID, a)
		}
	}
}

func TestRole_UnknownFallsBackToFirst(t *testing.T) {
	c := Default()
	r := c.Role("no-such-role")
	assert.Equal(t, "frame", r.ID)
}

func TestAssistant_UnknownFallsBackToAllRounder(t *testing.T) {
	c := Default()
	a := c.Assistant("nobody")
	assert.Equal(t, "all-rounder", a.ID)
	assert.NotEmpty(t, a.SystemPrompt)
}

func TestModel_Lookup(t *testing.T) {
	c := Default()
	m, ok := c.LookupModel("claude-3-opus")
	require.True(t, ok)
	assert.Equal(t, "Anthropic", m.Provider)
	assert.Equal(t, "claude-3-opus", c.Model("unknown").ID)
	assert.Len(t, c.Models(), 7)
}

func TestRoles_ReturnsCopy(t *testing.T) {
	c := Default()
	roles := c.Roles()
	roles[0].Name = "mutated"
	assert.Equal(t, "Frame", c.Role("frame").Name)
}

func TestParse_Errors(t *testing.T) {
	good := []byte("- id: a\n  name: A\n")
	tests := []struct {
		name                string
		roles, assist, mods []byte
	}{
		{"empty roles", []byte("[]"), good, good},
		{"duplicate assistant", good, []byte("- id: a\n- id: a\n"), good},
		{"missing model id", good, good, []byte("- name: x\n")},
		{"malformed yaml", []byte("{"), good, good},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.roles, tt.assist, tt.mods)
			assert.Error(t, err)
		})
	}
}
