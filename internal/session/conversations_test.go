package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

func TestDeriveTitle(t *testing.T) {
	long := strings.Repeat("x", 70)
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"context label", "CONTEXT: Building a habit app\nfor runners", "Building a habit app"},
		{"lowercase label", "challenge:   reduce churn", "reduce churn"},
		{"skips blank lines", "\n   \nCONTEXT:\nSecond line wins", "Second line wins"},
		{"stacked labels", "CONTEXT: CHALLENGE: both", "both"},
		{"label mid-line kept", "My CONTEXT: matters", "My CONTEXT: matters"},
		{"truncates", long, strings.Repeat("x", 60) + "..."},
		{"exactly sixty", strings.Repeat("y", 60), strings.Repeat("y", 60)},
		{"empty", "   ", UntitledTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.prompt))
		})
	}
}

func TestConversations_CreateAndView(t *testing.T) {
	c := NewConversations()
	conv, err := c.Create("CONTEXT: Building a habit app\nfor runners", "", []string{"all-rounder"})
	require.NoError(t, err)
	assert.Equal(t, "Building a habit app", conv.Title)
	assert.Equal(t, DefaultWorkflowID, conv.WorkflowID)
	assert.Equal(t, conv.ID, c.ActiveID())

	other, err := c.Create("second", "ideation", nil)
	require.NoError(t, err)
	assert.Equal(t, other.ID, c.ActiveID())

	viewed, err := c.View(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.Prompt, viewed.Prompt)
	assert.Equal(t, conv.ID, c.ActiveID())

	_, err = c.View("conv-missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = c.Create("  ", "", nil)
	assert.ErrorIs(t, err, models.ErrEmptyContent)
}

func TestConversations_CreateRejectsOversizedPrompt(t *testing.T) {
	c := NewConversations()
	_, err := c.Create(strings.Repeat("x", models.MaxMessageLength+1), "", nil)
	assert.ErrorIs(t, err, models.ErrContentTooLong)
	assert.Empty(t, c.List())
	assert.Empty(t, c.ActiveID())

	_, err = c.Create(strings.Repeat("x", models.MaxMessageLength), "", nil)
	assert.NoError(t, err)
}

func TestConversations_RenameAndDelete(t *testing.T) {
	c := NewConversations()
	conv, _ := c.Create("idea", "", nil)

	require.NoError(t, c.Rename(conv.ID, " New title "))
	got, _ := c.Get(conv.ID)
	assert.Equal(t, "New title", got.Title)
	assert.ErrorIs(t, c.Rename(conv.ID, ""), models.ErrEmptyName)
	assert.ErrorIs(t, c.Rename("nope", "x"), models.ErrNotFound)

	p, _ := c.CreateProject("P", "")
	require.NoError(t, c.Assign(conv.ID, p.ID))
	require.NoError(t, c.Delete(conv.ID))
	assert.Empty(t, c.ActiveID())
	p, _ = c.Project(p.ID)
	assert.Empty(t, p.ConversationIDs)
	assert.ErrorIs(t, c.Delete(conv.ID), models.ErrNotFound)
}

func TestConversations_RecentAndSearch(t *testing.T) {
	orig := timeNow
	defer func() { timeNow = orig }()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	timeNow = func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Minute)
	}

	c := NewConversations()
	a, _ := c.Create("Fitness app for runners", "", nil)
	b, _ := c.Create("Pricing strategy", "", nil)
	d, _ := c.Create("Onboarding flow", "", nil)

	recent := c.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, d.ID, recent[0].ID)
	assert.Equal(t, b.ID, recent[1].ID)
	assert.Len(t, c.List(), 3)

	found := c.Search("RUNNERS")
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)
	assert.Len(t, c.Search(""), 3)
	assert.Empty(t, c.Search("nothing"))
}

func TestConversations_AssignIsExclusive(t *testing.T) {
	c := NewConversations()
	conv, _ := c.Create("x", "", nil)
	p1, _ := c.CreateProject("One", "first")
	p2, _ := c.CreateProject("Two", "second")

	require.NoError(t, c.Assign(conv.ID, p1.ID))
	require.NoError(t, c.Assign(conv.ID, p2.ID))

	got1, _ := c.Project(p1.ID)
	got2, _ := c.Project(p2.ID)
	assert.False(t, got1.HasConversation(conv.ID))
	assert.True(t, got2.HasConversation(conv.ID))

	owner, ok := c.ProjectOf(conv.ID)
	require.True(t, ok)
	assert.Equal(t, p2.ID, owner.ID)

	require.NoError(t, c.Assign(conv.ID, p2.ID))
	got2, _ = c.Project(p2.ID)
	assert.Len(t, got2.ConversationIDs, 1)

	require.NoError(t, c.Unassign(conv.ID))
	_, ok = c.ProjectOf(conv.ID)
	assert.False(t, ok)
	assert.True(t, models.IsGuardRejected(c.Unassign(conv.ID)))

	assert.ErrorIs(t, c.Assign("conv-x", p1.ID), models.ErrNotFound)
	assert.ErrorIs(t, c.Assign(conv.ID, "proj-x"), models.ErrNotFound)
}

func TestConversations_Projects(t *testing.T) {
	c := NewConversations()
	_, err := c.CreateProject(" ", "")
	assert.ErrorIs(t, err, models.ErrEmptyName)

	p, err := c.CreateProject("Launch", "Q3 launch")
	require.NoError(t, err)

	conv, err := c.CreateInProject(p.ID, "", []string{"all-rounder"})
	require.NoError(t, err)
	assert.Equal(t, ProjectSeedPrompt, conv.Prompt)
	assert.Equal(t, conv.ID, c.ActiveID())

	got, _ := c.Project(p.ID)
	assert.Equal(t, []string{conv.ID}, got.ConversationIDs)

	_, err = c.CreateInProject("proj-missing", "", nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, c.DeleteProject(p.ID))
	assert.Empty(t, c.Projects())
	_, err = c.Get(conv.ID)
	assert.NoError(t, err, "deleting a project keeps its conversations")
	assert.ErrorIs(t, c.DeleteProject(p.ID), models.ErrNotFound)
}
