package session

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
	"github.com/BTreeMap/ThoughtWeaver/internal/util"
)

// ProjectSeedPrompt seeds conversations created directly inside a project.
const ProjectSeedPrompt = "New conversation in project"

// UntitledTitle is used when a prompt yields no title text.
const UntitledTitle = "Untitled"

// timeNow is replaced in tests.
var timeNow = time.Now

var labelPrefix = regexp.MustCompile(`(?i)^\s*(CONTEXT|CHALLENGE):\s*`)

// DeriveTitle builds a conversation title from a prompt: leading CONTEXT: and
// CHALLENGE: labels are stripped, the first non-empty line is taken and
// anything beyond MaxTitleLength characters is cut and marked with "...".
func DeriveTitle(prompt string) string {
	var line string
	for _, raw := range strings.Split(prompt, "\n") {
		l := raw
		for labelPrefix.MatchString(l) {
			l = labelPrefix.ReplaceAllString(l, "")
		}
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	if line == "" {
		return UntitledTitle
	}
	runes := []rune(line)
	if len(runes) <= models.MaxTitleLength {
		return line
	}
	return strings.TrimSpace(string(runes[:models.MaxTitleLength])) + "..."
}

// Conversations stores conversations, the active conversation id and projects.
type Conversations struct {
	mu            sync.RWMutex
	conversations []models.Conversation // newest first
	activeID      string
	projects      []models.Project
}

// NewConversations creates an empty store.
func NewConversations() *Conversations {
	return &Conversations{}
}

// Create adds a conversation seeded by prompt and makes it active.
func (c *Conversations) Create(prompt, workflowID string, assistantIDs []string) (models.Conversation, error) {
	if strings.TrimSpace(prompt) == "" {
		return models.Conversation{}, models.ErrEmptyContent
	}
	if len(prompt) > models.MaxMessageLength {
		return models.Conversation{}, models.ErrContentTooLong
	}
	if workflowID == "" {
		workflowID = DefaultWorkflowID
	}
	conv := models.Conversation{
		ID:           util.GenerateID(util.PrefixConversation),
		Title:        DeriveTitle(prompt),
		Prompt:       prompt,
		WorkflowID:   workflowID,
		AssistantIDs: append([]string(nil), assistantIDs...),
		Timestamp:    timeNow(),
	}

	c.mu.Lock()
	c.conversations = append([]models.Conversation{conv}, c.conversations...)
	c.activeID = conv.ID
	c.mu.Unlock()

	slog.Info("Conversations.Create: conversation created", "conversationID", conv.ID, "title", conv.Title, "workflowID", workflowID)
	return cloneConversation(conv), nil
}

// Get returns a conversation by id.
func (c *Conversations) Get(id string) (models.Conversation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.find(id)
	if i < 0 {
		return models.Conversation{}, fmt.Errorf("conversation %s: %w", id, models.ErrNotFound)
	}
	return cloneConversation(c.conversations[i]), nil
}

// View makes a conversation active and returns it so its prompt can re-seed
// the timeline.
func (c *Conversations) View(id string) (models.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.find(id)
	if i < 0 {
		return models.Conversation{}, fmt.Errorf("conversation %s: %w", id, models.ErrNotFound)
	}
	c.activeID = id
	slog.Debug("Conversations.View", "conversationID", id)
	return cloneConversation(c.conversations[i]), nil
}

// ActiveID returns the active conversation id, or "".
func (c *Conversations) ActiveID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeID
}

// Active returns the active conversation.
func (c *Conversations) Active() (models.Conversation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.find(c.activeID)
	if i < 0 {
		return models.Conversation{}, false
	}
	return cloneConversation(c.conversations[i]), true
}

// Rename sets a conversation's title.
func (c *Conversations) Rename(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.ErrEmptyName
	}
	return c.update(id, func(conv *models.Conversation) { conv.Title = title })
}

// SetModel pins a conversation to a model.
func (c *Conversations) SetModel(id, modelID string) error {
	return c.update(id, func(conv *models.Conversation) { conv.ModelID = modelID })
}

// Delete removes a conversation, clears it from its project and unsets the
// active id if it was active.
func (c *Conversations) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.find(id)
	if i < 0 {
		return fmt.Errorf("conversation %s: %w", id, models.ErrNotFound)
	}
	next := make([]models.Conversation, 0, len(c.conversations)-1)
	next = append(next, c.conversations[:i]...)
	c.conversations = append(next, c.conversations[i+1:]...)
	c.detach(id)
	if c.activeID == id {
		c.activeID = ""
	}
	slog.Info("Conversations.Delete: conversation deleted", "conversationID", id)
	return nil
}

// List returns all conversations, newest first.
func (c *Conversations) List() []models.Conversation {
	return c.Recent(0)
}

// Recent returns conversations ordered by timestamp, newest first. A limit of
// zero or less returns all of them.
func (c *Conversations) Recent(limit int) []models.Conversation {
	c.mu.RLock()
	out := make([]models.Conversation, 0, len(c.conversations))
	for _, conv := range c.conversations {
		out = append(out, cloneConversation(conv))
	}
	c.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Search returns conversations whose title or prompt contains query,
// ignoring case. An empty query matches everything.
func (c *Conversations) Search(query string) []models.Conversation {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.Conversation
	for _, conv := range c.Recent(0) {
		if q == "" || strings.Contains(strings.ToLower(conv.Title), q) || strings.Contains(strings.ToLower(conv.Prompt), q) {
			out = append(out, conv)
		}
	}
	return out
}

// CreateProject adds a project.
func (c *Conversations) CreateProject(name, description string) (models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Project{}, models.ErrEmptyName
	}
	p := models.Project{
		ID:              util.GenerateID(util.PrefixProject),
		Name:            name,
		Description:     description,
		ConversationIDs: []string{},
		CreatedAt:       timeNow(),
	}
	c.mu.Lock()
	c.projects = append(c.projects, p)
	c.mu.Unlock()
	slog.Info("Conversations.CreateProject: project created", "projectID", p.ID, "name", name)
	return cloneProject(p), nil
}

// DeleteProject removes a project. Its conversations are kept.
func (c *Conversations) DeleteProject(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.findProject(id)
	if i < 0 {
		return fmt.Errorf("project %s: %w", id, models.ErrNotFound)
	}
	next := make([]models.Project, 0, len(c.projects)-1)
	next = append(next, c.projects[:i]...)
	c.projects = append(next, c.projects[i+1:]...)
	slog.Info("Conversations.DeleteProject: project deleted", "projectID", id)
	return nil
}

// Project returns a project by id.
func (c *Conversations) Project(id string) (models.Project, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.findProject(id)
	if i < 0 {
		return models.Project{}, fmt.Errorf("project %s: %w", id, models.ErrNotFound)
	}
	return cloneProject(c.projects[i]), nil
}

// Projects returns all projects in creation order.
func (c *Conversations) Projects() []models.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Project, 0, len(c.projects))
	for _, p := range c.projects {
		out = append(out, cloneProject(p))
	}
	return out
}

// ProjectOf returns the project a conversation belongs to.
func (c *Conversations) ProjectOf(conversationID string) (models.Project, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.projects {
		if p.HasConversation(conversationID) {
			return cloneProject(p), true
		}
	}
	return models.Project{}, false
}

// Assign moves a conversation into a project, removing it from any project it
// was in before.
func (c *Conversations) Assign(conversationID, projectID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.find(conversationID) < 0 {
		return fmt.Errorf("conversation %s: %w", conversationID, models.ErrNotFound)
	}
	pi := c.findProject(projectID)
	if pi < 0 {
		return fmt.Errorf("project %s: %w", projectID, models.ErrNotFound)
	}
	if c.projects[pi].HasConversation(conversationID) {
		return nil
	}
	c.detach(conversationID)
	p := &c.projects[pi]
	p.ConversationIDs = append(append([]string(nil), p.ConversationIDs...), conversationID)
	slog.Debug("Conversations.Assign", "conversationID", conversationID, "projectID", projectID)
	return nil
}

// Unassign removes a conversation from whatever project holds it.
func (c *Conversations) Unassign(conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.detach(conversationID) {
		return models.Reject("Conversations.Unassign", fmt.Sprintf("conversation %s is not in a project", conversationID))
	}
	slog.Debug("Conversations.Unassign", "conversationID", conversationID)
	return nil
}

// CreateInProject creates a conversation seeded with ProjectSeedPrompt and
// assigns it to the project.
func (c *Conversations) CreateInProject(projectID, workflowID string, assistantIDs []string) (models.Conversation, error) {
	if _, err := c.Project(projectID); err != nil {
		return models.Conversation{}, err
	}
	conv, err := c.Create(ProjectSeedPrompt, workflowID, assistantIDs)
	if err != nil {
		return models.Conversation{}, err
	}
	if err := c.Assign(conv.ID, projectID); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

func (c *Conversations) update(id string, fn func(*models.Conversation)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.find(id)
	if i < 0 {
		return fmt.Errorf("conversation %s: %w", id, models.ErrNotFound)
	}
	conv := cloneConversation(c.conversations[i])
	fn(&conv)
	c.conversations[i] = conv
	return nil
}

// detach removes the conversation from every project. Callers hold mu.
func (c *Conversations) detach(conversationID string) bool {
	found := false
	for i := range c.projects {
		p := &c.projects[i]
		if !p.HasConversation(conversationID) {
			continue
		}
		ids := make([]string, 0, len(p.ConversationIDs)-1)
		for _, id := range p.ConversationIDs {
			if id != conversationID {
				ids = append(ids, id)
			}
		}
		p.ConversationIDs = ids
		found = true
	}
	return found
}

func (c *Conversations) find(id string) int {
	if id == "" {
		return -1
	}
	for i := range c.conversations {
		if c.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Conversations) findProject(id string) int {
	for i := range c.projects {
		if c.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneConversation(conv models.Conversation) models.Conversation {
	conv.AssistantIDs = append([]string(nil), conv.AssistantIDs...)
	return conv
}

func cloneProject(p models.Project) models.Project {
	p.ConversationIDs = append([]string{}, p.ConversationIDs...)
	return p
}
