package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

// Selection defaults restored by Reset.
const (
	DefaultWorkflowID  = "build-as-we-go"
	DefaultAssistantID = "all-rounder"
	DefaultModelID     = "claude-3-opus"
)

// Selection holds the active workflow, assistants and model. The assistant
// list is never empty.
type Selection struct {
	mu           sync.RWMutex
	workflowID   string
	assistantIDs []string
	modelID      string
}

// NewSelection creates a Selection holding the defaults.
func NewSelection() *Selection {
	s := &Selection{}
	s.reset()
	return s
}

// SelectionState is a point-in-time copy of a Selection.
type SelectionState struct {
	WorkflowID   string   `json:"workflow_id"`
	AssistantIDs []string `json:"assistant_ids"`
	ModelID      string   `json:"model_id"`
}

// State returns a copy of the current selection.
func (s *Selection) State() SelectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SelectionState{
		WorkflowID:   s.workflowID,
		AssistantIDs: append([]string(nil), s.assistantIDs...),
		ModelID:      s.modelID,
	}
}

// WorkflowID returns the selected workflow id.
func (s *Selection) WorkflowID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workflowID
}

// AssistantIDs returns the selected assistant ids in selection order.
func (s *Selection) AssistantIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.assistantIDs...)
}

// ModelID returns the selected model id.
func (s *Selection) ModelID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelID
}

// IsSelected reports whether the assistant is selected.
func (s *Selection) IsSelected(assistantID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.assistantIDs, assistantID) >= 0
}

// SetWorkflow selects a workflow.
func (s *Selection) SetWorkflow(id string) error {
	if id == "" {
		return models.Reject("Selection.SetWorkflow", "workflow id is empty")
	}
	s.mu.Lock()
	s.workflowID = id
	s.mu.Unlock()
	slog.Debug("Selection.SetWorkflow", "workflowID", id)
	return nil
}

// SetAssistants replaces the assistant selection wholesale. Duplicates are
// dropped; the result must hold between one and MaxAssistantSelection ids.
func (s *Selection) SetAssistants(ids []string) error {
	const op = "Selection.SetAssistants"
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && indexOf(uniq, id) < 0 {
			uniq = append(uniq, id)
		}
	}
	if len(uniq) == 0 {
		return models.Reject(op, "at least one assistant must stay selected")
	}
	if len(uniq) > models.MaxAssistantSelection {
		return models.Reject(op, fmt.Sprintf("at most %d assistants may be selected", models.MaxAssistantSelection))
	}
	s.mu.Lock()
	s.assistantIDs = uniq
	s.mu.Unlock()
	slog.Debug("Selection.SetAssistants", "assistantIDs", uniq)
	return nil
}

// ToggleAssistant removes the assistant if selected, otherwise adds it.
// Removing the sole selection or exceeding MaxAssistantSelection is rejected.
func (s *Selection) ToggleAssistant(id string) error {
	const op = "Selection.ToggleAssistant"
	if id == "" {
		return models.Reject(op, "assistant id is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.assistantIDs, id); i >= 0 {
		if len(s.assistantIDs) == 1 {
			slog.Warn("Selection.ToggleAssistant: refusing to remove last assistant", "assistantID", id)
			return models.Reject(op, "at least one assistant must stay selected")
		}
		next := make([]string, 0, len(s.assistantIDs)-1)
		next = append(next, s.assistantIDs[:i]...)
		s.assistantIDs = append(next, s.assistantIDs[i+1:]...)
		slog.Debug("Selection.ToggleAssistant: removed", "assistantID", id)
		return nil
	}
	if len(s.assistantIDs) >= models.MaxAssistantSelection {
		return models.Reject(op, fmt.Sprintf("at most %d assistants may be selected", models.MaxAssistantSelection))
	}
	s.assistantIDs = append(append([]string(nil), s.assistantIDs...), id)
	slog.Debug("Selection.ToggleAssistant: added", "assistantID", id)
	return nil
}

// SetModel selects a model.
func (s *Selection) SetModel(id string) error {
	if id == "" {
		return models.Reject("Selection.SetModel", "model id is empty")
	}
	s.mu.Lock()
	s.modelID = id
	s.mu.Unlock()
	slog.Debug("Selection.SetModel", "modelID", id)
	return nil
}

// Reset restores the defaults.
func (s *Selection) Reset() {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	slog.Debug("Selection.Reset")
}

func (s *Selection) reset() {
	s.workflowID = DefaultWorkflowID
	s.assistantIDs = []string{DefaultAssistantID}
	s.modelID = DefaultModelID
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
