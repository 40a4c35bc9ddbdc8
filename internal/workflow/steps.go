package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
	"github.com/BTreeMap/ThoughtWeaver/internal/util"
)

// TemplateSaver persists a named workflow template.
type TemplateSaver interface {
	SaveTemplate(ctx context.Context, tmpl models.WorkflowTemplate) error
}

// StepManager owns the step list and the outstanding suggestion of one
// conversation. It is not safe for concurrent use; the orchestrator serializes
// access to it.
type StepManager struct {
	steps      []models.WorkflowStep
	suggestion *models.WorkflowSuggestion
}

// NewStepManager creates an empty StepManager.
func NewStepManager() *StepManager {
	return &StepManager{}
}

// Suggestion returns a copy of the outstanding suggestion, if any.
func (m *StepManager) Suggestion() (models.WorkflowSuggestion, bool) {
	if m.suggestion == nil {
		return models.WorkflowSuggestion{}, false
	}
	return cloneSuggestion(*m.suggestion), true
}

// HasSuggestion reports whether a suggestion is outstanding.
func (m *StepManager) HasSuggestion() bool {
	return m.suggestion != nil
}

// Propose makes s the outstanding suggestion. Only one may be outstanding.
func (m *StepManager) Propose(s models.WorkflowSuggestion) error {
	if m.suggestion != nil {
		return models.Reject("StepManager.Propose", "a suggestion is already outstanding")
	}
	if m.openStepFor(s.RoleID) != nil {
		return models.Reject("StepManager.Propose", fmt.Sprintf("role %s already has an open step", s.RoleID))
	}
	c := cloneSuggestion(s)
	m.suggestion = &c
	slog.Debug("StepManager.Propose: suggestion outstanding", "suggestionID", s.ID, "roleID", s.RoleID, "trigger", s.Trigger)
	return nil
}

// Accept turns the outstanding suggestion into an active step assigned to the
// chosen assistant. The assistant must be one of the recommended ones and no
// other step may be active.
func (m *StepManager) Accept(assistantID string) (models.WorkflowStep, error) {
	const op = "StepManager.Accept"
	if m.suggestion == nil {
		return models.WorkflowStep{}, models.Reject(op, "no outstanding suggestion")
	}
	if !m.suggestion.Recommends(assistantID) {
		return models.WorkflowStep{}, models.Reject(op, fmt.Sprintf("assistant %s is not recommended for role %s", assistantID, m.suggestion.RoleID))
	}
	if active, ok := m.Active(); ok {
		return models.WorkflowStep{}, models.Reject(op, fmt.Sprintf("step %s for role %s is still active", active.ID, active.RoleID))
	}

	step := models.WorkflowStep{
		ID:           util.GenerateID(util.PrefixStep),
		RoleID:       m.suggestion.RoleID,
		Status:       models.StepStatusActive,
		AssistantIDs: []string{assistantID},
		CreatedAt:    timeNow(),
	}
	m.steps = append(m.steps, step)
	m.suggestion = nil

	slog.Info("StepManager.Accept: step activated", "stepID", step.ID, "roleID", step.RoleID, "assistantID", assistantID)
	return cloneStep(step), nil
}

// Decline discards the outstanding suggestion without recording a step.
func (m *StepManager) Decline() (models.WorkflowSuggestion, error) {
	if m.suggestion == nil {
		return models.WorkflowSuggestion{}, models.Reject("StepManager.Decline", "no outstanding suggestion")
	}
	s := *m.suggestion
	m.suggestion = nil
	slog.Debug("StepManager.Decline: suggestion discarded", "suggestionID", s.ID, "roleID", s.RoleID)
	return s, nil
}

// CompleteActive moves the active step for roleID to completed. It returns
// false when no such step exists.
func (m *StepManager) CompleteActive(roleID string) (models.WorkflowStep, bool) {
	for i := range m.steps {
		s := &m.steps[i]
		if s.RoleID != roleID || s.Status != models.StepStatusActive {
			continue
		}
		if !models.CanTransition(s.Status, models.StepStatusCompleted) {
			return models.WorkflowStep{}, false
		}
		now := timeNow()
		s.Status = models.StepStatusCompleted
		s.CompletedAt = &now
		slog.Info("StepManager.CompleteActive: step completed", "stepID", s.ID, "roleID", roleID)
		return cloneStep(*s), true
	}
	slog.Debug("StepManager.CompleteActive: no active step", "roleID", roleID)
	return models.WorkflowStep{}, false
}

// Active returns the active step, if any.
func (m *StepManager) Active() (models.WorkflowStep, bool) {
	for _, s := range m.steps {
		if s.Status == models.StepStatusActive {
			return cloneStep(s), true
		}
	}
	return models.WorkflowStep{}, false
}

// Steps returns a copy of the step list in creation order.
func (m *StepManager) Steps() []models.WorkflowStep {
	out := make([]models.WorkflowStep, 0, len(m.steps))
	for _, s := range m.steps {
		out = append(out, cloneStep(s))
	}
	return out
}

// Save hands the current step list to the template store under name.
func (m *StepManager) Save(ctx context.Context, saver TemplateSaver, name string) (models.WorkflowTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.WorkflowTemplate{}, models.ErrEmptyName
	}
	tmpl := models.WorkflowTemplate{
		ID:        util.GenerateID(util.PrefixTemplate),
		Name:      name,
		Steps:     models.TemplateFromSteps(m.steps),
		CreatedAt: timeNow(),
	}
	if err := saver.SaveTemplate(ctx, tmpl); err != nil {
		slog.Error("StepManager.Save: failed to save template", "error", err, "name", name)
		return models.WorkflowTemplate{}, fmt.Errorf("failed to save workflow template: %w", err)
	}
	slog.Info("StepManager.Save: template saved", "templateID", tmpl.ID, "name", name, "steps", len(tmpl.Steps))
	return tmpl, nil
}

func (m *StepManager) openStepFor(roleID string) *models.WorkflowStep {
	for i := range m.steps {
		s := &m.steps[i]
		if s.RoleID == roleID && s.Status != models.StepStatusCompleted {
			return s
		}
	}
	return nil
}

func cloneStep(s models.WorkflowStep) models.WorkflowStep {
	s.AssistantIDs = append([]string(nil), s.AssistantIDs...)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		s.CompletedAt = &t
	}
	return s
}

func cloneSuggestion(s models.WorkflowSuggestion) models.WorkflowSuggestion {
	s.RecommendedAssistantIDs = append([]string(nil), s.RecommendedAssistantIDs...)
	return s
}
