package models

import "time"

// RoleCategory tells whether a thinking role is driven by a human or an AI assistant.
type RoleCategory string

const (
	RoleCategoryAI    RoleCategory = "ai"
	RoleCategoryHuman RoleCategory = "human"
)

// Role is an immutable catalog entry describing a thinking mode.
type Role struct {
	ID                    string       `json:"id" yaml:"id"`
	Name                  string       `json:"name" yaml:"name"`
	Category              RoleCategory `json:"category" yaml:"category"`
	Description           string       `json:"description" yaml:"description"`
	SuggestedAssistantIDs []string     `json:"suggested_assistant_ids" yaml:"suggested_assistants"` // display priority order
}

// StepStatus is the lifecycle position of a workflow step.
// Pending is implicit: a role without a step is pending.
type StepStatus string

const (
	StepStatusSuggested StepStatus = "suggested"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
)

// stepOrder ranks statuses so transitions can be checked for monotonicity.
var stepOrder = map[StepStatus]int{
	StepStatusSuggested: 0,
	StepStatusActive:    1,
	StepStatusCompleted: 2,
}

// CanTransition reports whether moving from one status to another goes forward
// by exactly one position. Steps never move backwards.
func CanTransition(from, to StepStatus) bool {
	f, ok := stepOrder[from]
	if !ok {
		return false
	}
	t, ok := stepOrder[to]
	if !ok {
		return false
	}
	return t == f+1
}

// WorkflowStep is a concrete instantiation of a Role within one conversation.
type WorkflowStep struct {
	ID           string     `json:"id"`
	RoleID       string     `json:"role_id"`
	Status       StepStatus `json:"status"`
	AssistantIDs []string   `json:"assistant_ids"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Trigger identifies the detector rule that produced a suggestion.
type Trigger string

const (
	TriggerMessageCount   Trigger = "message-count"
	TriggerAfterIdeate    Trigger = "after-ideate"
	TriggerAfterFrame     Trigger = "after-frame"
	TriggerAfterChallenge Trigger = "after-challenge"
	TriggerAfterAnalyze   Trigger = "after-analyze"

	TriggerKeywordFrame    Trigger = "keyword-frame"
	TriggerKeywordIdeate   Trigger = "keyword-ideate"
	TriggerKeywordAnalyze  Trigger = "keyword-analyze"
	TriggerKeywordDecision Trigger = "keyword-decision"
	TriggerKeywordRefine   Trigger = "keyword-refine"
)

// WorkflowSuggestion is a transient proposal to activate a role. It only
// becomes a WorkflowStep once accepted.
type WorkflowSuggestion struct {
	ID                      string    `json:"id"`
	RoleID                  string    `json:"role_id"`
	Message                 string    `json:"message"`
	RecommendedAssistantIDs []string  `json:"recommended_assistant_ids"`
	Trigger                 Trigger   `json:"trigger"`
	CreatedAt               time.Time `json:"created_at"`
}

// Recommends reports whether the assistant is among the recommended ones.
func (s *WorkflowSuggestion) Recommends(assistantID string) bool {
	for _, id := range s.RecommendedAssistantIDs {
		if id == assistantID {
			return true
		}
	}
	return false
}

// TemplateStep is the serializable form of a step inside a saved template.
type TemplateStep struct {
	RoleID       string     `json:"role_id"`
	Status       StepStatus `json:"status"`
	AssistantIDs []string   `json:"assistant_ids"`
}

// WorkflowTemplate is a named, saved step sequence.
type WorkflowTemplate struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Steps     []TemplateStep `json:"steps"`
	CreatedAt time.Time      `json:"created_at"`
}

// TemplateFromSteps converts a step list into template steps, preserving order.
func TemplateFromSteps(steps []WorkflowStep) []TemplateStep {
	out := make([]TemplateStep, 0, len(steps))
	for _, s := range steps {
		ids := make([]string, len(s.AssistantIDs))
		copy(ids, s.AssistantIDs)
		out = append(out, TemplateStep{RoleID: s.RoleID, Status: s.Status, AssistantIDs: ids})
	}
	return out
}
