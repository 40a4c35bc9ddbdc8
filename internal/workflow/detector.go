// Package workflow implements the adaptive workflow engine: trigger detection
// over a running conversation and the lifecycle of accepted steps.
package workflow

import (
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
	"github.com/BTreeMap/ThoughtWeaver/internal/util"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// Detector proposes at most one next role for a conversation. Detect is a pure
// function of its inputs apart from id and timestamp generation.
type Detector struct {
	countRules         []CountRule
	keywordRules       []KeywordRule
	reSuggestCompleted bool
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithCountRules replaces the count tier.
func WithCountRules(rules []CountRule) DetectorOption {
	return func(d *Detector) { d.countRules = rules }
}

// WithKeywordRules replaces the keyword tier.
func WithKeywordRules(rules []KeywordRule) DetectorOption {
	return func(d *Detector) { d.keywordRules = rules }
}

// WithReSuggestCompleted lets a role be proposed again once every step for it
// has completed. By default any existing step blocks the role.
func WithReSuggestCompleted(enabled bool) DetectorOption {
	return func(d *Detector) { d.reSuggestCompleted = enabled }
}

// NewDetector creates a Detector with the default rule tables.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		countRules:   DefaultCountRules,
		keywordRules: DefaultKeywordRules,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect evaluates the count tier, then the keyword tier, and returns the first
// matching suggestion or nil. Callers must not invoke it while a suggestion is
// outstanding.
func (d *Detector) Detect(userMessageCount int, lastUserMessage string, steps []models.WorkflowStep) *models.WorkflowSuggestion {
	for _, r := range d.countRules {
		if r.Count != userMessageCount {
			continue
		}
		if r.RequireCompleted != "" && !hasCompleted(steps, r.RequireCompleted) {
			continue
		}
		if d.blocked(steps, r.RoleID) {
			continue
		}
		slog.Debug("Detector.Detect: count rule matched", "count", userMessageCount, "roleID", r.RoleID, "trigger", r.Trigger)
		return newSuggestion(r.RoleID, r.Message, r.RecommendedAssistantIDs, r.Trigger)
	}

	lower := strings.ToLower(lastUserMessage)
	for _, r := range d.keywordRules {
		if d.blocked(steps, r.RoleID) || !containsAny(lower, r.Keywords) {
			continue
		}
		slog.Debug("Detector.Detect: keyword rule matched", "roleID", r.RoleID, "trigger", r.Trigger)
		return newSuggestion(r.RoleID, r.Message, r.RecommendedAssistantIDs, r.Trigger)
	}
	return nil
}

// blocked reports whether an existing step prevents suggesting the role.
func (d *Detector) blocked(steps []models.WorkflowStep, roleID string) bool {
	for _, s := range steps {
		if s.RoleID != roleID {
			continue
		}
		if !d.reSuggestCompleted || s.Status != models.StepStatusCompleted {
			return true
		}
	}
	return false
}

func hasCompleted(steps []models.WorkflowStep, roleID string) bool {
	for _, s := range steps {
		if s.RoleID == roleID && s.Status == models.StepStatusCompleted {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func newSuggestion(roleID, message string, recommended []string, trigger models.Trigger) *models.WorkflowSuggestion {
	ids := make([]string, len(recommended))
	copy(ids, recommended)
	return &models.WorkflowSuggestion{
		ID:                      util.GenerateID(util.PrefixSuggestion),
		RoleID:                  roleID,
		Message:                 message,
		RecommendedAssistantIDs: ids,
		Trigger:                 trigger,
		CreatedAt:               timeNow(),
	}
}
