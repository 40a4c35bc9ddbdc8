package workflow

import "github.com/BTreeMap/ThoughtWeaver/internal/models"

// CountRule fires when the user message count equals Count exactly and, when
// RequireCompleted is set, a step for that role has completed.
type CountRule struct {
	Count                   int
	RequireCompleted        string
	RoleID                  string
	Trigger                 models.Trigger
	Message                 string
	RecommendedAssistantIDs []string
}

// KeywordRule fires when the lower-cased last user message contains any of
// Keywords as a substring.
type KeywordRule struct {
	Keywords                []string
	RoleID                  string
	Trigger                 models.Trigger
	Message                 string
	RecommendedAssistantIDs []string
}

// DefaultCountRules is the sequenced count tier, evaluated top to bottom.
var DefaultCountRules = []CountRule{
	{
		Count:                   2,
		RoleID:                  "ideate",
		Trigger:                 models.TriggerMessageCount,
		Message:                 "Let's generate creative ideas and explore possibilities for your challenge.",
		RecommendedAssistantIDs: []string{"creative-innovator", "visionary-strategist", "all-rounder"},
	},
	{
		Count:                   3,
		RequireCompleted:        "ideate",
		RoleID:                  "frame",
		Trigger:                 models.TriggerAfterIdeate,
		Message:                 "Now let's frame and define the problem more clearly with structure.",
		RecommendedAssistantIDs: []string{"problem-statement-guide", "all-rounder"},
	},
	{
		Count:                   4,
		RequireCompleted:        "frame",
		RoleID:                  "challenge",
		Trigger:                 models.TriggerAfterFrame,
		Message:                 "Ready to stress-test these ideas? I can bring in critical perspectives.",
		RecommendedAssistantIDs: []string{"devils-advocate", "incisive-analyst"},
	},
	{
		Count:                   5,
		RequireCompleted:        "challenge",
		RoleID:                  "analyze",
		Trigger:                 models.TriggerAfterChallenge,
		Message:                 "Let's dig deeper with data-driven analysis.",
		RecommendedAssistantIDs: []string{"data-analyst", "incisive-analyst"},
	},
	{
		Count:                   6,
		RequireCompleted:        "analyze",
		RoleID:                  "refine",
		Trigger:                 models.TriggerAfterAnalyze,
		Message:                 "Time to polish and refine the solution.",
		RecommendedAssistantIDs: []string{"incisive-idea-improver", "methodical-proofreader"},
	},
}

// DefaultKeywordRules is the keyword tier in precedence order.
var DefaultKeywordRules = []KeywordRule{
	{
		Keywords:                []string{"frame", "define", "clarify"},
		RoleID:                  "frame",
		Trigger:                 models.TriggerKeywordFrame,
		Message:                 "Let's ensure we have a clear problem definition and context.",
		RecommendedAssistantIDs: []string{"problem-statement-guide", "all-rounder"},
	},
	{
		Keywords:                []string{"idea", "brainstorm"},
		RoleID:                  "ideate",
		Trigger:                 models.TriggerKeywordIdeate,
		Message:                 "Let's generate creative ideas together!",
		RecommendedAssistantIDs: []string{"creative-innovator", "visionary-strategist"},
	},
	{
		Keywords:                []string{"problem", "issue", "challenge"},
		RoleID:                  "analyze",
		Trigger:                 models.TriggerKeywordAnalyze,
		Message:                 "I can help analyze this problem systematically.",
		RecommendedAssistantIDs: []string{"data-analyst", "incisive-analyst"},
	},
	{
		Keywords:                []string{"decision", "choose"},
		RoleID:                  "challenge",
		Trigger:                 models.TriggerKeywordDecision,
		Message:                 "Before deciding, let's challenge assumptions and explore alternatives.",
		RecommendedAssistantIDs: []string{"devils-advocate", "incisive-analyst"},
	},
	{
		Keywords:                []string{"improve", "better", "refine"},
		RoleID:                  "refine",
		Trigger:                 models.TriggerKeywordRefine,
		Message:                 "I can help refine and improve this work.",
		RecommendedAssistantIDs: []string{"incisive-idea-improver", "writing-coach"},
	},
}
