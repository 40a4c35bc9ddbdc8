package flow

import (
	"time"

	"github.com/BTreeMap/ThoughtWeaver/internal/genai"
	"github.com/BTreeMap/ThoughtWeaver/internal/workflow"
)

// Default simulated latencies.
const (
	DefaultReplyDelay      = 1500 * time.Millisecond
	DefaultSuggestionDelay = 2000 * time.Millisecond
	DefaultCompletionDelay = 2000 * time.Millisecond
)

// Opts holds Orchestrator configuration.
type Opts struct {
	ReplyDelay      time.Duration
	SuggestionDelay time.Duration
	CompletionDelay time.Duration

	// RetainHistory keeps each conversation's timeline and steps when the user
	// switches away, instead of rebuilding them on reopen.
	RetainHistory bool
	// ReSuggestCompleted lets the default detector propose completed roles again.
	ReSuggestCompleted bool

	Timer     Timer
	Generator genai.ReplyGenerator
	Templates workflow.TemplateSaver
	Catalog   Catalog
	Detector  Detector
}

// Option configures an Orchestrator.
type Option func(*Opts)

// WithReplyDelay sets the delay before an assistant reply is generated.
func WithReplyDelay(d time.Duration) Option {
	return func(o *Opts) { o.ReplyDelay = d }
}

// WithSuggestionDelay sets the debounce before trigger detection runs.
func WithSuggestionDelay(d time.Duration) Option {
	return func(o *Opts) { o.SuggestionDelay = d }
}

// WithCompletionDelay sets how long after its reply an activated step completes.
func WithCompletionDelay(d time.Duration) Option {
	return func(o *Opts) { o.CompletionDelay = d }
}

// WithRetainHistory keeps per-conversation workflow state across switches.
func WithRetainHistory(enabled bool) Option {
	return func(o *Opts) { o.RetainHistory = enabled }
}

// WithReSuggestCompleted allows completed roles to be suggested again.
func WithReSuggestCompleted(enabled bool) Option {
	return func(o *Opts) { o.ReSuggestCompleted = enabled }
}

// WithTimer sets the scheduler for delayed callbacks.
func WithTimer(t Timer) Option {
	return func(o *Opts) { o.Timer = t }
}

// WithGenerator sets the reply generator.
func WithGenerator(g genai.ReplyGenerator) Option {
	return func(o *Opts) { o.Generator = g }
}

// WithTemplateStore sets where saved workflows go.
func WithTemplateStore(s workflow.TemplateSaver) Option {
	return func(o *Opts) { o.Templates = s }
}

// WithCatalog sets the role and assistant catalog.
func WithCatalog(c Catalog) Option {
	return func(o *Opts) { o.Catalog = c }
}

// WithDetector replaces the trigger detector.
func WithDetector(d Detector) Option {
	return func(o *Opts) { o.Detector = d }
}
