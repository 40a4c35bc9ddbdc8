// Package flow sequences a running conversation: user messages, simulated or
// generated assistant replies, workflow suggestions and step activation.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/ThoughtWeaver/internal/catalog"
	"github.com/BTreeMap/ThoughtWeaver/internal/genai"
	"github.com/BTreeMap/ThoughtWeaver/internal/models"
	"github.com/BTreeMap/ThoughtWeaver/internal/session"
	"github.com/BTreeMap/ThoughtWeaver/internal/store"
	"github.com/BTreeMap/ThoughtWeaver/internal/timeline"
	"github.com/BTreeMap/ThoughtWeaver/internal/util"
	"github.com/BTreeMap/ThoughtWeaver/internal/workflow"
)

// FallbackReply is appended when the reply generator fails.
const FallbackReply = "Sorry, I couldn't come up with a response just now. Could you rephrase or try again?"

// timeNow is replaced in tests.
var timeNow = time.Now

// Catalog resolves roles and assistants. Lookups never fail.
type Catalog interface {
	Role(id string) models.Role
	Assistant(id string) catalog.Assistant
}

// Detector proposes the next role for a conversation.
type Detector interface {
	Detect(userMessageCount int, lastUserMessage string, steps []models.WorkflowStep) *models.WorkflowSuggestion
}

// conversationState is the engine state of one open conversation. Every field
// is guarded by Orchestrator.mu.
type conversationState struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	timeline *timeline.Timeline
	steps    *workflow.StepManager

	replyPending      bool
	pending           *pendingReply
	activeAssistantID string
	modelID           string
}

// pendingReply is a scheduled reply that has not been appended yet.
type pendingReply struct {
	kind        genai.ReplyKind
	role        *models.Role
	assistantID string
	// stepRoleID is the role of the step an activation reply completes.
	stepRoleID string
}

// ConversationSnapshot is a consistent copy of the open conversation.
type ConversationSnapshot struct {
	ConversationID    string                     `json:"conversation_id"`
	Messages          []models.Message           `json:"messages"`
	Groups            []models.MessageGroup      `json:"groups"`
	Steps             []models.WorkflowStep      `json:"steps"`
	Suggestion        *models.WorkflowSuggestion `json:"suggestion,omitempty"`
	ReplyPending      bool                       `json:"reply_pending"`
	UserMessageCount  int                        `json:"user_message_count"`
	ActiveAssistantID string                     `json:"active_assistant_id"`
	ModelID           string                     `json:"model_id"`
}

// Orchestrator is the glue between the session stores, the message timeline
// and the workflow engine. All operations are serialized by one mutex; timer
// callbacks re-acquire it and drop their work if their conversation was
// switched away in the meantime.
type Orchestrator struct {
	mu sync.Mutex

	session   *session.Session
	catalog   Catalog
	detector  Detector
	generator genai.ReplyGenerator
	templates workflow.TemplateSaver
	timer     Timer
	opts      Opts

	states  map[string]*conversationState
	current *conversationState
}

// NewOrchestrator creates an Orchestrator over sess.
func NewOrchestrator(sess *session.Session, opts ...Option) *Orchestrator {
	cfg := Opts{
		ReplyDelay:      DefaultReplyDelay,
		SuggestionDelay: DefaultSuggestionDelay,
		CompletionDelay: DefaultCompletionDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Timer == nil {
		cfg.Timer = NewSimpleTimer()
	}
	if cfg.Generator == nil {
		cfg.Generator = genai.NewSimulatedGenerator(cfg.Catalog)
	}
	if cfg.Templates == nil {
		cfg.Templates = store.NewInMemoryStore()
	}
	if cfg.Detector == nil {
		cfg.Detector = workflow.NewDetector(workflow.WithReSuggestCompleted(cfg.ReSuggestCompleted))
	}

	slog.Debug("NewOrchestrator: created", "replyDelay", cfg.ReplyDelay, "suggestionDelay", cfg.SuggestionDelay,
		"completionDelay", cfg.CompletionDelay, "retainHistory", cfg.RetainHistory, "reSuggestCompleted", cfg.ReSuggestCompleted)
	return &Orchestrator{
		session:   sess,
		catalog:   cfg.Catalog,
		detector:  cfg.Detector,
		generator: cfg.Generator,
		templates: cfg.Templates,
		timer:     cfg.Timer,
		opts:      cfg,
		states:    make(map[string]*conversationState),
	}
}

// Session returns the session the orchestrator mutates.
func (o *Orchestrator) Session() *session.Session {
	return o.session
}

// CreateConversation creates a conversation from the current selection,
// navigates to it and opens it. Empty workflowID or assistantIDs fall back to
// the selection.
func (o *Orchestrator) CreateConversation(prompt, workflowID string, assistantIDs []string) (models.Conversation, error) {
	sel := o.session.Selection.State()
	if workflowID == "" {
		workflowID = sel.WorkflowID
	}
	if len(assistantIDs) == 0 {
		assistantIDs = sel.AssistantIDs
	}
	conv, err := o.session.Conversations.Create(prompt, workflowID, assistantIDs)
	if err != nil {
		return models.Conversation{}, err
	}
	if err := o.session.Conversations.SetModel(conv.ID, sel.ModelID); err != nil {
		return models.Conversation{}, err
	}
	conv.ModelID = sel.ModelID

	if err := o.OpenConversation(conv.ID); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// CreateConversationInProject creates a conversation inside a project and
// opens it.
func (o *Orchestrator) CreateConversationInProject(projectID string) (models.Conversation, error) {
	sel := o.session.Selection.State()
	conv, err := o.session.Conversations.CreateInProject(projectID, sel.WorkflowID, sel.AssistantIDs)
	if err != nil {
		return models.Conversation{}, err
	}
	if err := o.session.Conversations.SetModel(conv.ID, sel.ModelID); err != nil {
		return models.Conversation{}, err
	}
	conv.ModelID = sel.ModelID
	if err := o.OpenConversation(conv.ID); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// OpenConversation makes id the open conversation. Timers of the previously
// open conversation are cancelled. Unless history is retained, the workflow
// state is rebuilt: the prompt is re-seeded as the first user message and the
// opening reply is scheduled. Opening the already open conversation is a no-op.
func (o *Orchestrator) OpenConversation(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil && o.current.id == id {
		slog.Debug("Orchestrator.OpenConversation: already open", "conversationID", id)
		return nil
	}
	if st, ok := o.states[id]; ok && o.opts.RetainHistory {
		if _, err := o.session.Conversations.View(id); err != nil {
			return err
		}
		o.switchToLocked(st)
		// timers were cancelled with the old token
		if st.pending != nil {
			st.replyPending = true
			o.scheduleReplyLocked(st, *st.pending)
		} else if active, ok := st.steps.Active(); ok {
			o.scheduleCompletionLocked(st, active.RoleID)
		}
		slog.Info("Orchestrator.OpenConversation: resumed", "conversationID", id, "messages", st.timeline.Len(),
			"steps", len(st.steps.Steps()), "replyPending", st.replyPending)
		return nil
	}

	conv, err := o.session.Conversations.Get(id)
	if err != nil {
		return err
	}
	st := &conversationState{
		id:                id,
		timeline:          timeline.New(),
		steps:             workflow.NewStepManager(),
		activeAssistantID: session.DefaultAssistantID,
		modelID:           conv.ModelID,
	}
	if len(conv.AssistantIDs) > 0 {
		st.activeAssistantID = conv.AssistantIDs[0]
	}
	if st.modelID == "" {
		st.modelID = o.session.Selection.ModelID()
	}
	seed := models.Message{
		ID:        util.GenerateID(util.PrefixMessage),
		Role:      models.MessageRoleUser,
		Content:   conv.Prompt,
		Timestamp: timeNow(),
	}
	if err := st.timeline.Append(seed); err != nil {
		return fmt.Errorf("failed to seed conversation %s: %w", id, err)
	}
	if _, err := o.session.Conversations.View(id); err != nil {
		return err
	}

	o.switchToLocked(st)
	o.states[id] = st
	st.replyPending = true
	o.scheduleReplyLocked(st, pendingReply{kind: genai.ReplyOpening, assistantID: st.activeAssistantID})

	slog.Info("Orchestrator.OpenConversation: opened", "conversationID", id, "assistantID", st.activeAssistantID, "modelID", st.modelID)
	return nil
}

// switchToLocked suspends the open conversation, gives st a fresh token and
// makes it current.
func (o *Orchestrator) switchToLocked(st *conversationState) {
	if prev := o.current; prev != nil {
		o.suspendLocked(prev)
		if !o.opts.RetainHistory {
			delete(o.states, prev.id)
		}
	}
	st.ctx, st.cancel = context.WithCancel(context.Background())
	st.replyPending = false
	o.current = st
	o.session.Navigation.Navigate(session.ConversationPage(st.id))
}

// CloseConversation cancels the open conversation's timers and leaves no
// conversation open.
func (o *Orchestrator) CloseConversation() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return
	}
	o.suspendLocked(o.current)
	if !o.opts.RetainHistory {
		delete(o.states, o.current.id)
	}
	o.current = nil
}

// DeleteConversation removes a conversation and any engine state for it.
func (o *Orchestrator) DeleteConversation(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.session.Conversations.Delete(id); err != nil {
		return err
	}
	if st, ok := o.states[id]; ok {
		o.suspendLocked(st)
		delete(o.states, id)
	}
	if o.current != nil && o.current.id == id {
		o.current = nil
	}
	return nil
}

// SendMessage appends a user message to the open conversation and schedules
// trigger detection and the assistant reply. It is rejected while a reply is
// pending.
func (o *Orchestrator) SendMessage(content string) (models.Message, error) {
	const op = "Orchestrator.SendMessage"
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, models.Reject(op, "message is empty")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.current
	if st == nil {
		return models.Message{}, models.Reject(op, "no open conversation")
	}
	if st.replyPending {
		slog.Warn("Orchestrator.SendMessage: reply pending, message rejected", "conversationID", st.id)
		return models.Message{}, models.Reject(op, "a reply is still pending")
	}

	msg := models.Message{
		ID:        util.GenerateID(util.PrefixMessage),
		Role:      models.MessageRoleUser,
		Content:   content,
		Timestamp: timeNow(),
	}
	if err := st.timeline.Append(msg); err != nil {
		return models.Message{}, err
	}
	count := st.timeline.CountByRole(models.MessageRoleUser)
	st.replyPending = true

	ctx := st.ctx
	if _, err := o.timer.ScheduleAfter(st.id, o.opts.SuggestionDelay, "suggestion check", func() {
		o.checkSuggestion(ctx, st, count, content)
	}); err != nil {
		slog.Error("Orchestrator.SendMessage: failed to schedule suggestion check", "error", err, "conversationID", st.id)
	}
	o.scheduleReplyLocked(st, pendingReply{kind: genai.ReplyContinuation, assistantID: st.activeAssistantID})

	slog.Debug("Orchestrator.SendMessage: message appended", "conversationID", st.id, "messageID", msg.ID, "userMessageCount", count)
	return msg, nil
}

// AcceptSuggestion activates the outstanding suggestion with the chosen
// assistant, announces it and schedules the activation reply. The step
// completes CompletionDelay after that reply is delivered.
func (o *Orchestrator) AcceptSuggestion(assistantID string) (models.WorkflowStep, error) {
	const op = "Orchestrator.AcceptSuggestion"
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.current
	if st == nil {
		return models.WorkflowStep{}, models.Reject(op, "no open conversation")
	}
	if st.replyPending {
		return models.WorkflowStep{}, models.Reject(op, "a reply is still pending")
	}
	step, err := st.steps.Accept(assistantID)
	if err != nil {
		slog.Warn("Orchestrator.AcceptSuggestion: rejected", "conversationID", st.id, "assistantID", assistantID, "error", err)
		return models.WorkflowStep{}, err
	}

	role := o.catalog.Role(step.RoleID)
	assistant := o.catalog.Assistant(assistantID)
	notice := models.Message{
		ID:        util.GenerateID(util.PrefixSystem),
		Role:      models.MessageRoleSystem,
		Content:   ActivationNotice(assistant.Name, role.Description),
		Timestamp: timeNow(),
	}
	if err := st.timeline.Append(notice); err != nil {
		slog.Error("Orchestrator.AcceptSuggestion: failed to append notice", "error", err, "conversationID", st.id)
	}

	st.activeAssistantID = assistantID
	st.replyPending = true
	o.scheduleReplyLocked(st, pendingReply{
		kind:        genai.ReplyActivation,
		role:        &role,
		assistantID: assistantID,
		stepRoleID:  step.RoleID,
	})

	slog.Info("Orchestrator.AcceptSuggestion: step activated", "conversationID", st.id, "stepID", step.ID, "roleID", step.RoleID, "assistantID", assistantID)
	return step, nil
}

// DeclineSuggestion discards the outstanding suggestion.
func (o *Orchestrator) DeclineSuggestion() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return models.Reject("Orchestrator.DeclineSuggestion", "no open conversation")
	}
	s, err := o.current.steps.Decline()
	if err != nil {
		return err
	}
	slog.Info("Orchestrator.DeclineSuggestion: suggestion declined", "conversationID", o.current.id, "roleID", s.RoleID)
	return nil
}

// SaveWorkflow stores the open conversation's steps as a named template.
func (o *Orchestrator) SaveWorkflow(ctx context.Context, name string) (models.WorkflowTemplate, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return models.WorkflowTemplate{}, models.Reject("Orchestrator.SaveWorkflow", "no open conversation")
	}
	return o.current.steps.Save(ctx, o.templates, name)
}

// SetActiveAssistant chooses which assistant answers ordinary messages.
func (o *Orchestrator) SetActiveAssistant(assistantID string) error {
	const op = "Orchestrator.SetActiveAssistant"
	if assistantID == "" {
		return models.Reject(op, "assistant id is empty")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return models.Reject(op, "no open conversation")
	}
	o.current.activeAssistantID = assistantID
	slog.Debug("Orchestrator.SetActiveAssistant", "conversationID", o.current.id, "assistantID", assistantID)
	return nil
}

// SetModel pins the open conversation to a model.
func (o *Orchestrator) SetModel(modelID string) error {
	const op = "Orchestrator.SetModel"
	if modelID == "" {
		return models.Reject(op, "model id is empty")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return models.Reject(op, "no open conversation")
	}
	if err := o.session.Conversations.SetModel(o.current.id, modelID); err != nil {
		return err
	}
	o.current.modelID = modelID
	return nil
}

// Snapshot returns a copy of the open conversation's engine state.
func (o *Orchestrator) Snapshot() (ConversationSnapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := o.current
	if st == nil {
		return ConversationSnapshot{}, models.Reject("Orchestrator.Snapshot", "no open conversation")
	}
	snap := ConversationSnapshot{
		ConversationID:    st.id,
		Messages:          st.timeline.Messages(),
		Groups:            st.timeline.Groups(),
		Steps:             st.steps.Steps(),
		ReplyPending:      st.replyPending,
		UserMessageCount:  st.timeline.CountByRole(models.MessageRoleUser),
		ActiveAssistantID: st.activeAssistantID,
		ModelID:           st.modelID,
	}
	if s, ok := st.steps.Suggestion(); ok {
		snap.Suggestion = &s
	}
	return snap, nil
}

// PendingTimers lists scheduled callbacks.
func (o *Orchestrator) PendingTimers() []models.TimerInfo {
	return o.timer.ListActive()
}

// Close cancels every conversation and stops all timers.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, st := range o.states {
		st.cancel()
	}
	o.current = nil
	o.timer.Stop()
	slog.Info("Orchestrator.Close: stopped")
}

// ActivationNotice is the system message announcing an activated step.
func ActivationNotice(assistantName, roleDescription string) string {
	return fmt.Sprintf("I've activated %s to %s.", assistantName, strings.ToLower(roleDescription))
}

// suspendLocked cancels a conversation's token and timers.
func (o *Orchestrator) suspendLocked(st *conversationState) {
	st.cancel()
	n := o.timer.CancelKey(st.id)
	st.replyPending = false
	slog.Debug("Orchestrator: conversation suspended", "conversationID", st.id, "cancelledTimers", n)
}

// checkSuggestion runs trigger detection once the debounce delay has passed.
// It is skipped when a suggestion is already outstanding at fire time.
func (o *Orchestrator) checkSuggestion(ctx context.Context, st *conversationState, count int, lastMessage string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if st.steps.HasSuggestion() {
		slog.Debug("Orchestrator.checkSuggestion: suggestion outstanding, skipping", "conversationID", st.id)
		return
	}
	s := o.detector.Detect(count, lastMessage, st.steps.Steps())
	if s == nil {
		return
	}
	if err := st.steps.Propose(*s); err != nil {
		slog.Warn("Orchestrator.checkSuggestion: proposal rejected", "conversationID", st.id, "roleID", s.RoleID, "error", err)
		return
	}
	slog.Info("Orchestrator.checkSuggestion: suggestion surfaced", "conversationID", st.id, "roleID", s.RoleID, "trigger", s.Trigger)
}

// scheduleReplyLocked schedules reply generation for st and records it as
// pending until it is appended. For activations the step for p.stepRoleID
// completes after the reply is delivered.
func (o *Orchestrator) scheduleReplyLocked(st *conversationState, p pendingReply) {
	ctx := st.ctx
	st.pending = &p
	_, err := o.timer.ScheduleAfter(st.id, o.opts.ReplyDelay, fmt.Sprintf("%s reply", p.kind), func() {
		o.deliverReply(ctx, st, p)
	})
	if err != nil {
		slog.Error("Orchestrator: failed to schedule reply", "error", err, "conversationID", st.id)
		st.pending = nil
		st.replyPending = false
	}
}

func (o *Orchestrator) scheduleCompletionLocked(st *conversationState, roleID string) {
	ctx := st.ctx
	if _, err := o.timer.ScheduleAfter(st.id, o.opts.CompletionDelay, "step completion", func() {
		o.completeStep(ctx, st, roleID)
	}); err != nil {
		slog.Error("Orchestrator: failed to schedule completion", "error", err, "conversationID", st.id, "roleID", roleID)
	}
}

// deliverReply generates and appends an assistant reply. The lock is released
// while the generator runs.
func (o *Orchestrator) deliverReply(ctx context.Context, st *conversationState, p pendingReply) {
	kind, assistantID := p.kind, p.assistantID
	o.mu.Lock()
	if ctx.Err() != nil {
		o.mu.Unlock()
		return
	}
	req := genai.ReplyRequest{
		ConversationID: st.id,
		AssistantID:    assistantID,
		ModelID:        st.modelID,
		Kind:           kind,
		Role:           p.role,
		Messages:       st.timeline.Messages(),
	}
	o.mu.Unlock()

	text, genErr := o.generator.GenerateReply(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()
	if ctx.Err() != nil {
		slog.Debug("Orchestrator.deliverReply: conversation switched, dropping reply", "conversationID", st.id)
		return
	}
	if genErr != nil {
		slog.Error("Orchestrator.deliverReply: reply generation failed", "error", genErr, "conversationID", st.id, "kind", kind)
		text = FallbackReply
	}

	reply := models.Message{
		ID:          util.GenerateID(util.PrefixMessage),
		Role:        models.MessageRoleAssistant,
		Content:     text,
		AssistantID: assistantID,
		ModelID:     req.ModelID,
		Timestamp:   timeNow(),
	}
	if err := st.timeline.Append(reply); err != nil {
		slog.Warn("Orchestrator.deliverReply: reply not appended", "error", err, "conversationID", st.id)
	}
	st.pending = nil
	st.replyPending = false
	slog.Debug("Orchestrator.deliverReply: reply delivered", "conversationID", st.id, "kind", kind, "assistantID", assistantID)

	if kind != genai.ReplyActivation || p.stepRoleID == "" {
		return
	}
	o.scheduleCompletionLocked(st, p.stepRoleID)
}

func (o *Orchestrator) completeStep(ctx context.Context, st *conversationState, roleID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	st.steps.CompleteActive(roleID)
}
