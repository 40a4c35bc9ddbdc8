package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

type recordingSaver struct {
	saved []models.WorkflowTemplate
	err   error
}

func (r *recordingSaver) SaveTemplate(_ context.Context, tmpl models.WorkflowTemplate) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, tmpl)
	return nil
}

func ideateSuggestion() models.WorkflowSuggestion {
	return *NewDetector().Detect(2, "", nil)
}

func TestStepManager_AcceptActivatesStep(t *testing.T) {
	m := NewStepManager()
	if err := m.Propose(ideateSuggestion()); err != nil {
		t.Fatalf("Propose: %v", err)
	}
	st, err := m.Accept("creative-innovator")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if st.Status != models.StepStatusActive || st.RoleID != "ideate" {
		t.Errorf("step = %+v", st)
	}
	if len(st.AssistantIDs) != 1 || st.AssistantIDs[0] != "creative-innovator" {
		t.Errorf("AssistantIDs = %v", st.AssistantIDs)
	}
	if m.HasSuggestion() {
		t.Error("suggestion still outstanding after accept")
	}
}

func TestStepManager_ProposeSingleOutstanding(t *testing.T) {
	m := NewStepManager()
	if err := m.Propose(ideateSuggestion()); err != nil {
		t.Fatal(err)
	}
	err := m.Propose(ideateSuggestion())
	if !models.IsGuardRejected(err) {
		t.Fatalf("second Propose err = %v, want guard rejection", err)
	}
}

func TestStepManager_AcceptGuards(t *testing.T) {
	m := NewStepManager()
	if _, err := m.Accept("all-rounder"); !models.IsGuardRejected(err) {
		t.Errorf("Accept without suggestion err = %v", err)
	}

	m.Propose(ideateSuggestion())
	if _, err := m.Accept("legal-analyst"); !models.IsGuardRejected(err) {
		t.Errorf("Accept with unrecommended assistant err = %v", err)
	}
	if !m.HasSuggestion() {
		t.Error("rejected accept cleared the suggestion")
	}
	if len(m.Steps()) != 0 {
		t.Error("rejected accept recorded a step")
	}

	if _, err := m.Accept("all-rounder"); err != nil {
		t.Fatal(err)
	}
	frame := *NewDetector().Detect(7, "define it", nil)
	if err := m.Propose(frame); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Accept("all-rounder"); !models.IsGuardRejected(err) {
		t.Errorf("Accept while another step is active err = %v", err)
	}
}

func TestStepManager_Decline(t *testing.T) {
	m := NewStepManager()
	if _, err := m.Decline(); !models.IsGuardRejected(err) {
		t.Errorf("Decline without suggestion err = %v", err)
	}
	m.Propose(ideateSuggestion())
	s, err := m.Decline()
	if err != nil {
		t.Fatal(err)
	}
	if s.RoleID != "ideate" || m.HasSuggestion() || len(m.Steps()) != 0 {
		t.Errorf("after decline: suggestion=%v steps=%v", m.HasSuggestion(), m.Steps())
	}
}

func TestStepManager_CompleteActive(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	orig := timeNow
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = orig }()

	m := NewStepManager()
	if _, ok := m.CompleteActive("ideate"); ok {
		t.Error("CompleteActive with no steps returned true")
	}
	m.Propose(ideateSuggestion())
	m.Accept("all-rounder")

	if _, ok := m.CompleteActive("frame"); ok {
		t.Error("CompleteActive for another role returned true")
	}
	st, ok := m.CompleteActive("ideate")
	if !ok {
		t.Fatal("CompleteActive returned false")
	}
	if st.Status != models.StepStatusCompleted || st.CompletedAt == nil || !st.CompletedAt.Equal(fixed) {
		t.Errorf("completed step = %+v", st)
	}
	if _, ok := m.Active(); ok {
		t.Error("step still active")
	}
	// Completed steps never move again.
	if _, ok := m.CompleteActive("ideate"); ok {
		t.Error("completed step completed twice")
	}
	if got := m.Steps()[0].Status; got != models.StepStatusCompleted {
		t.Errorf("status = %s", got)
	}
}

func TestStepManager_StepsAreCopies(t *testing.T) {
	m := NewStepManager()
	m.Propose(ideateSuggestion())
	m.Accept("all-rounder")
	steps := m.Steps()
	steps[0].AssistantIDs[0] = "mutated"
	steps[0].Status = models.StepStatusCompleted
	if got := m.Steps()[0]; got.AssistantIDs[0] != "all-rounder" || got.Status != models.StepStatusActive {
		t.Errorf("internal step mutated: %+v", got)
	}
}

func TestStepManager_Save(t *testing.T) {
	m := NewStepManager()
	m.Propose(ideateSuggestion())
	m.Accept("visionary-strategist")
	m.CompleteActive("ideate")

	saver := &recordingSaver{}
	tmpl, err := m.Save(context.Background(), saver, "  Product sprint ")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if tmpl.Name != "Product sprint" || len(tmpl.Steps) != 1 {
		t.Errorf("template = %+v", tmpl)
	}
	if tmpl.Steps[0].RoleID != "ideate" || tmpl.Steps[0].Status != models.StepStatusCompleted {
		t.Errorf("template step = %+v", tmpl.Steps[0])
	}
	if len(saver.saved) != 1 {
		t.Errorf("saver received %d templates", len(saver.saved))
	}

	if _, err := m.Save(context.Background(), saver, " "); !errors.Is(err, models.ErrEmptyName) {
		t.Errorf("Save empty name err = %v", err)
	}

	boom := errors.New("disk full")
	if _, err := m.Save(context.Background(), &recordingSaver{err: boom}, "x"); !errors.Is(err, boom) {
		t.Errorf("Save err = %v, want wrapped %v", err, boom)
	}
}
