package session

import (
	"testing"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

func TestSelection_Defaults(t *testing.T) {
	s := NewSelection()
	st := s.State()
	if st.WorkflowID != DefaultWorkflowID || st.ModelID != DefaultModelID {
		t.Errorf("defaults = %+v", st)
	}
	if len(st.AssistantIDs) != 1 || st.AssistantIDs[0] != DefaultAssistantID {
		t.Errorf("default assistants = %v", st.AssistantIDs)
	}
}

func TestSelection_ToggleKeepsFloor(t *testing.T) {
	s := NewSelection()
	if err := s.ToggleAssistant(DefaultAssistantID); !models.IsGuardRejected(err) {
		t.Fatalf("removing sole assistant err = %v", err)
	}
	if !s.IsSelected(DefaultAssistantID) {
		t.Fatal("sole assistant was removed")
	}

	if err := s.ToggleAssistant("data-analyst"); err != nil {
		t.Fatal(err)
	}
	if err := s.ToggleAssistant(DefaultAssistantID); err != nil {
		t.Fatalf("removing with two selected err = %v", err)
	}
	ids := s.AssistantIDs()
	if len(ids) != 1 || ids[0] != "data-analyst" {
		t.Errorf("assistants = %v", ids)
	}
}

func TestSelection_ToggleCeiling(t *testing.T) {
	s := NewSelection()
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := s.ToggleAssistant(id); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.ToggleAssistant("e"); !models.IsGuardRejected(err) {
		t.Errorf("sixth assistant err = %v", err)
	}
	if n := len(s.AssistantIDs()); n != models.MaxAssistantSelection {
		t.Errorf("len = %d", n)
	}
}

func TestSelection_SetAssistants(t *testing.T) {
	s := NewSelection()
	if err := s.SetAssistants(nil); !models.IsGuardRejected(err) {
		t.Errorf("empty set err = %v", err)
	}
	if err := s.SetAssistants([]string{"a", "b", "c", "d", "e", "f"}); !models.IsGuardRejected(err) {
		t.Errorf("six ids err = %v", err)
	}
	if err := s.SetAssistants([]string{"b", "a", "b"}); err != nil {
		t.Fatal(err)
	}
	ids := s.AssistantIDs()
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Errorf("assistants = %v", ids)
	}
}

func TestSelection_Reset(t *testing.T) {
	s := NewSelection()
	s.SetWorkflow("ideation")
	s.SetModel("gpt-4")
	s.SetAssistants([]string{"x", "y"})
	s.Reset()
	st := s.State()
	if st.WorkflowID != DefaultWorkflowID || st.ModelID != DefaultModelID || len(st.AssistantIDs) != 1 {
		t.Errorf("after reset = %+v", st)
	}
}

func TestSelection_RejectsEmptyIDs(t *testing.T) {
	s := NewSelection()
	if err := s.SetWorkflow(""); !models.IsGuardRejected(err) {
		t.Errorf("SetWorkflow err = %v", err)
	}
	if err := s.SetModel(""); !models.IsGuardRejected(err) {
		t.Errorf("SetModel err = %v", err)
	}
	if s.WorkflowID() != DefaultWorkflowID || s.ModelID() != DefaultModelID {
		t.Error("rejected call changed state")
	}
}
