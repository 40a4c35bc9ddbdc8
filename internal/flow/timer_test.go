package flow

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSimpleTimerFires(t *testing.T) {
	timer := NewSimpleTimer()
	defer timer.Stop()

	done := make(chan struct{})
	if _, err := timer.ScheduleAfter("conv-1", 5*time.Millisecond, "reply", func() { close(done) }); err != nil {
		t.Fatalf("ScheduleAfter failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	if n := len(timer.ListActive()); n != 0 {
		t.Errorf("expected no active timers after firing, got %d", n)
	}
}

func TestSimpleTimerCancelKey(t *testing.T) {
	timer := NewSimpleTimer()
	defer timer.Stop()

	var fired atomic.Int32
	for i := 0; i < 3; i++ {
		if _, err := timer.ScheduleAfter("conv-a", 20*time.Millisecond, "a", func() { fired.Add(1) }); err != nil {
			t.Fatalf("ScheduleAfter failed: %v", err)
		}
	}
	keep := make(chan struct{})
	if _, err := timer.ScheduleAfter("conv-b", 20*time.Millisecond, "b", func() { close(keep) }); err != nil {
		t.Fatalf("ScheduleAfter failed: %v", err)
	}

	if n := timer.CancelKey("conv-a"); n != 3 {
		t.Errorf("CancelKey cancelled %d timers, want 3", n)
	}
	active := timer.ListActive()
	if len(active) != 1 || active[0].Key != "conv-b" || active[0].Description != "b" {
		t.Errorf("unexpected active timers: %+v", active)
	}

	select {
	case <-keep:
	case <-time.After(time.Second):
		t.Fatal("timer under another key did not fire")
	}
	time.Sleep(30 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("cancelled callbacks ran %d times", got)
	}
}

func TestSimpleTimerNilCallback(t *testing.T) {
	timer := NewSimpleTimer()
	defer timer.Stop()

	if _, err := timer.ScheduleAfter("k", time.Millisecond, "nil", nil); err == nil {
		t.Error("expected error for nil callback")
	}
	if n := timer.CancelKey("missing"); n != 0 {
		t.Errorf("CancelKey of unknown key cancelled %d timers", n)
	}
}
