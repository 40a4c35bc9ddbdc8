package flow

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

// Timer schedules delayed callbacks grouped by key, usually a conversation id,
// so that everything tied to a conversation can be cancelled at once.
type Timer interface {
	// ScheduleAfter runs fn after delay and returns the timer id.
	ScheduleAfter(key string, delay time.Duration, description string, fn func()) (string, error)
	// CancelKey stops every timer scheduled under key and returns how many.
	CancelKey(key string) int
	// Stop cancels all timers.
	Stop()
	// ListActive describes the pending timers.
	ListActive() []models.TimerInfo
}

// timerEntry tracks information about a scheduled timer
type timerEntry struct {
	timer       *time.Timer
	key         string
	scheduledAt time.Time
	expiresAt   time.Time
	description string
}

// SimpleTimer implements Timer with time.AfterFunc.
type SimpleTimer struct {
	timers map[string]*timerEntry
	mu     sync.RWMutex
	nextID int64
}

// NewSimpleTimer creates a new SimpleTimer.
func NewSimpleTimer() *SimpleTimer {
	slog.Debug("Creating SimpleTimer")
	return &SimpleTimer{
		timers: make(map[string]*timerEntry),
	}
}

// ScheduleAfter schedules a function to run after a delay.
func (t *SimpleTimer) ScheduleAfter(key string, delay time.Duration, description string, fn func()) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("timer callback is nil")
	}
	if delay < 0 {
		delay = 0
	}
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := fmt.Sprintf("timer_%d", t.nextID)

	t.timers[id] = &timerEntry{
		timer: time.AfterFunc(delay, func() {
			t.mu.Lock()
			_, live := t.timers[id]
			delete(t.timers, id)
			t.mu.Unlock()
			if !live {
				return
			}
			slog.Debug("SimpleTimer executing scheduled function", "id", id, "key", key)
			fn()
		}),
		key:         key,
		scheduledAt: now,
		expiresAt:   now.Add(delay),
		description: description,
	}

	slog.Debug("SimpleTimer ScheduleAfter succeeded", "id", id, "key", key, "delay", delay, "description", description)
	return id, nil
}

// CancelKey cancels every timer registered under key.
func (t *SimpleTimer) CancelKey(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for id, entry := range t.timers {
		if entry.key != key {
			continue
		}
		entry.timer.Stop()
		delete(t.timers, id)
		n++
	}
	slog.Debug("SimpleTimer CancelKey", "key", key, "cancelled", n)
	return n
}

// Stop cancels all scheduled timers.
func (t *SimpleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, entry := range t.timers {
		entry.timer.Stop()
	}
	slog.Info("SimpleTimer stopped all timers", "count", len(t.timers))
	t.timers = make(map[string]*timerEntry)
}

// ListActive returns information about all active timers.
func (t *SimpleTimer) ListActive() []models.TimerInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]models.TimerInfo, 0, len(t.timers))
	now := time.Now()
	for id, entry := range t.timers {
		remaining := entry.expiresAt.Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		result = append(result, models.TimerInfo{
			ID:          id,
			Key:         entry.key,
			ScheduledAt: entry.scheduledAt,
			ExpiresAt:   entry.expiresAt,
			Remaining:   remaining.String(),
			Description: entry.description,
		})
	}
	return result
}
