package flow

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

// manualTimer is a Timer driven by a virtual clock. Callbacks run on the
// caller's goroutine inside Advance.
type manualTimer struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	seq     int
	entries []*manualEntry
}

type manualEntry struct {
	id, key, desc string
	due           time.Time
	seq           int
	fn            func()
}

func newManualTimer(t *testing.T) *manualTimer {
	mt := &manualTimer{now: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)}
	orig := timeNow
	timeNow = mt.Now
	t.Cleanup(func() { timeNow = orig })
	return mt
}

func (m *manualTimer) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualTimer) ScheduleAfter(key string, delay time.Duration, description string, fn func()) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.seq++
	id := fmt.Sprintf("manual_%d", m.nextID)
	m.entries = append(m.entries, &manualEntry{id: id, key: key, desc: description, due: m.now.Add(delay), seq: m.seq, fn: fn})
	return id, nil
}

func (m *manualTimer) CancelKey(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remove(func(e *manualEntry) bool { return e.key == key })
}

func (m *manualTimer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
}

func (m *manualTimer) ListActive() []models.TimerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TimerInfo, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, models.TimerInfo{ID: e.id, Key: e.key, ExpiresAt: e.due, Description: e.desc})
	}
	return out
}

// Advance moves the clock forward, firing due callbacks in time order.
func (m *manualTimer) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	for {
		sort.SliceStable(m.entries, func(i, j int) bool {
			if m.entries[i].due.Equal(m.entries[j].due) {
				return m.entries[i].seq < m.entries[j].seq
			}
			return m.entries[i].due.Before(m.entries[j].due)
		})
		if len(m.entries) == 0 || m.entries[0].due.After(target) {
			break
		}
		e := m.entries[0]
		m.entries = m.entries[1:]
		m.now = e.due
		m.mu.Unlock()
		e.fn()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

func (m *manualTimer) pendingKeys() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make(map[string]int)
	for _, e := range m.entries {
		keys[e.key]++
	}
	return keys
}

func (m *manualTimer) remove(match func(*manualEntry) bool) int {
	kept := m.entries[:0]
	n := 0
	for _, e := range m.entries {
		if match(e) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return n
}
