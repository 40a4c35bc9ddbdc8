// Package timeline holds the ordered message list of a conversation and the
// time-bucketing used to render it.
package timeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

const (
	// GroupWindow is the maximum gap from a group's first message before a new
	// group starts.
	GroupWindow = 60 * time.Second
	// DuplicateWindow is how close two identical user or assistant messages
	// must be to count as a double submit.
	DuplicateWindow = time.Second
)

// Timeline is an append-only message list. It is not safe for concurrent use.
type Timeline struct {
	messages []models.Message
	ids      map[string]struct{}
}

// New creates an empty Timeline.
func New() *Timeline {
	return &Timeline{ids: make(map[string]struct{})}
}

// Append validates msg and adds it to the end of the timeline. A message whose
// id is already present, or a user or assistant message with the same content
// as an existing one within DuplicateWindow, is rejected with a guard error.
func (t *Timeline) Append(msg models.Message) error {
	const op = "Timeline.Append"
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if _, dup := t.ids[msg.ID]; dup {
		slog.Warn("Timeline.Append: duplicate id", "messageID", msg.ID)
		return models.Reject(op, fmt.Sprintf("message %s already exists", msg.ID))
	}
	if msg.Role == models.MessageRoleUser || msg.Role == models.MessageRoleAssistant {
		for i := len(t.messages) - 1; i >= 0; i-- {
			prev := t.messages[i]
			if prev.Role != msg.Role || prev.Content != msg.Content {
				continue
			}
			if absDuration(msg.Timestamp.Sub(prev.Timestamp)) < DuplicateWindow {
				slog.Warn("Timeline.Append: duplicate submit suppressed", "messageID", msg.ID, "previousID", prev.ID, "role", msg.Role)
				return models.Reject(op, "identical message submitted within one second")
			}
		}
	}

	t.messages = append(t.messages, msg)
	t.ids[msg.ID] = struct{}{}
	slog.Debug("Timeline.Append: message appended", "messageID", msg.ID, "role", msg.Role, "count", len(t.messages))
	return nil
}

// Messages returns a copy of the messages in arrival order.
func (t *Timeline) Messages() []models.Message {
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Timeline) Len() int {
	return len(t.messages)
}

// CountByRole returns how many messages have the given role.
func (t *Timeline) CountByRole(role models.MessageRole) int {
	n := 0
	for _, m := range t.messages {
		if m.Role == role {
			n++
		}
	}
	return n
}

// Groups is shorthand for GroupByTime over the current messages.
func (t *Timeline) Groups() []models.MessageGroup {
	return GroupByTime(t.messages)
}

// GroupByTime buckets time-ordered messages. A new group starts when a
// message is more than GroupWindow after the first message of the current
// group; the anchor does not slide. Input order is kept and no sorting is done.
func GroupByTime(messages []models.Message) []models.MessageGroup {
	var groups []models.MessageGroup
	for _, m := range messages {
		n := len(groups)
		if n == 0 || m.Timestamp.Sub(groups[n-1].Timestamp) > GroupWindow {
			groups = append(groups, models.MessageGroup{Timestamp: m.Timestamp, Messages: []models.Message{m}})
			continue
		}
		groups[n-1].Messages = append(groups[n-1].Messages, m)
	}
	return groups
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
