// Package timeline keeps a client's local view of one conversation while
// sends are in flight. A message is shown immediately under its client id
// and swapped for the stored copy once the server confirms it, whether the
// confirmation arrives as the send response or as a subscription event.
package timeline

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/dmcore/internal/domain"
)

type State string

const (
	StatePending   State = "pending"
	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
)

type Entry struct {
	Message domain.Message
	State   State
}

// Timeline is safe for concurrent use. Subscription events are
// at-least-once, so every mutation is idempotent by message id.
type Timeline struct {
	mu        sync.Mutex
	confirmed map[uuid.UUID]domain.Message
	pending   map[string]*Entry
	byClient  map[string]uuid.UUID
	// removed holds deleted ids so late duplicates cannot bring them back.
	removed map[uuid.UUID]struct{}
}

func New() *Timeline {
	t := &Timeline{}
	t.Clear()
	return t
}

// AddPending shows msg before the server has stored it. msg.ClientID is the
// temporary id and must be unique per send.
func (t *Timeline) AddPending(msg domain.Message) bool {
	if msg.ClientID == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, done := t.byClient[msg.ClientID]; done {
		return false
	}
	t.pending[msg.ClientID] = &Entry{Message: msg.Clone(), State: StatePending}
	return true
}

// Confirm replaces the pending entry with the stored message.
func (t *Timeline) Confirm(clientID string, stored domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, clientID)
	if clientID != "" {
		t.byClient[clientID] = stored.ID
	}
	if _, gone := t.removed[stored.ID]; gone {
		return
	}
	t.confirmed[stored.ID] = merge(t.confirmed[stored.ID], stored)
}

// Fail keeps the entry visible so the user can retry with the same client id.
func (t *Timeline) Fail(clientID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.pending[clientID]; ok {
		e.State = StateFailed
	}
}

// Retry returns a failed entry to pending and hands back the message to resend.
func (t *Timeline) Retry(clientID string) (domain.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.pending[clientID]
	if !ok || e.State != StateFailed {
		return domain.Message{}, false
	}
	e.State = StatePending
	return e.Message.Clone(), true
}

// Apply merges a message delivered by the subscription. It reports whether
// the message was new to the timeline. Copies of a known message are
// merged so a redelivered older copy never undoes an edit or a read
// receipt. Removed ids are ignored.
func (t *Timeline) Apply(msg domain.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, gone := t.removed[msg.ID]; gone {
		if msg.ClientID != "" {
			delete(t.pending, msg.ClientID)
		}
		return false
	}
	existing, known := t.confirmed[msg.ID]
	if msg.ClientID != "" {
		if _, ok := t.pending[msg.ClientID]; ok {
			delete(t.pending, msg.ClientID)
			known = true
		}
		t.byClient[msg.ClientID] = msg.ID
	}
	t.confirmed[msg.ID] = merge(existing, msg)
	return !known
}

// merge folds incoming into the copy already held. Edited never goes back
// to false and ReadBy only grows.
func merge(held, incoming domain.Message) domain.Message {
	out := incoming.Clone()
	if held.ID != incoming.ID {
		return out
	}
	if held.Edited && !incoming.Edited {
		out.Content = held.Content
		out.Media = slices.Clone(held.Media)
		out.Edited = true
	}
	for _, r := range held.ReadBy {
		out.MarkReadBy(r)
	}
	return out
}

func (t *Timeline) Remove(ids ...uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		delete(t.confirmed, id)
		t.removed[id] = struct{}{}
	}
}

// Clear drops everything, e.g. after the conversation was purged.
func (t *Timeline) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.confirmed = make(map[uuid.UUID]domain.Message)
	t.pending = make(map[string]*Entry)
	t.byClient = make(map[string]uuid.UUID)
	t.removed = make(map[uuid.UUID]struct{})
}

// Messages returns all entries, oldest first. Pending entries sort by their
// client send time.
func (t *Timeline) Messages() []Entry {
	t.mu.Lock()
	out := make([]Entry, 0, len(t.confirmed)+len(t.pending))
	for _, m := range t.confirmed {
		out = append(out, Entry{Message: m.Clone(), State: StateConfirmed})
	}
	for _, e := range t.pending {
		out = append(out, Entry{Message: e.Message.Clone(), State: e.State})
	}
	t.mu.Unlock()

	slices.SortStableFunc(out, func(a, b Entry) int {
		return domain.CompareMessages(&a.Message, &b.Message)
	})
	return out
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.confirmed) + len(t.pending)
}
