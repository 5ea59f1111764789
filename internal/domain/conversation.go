package domain

import (
	"time"
)

// UnknownDisplayName is shown for counterparts outside the viewer's directory.
const UnknownDisplayName = "Unknown User"

// Contact is a directory entry. Email is the messaging identity.
type Contact struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Role        string `json:"role,omitempty"`
}

// Counterpart is the other participant as resolved for a specific viewer.
type Counterpart struct {
	Contact
	Known bool `json:"known"`
}

type Conversation struct {
	ID                  string             `json:"id"`
	Participants        [2]string          `json:"participants"`
	ParticipantSnapshot map[string]Contact `json:"-"`
	BlockedBy           map[string]string  `json:"-"`
	UnreadBy            map[string]int     `json:"unread_by"`
	LastMessagePreview  string             `json:"last_message_preview"`
	LastMessageAt       *time.Time         `json:"last_message_at,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	CreatedBy           string             `json:"created_by"`
}

// NewConversation builds a conversation record for the pair. Snapshots are
// keyed by canonical identity.
func NewConversation(a, b Contact, createdBy string, now time.Time) *Conversation {
	ia, ib := CanonicalIdentity(a.Email), CanonicalIdentity(b.Email)
	a.Email, b.Email = ia, ib
	if ib < ia {
		ia, ib = ib, ia
	}
	return &Conversation{
		ID:           ConversationKey(ia, ib),
		Participants: [2]string{ia, ib},
		ParticipantSnapshot: map[string]Contact{
			a.Email: a,
			b.Email: b,
		},
		BlockedBy: map[string]string{},
		UnreadBy:  map[string]int{ia: 0, ib: 0},
		CreatedAt: now,
		CreatedBy: CanonicalIdentity(createdBy),
	}
}

func (c *Conversation) IsParticipant(identity string) bool {
	return identity != "" && (c.Participants[0] == identity || c.Participants[1] == identity)
}

// Counterpart returns the other participant, or "" if identity is not one.
func (c *Conversation) Counterpart(identity string) string {
	switch identity {
	case c.Participants[0]:
		return c.Participants[1]
	case c.Participants[1]:
		return c.Participants[0]
	}
	return ""
}

// Validate checks the structural invariants of the record.
func (c *Conversation) Validate() error {
	p0, p1 := c.Participants[0], c.Participants[1]
	if p0 == "" || p1 == "" || p0 == p1 {
		return ErrMalformedConversation
	}
	if c.ID != ConversationKey(p0, p1) {
		return ErrMalformedConversation
	}
	for k := range c.BlockedBy {
		if !c.IsParticipant(k) {
			return ErrMalformedConversation
		}
	}
	for k, v := range c.UnreadBy {
		if !c.IsParticipant(k) || v < 0 {
			return ErrMalformedConversation
		}
	}
	return nil
}

// SetPreview denormalizes msg into the list preview.
func (c *Conversation) SetPreview(msg *Message) {
	if msg == nil {
		c.ClearPreview()
		return
	}
	at := msg.CreatedAt
	c.LastMessagePreview = msg.PreviewText()
	c.LastMessageAt = &at
}

// ClearPreview reverts to the empty "start chatting" state.
func (c *Conversation) ClearPreview() {
	c.LastMessagePreview = ""
	c.LastMessageAt = nil
}

// Clone returns a deep copy safe to mutate.
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.ParticipantSnapshot = make(map[string]Contact, len(c.ParticipantSnapshot))
	for k, v := range c.ParticipantSnapshot {
		out.ParticipantSnapshot[k] = v
	}
	out.BlockedBy = make(map[string]string, len(c.BlockedBy))
	for k, v := range c.BlockedBy {
		out.BlockedBy[k] = v
	}
	out.UnreadBy = make(map[string]int, len(c.UnreadBy))
	for k, v := range c.UnreadBy {
		out.UnreadBy[k] = v
	}
	if c.LastMessageAt != nil {
		at := *c.LastMessageAt
		out.LastMessageAt = &at
	}
	return &out
}

// LastActivity is the time used to order conversation lists.
func (c *Conversation) LastActivity() time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.CreatedAt
}
