package domain

// SendDecision is the outcome of the pre-write blocking check.
type SendDecision int

const (
	SendAllowed SendDecision = iota
	// SendRejectedBlocker: the sender has blocked the recipient.
	SendRejectedBlocker
	// SendSuppressed: the recipient has blocked the sender. The sender must
	// not be able to tell this apart from a successful send.
	SendSuppressed
)

// SendDecision evaluates whether sender may write to this conversation.
func (c *Conversation) SendDecision(sender string) SendDecision {
	recipient := c.Counterpart(sender)
	if c.HasBlocked(sender, recipient) {
		return SendRejectedBlocker
	}
	if c.HasBlocked(recipient, sender) {
		return SendSuppressed
	}
	return SendAllowed
}

// HasBlocked reports whether blocker has blocked blocked.
func (c *Conversation) HasBlocked(blocker, blocked string) bool {
	if blocker == "" || blocked == "" {
		return false
	}
	return c.BlockedBy[blocker] == blocked
}

// Block records that blocker has blocked the other participant. Repeated
// calls are no-ops.
func (c *Conversation) Block(blocker string) error {
	other := c.Counterpart(blocker)
	if other == "" {
		return ErrNotParticipant
	}
	if c.BlockedBy == nil {
		c.BlockedBy = map[string]string{}
	}
	c.BlockedBy[blocker] = other
	return nil
}

// Unblock removes blocker's own entry. Nobody can remove another
// participant's block.
func (c *Conversation) Unblock(blocker string) error {
	if !c.IsParticipant(blocker) {
		return ErrNotParticipant
	}
	delete(c.BlockedBy, blocker)
	return nil
}

// VisibleTo is the read-time filter. It is independent of the send-time
// check so that messages landing during a block race are still hidden.
func (c *Conversation) VisibleTo(viewer string, m *Message) bool {
	if m.IsSystem || m.SenderID == viewer {
		return true
	}
	return !c.HasBlocked(viewer, m.SenderID) && !c.HasBlocked(m.SenderID, viewer)
}
