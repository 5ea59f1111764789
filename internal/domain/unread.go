package domain

// OnSend increments the unread counter of every participant except sender.
func (c *Conversation) OnSend(sender string) {
	c.ensureUnread()
	for _, p := range c.Participants {
		if p != sender {
			c.UnreadBy[p]++
		}
	}
}

// OnRead resets reader's own counter. No other counter is touched.
func (c *Conversation) OnRead(reader string) {
	c.ensureUnread()
	if c.IsParticipant(reader) {
		c.UnreadBy[reader] = 0
	}
}

// OnDelete decrements counters for removed messages that were still unread.
// Counters never go below zero; hitting the floor returns ErrUnreadUnderflow
// so the caller can recompute from the message set.
func (c *Conversation) OnDelete(removed []Message) error {
	c.ensureUnread()
	var err error
	for i := range removed {
		m := &removed[i]
		if m.IsSystem {
			continue
		}
		for _, p := range c.Participants {
			if p == m.SenderID || m.HasReadBy(p) || !c.VisibleTo(p, m) {
				continue
			}
			if c.UnreadBy[p] == 0 {
				err = ErrUnreadUnderflow
				continue
			}
			c.UnreadBy[p]--
		}
	}
	return err
}

// RecomputeUnread rebuilds every counter from msgs and reports whether any
// counter changed.
func (c *Conversation) RecomputeUnread(msgs []Message) bool {
	next := map[string]int{c.Participants[0]: 0, c.Participants[1]: 0}
	for i := range msgs {
		m := &msgs[i]
		if m.IsSystem {
			continue
		}
		for _, p := range c.Participants {
			if p != m.SenderID && !m.HasReadBy(p) && c.VisibleTo(p, m) {
				next[p]++
			}
		}
	}

	changed := false
	for p, n := range next {
		if c.UnreadBy[p] != n {
			changed = true
		}
	}
	c.UnreadBy = next
	return changed
}

func (c *Conversation) ensureUnread() {
	if c.UnreadBy == nil {
		c.UnreadBy = map[string]int{}
	}
}
