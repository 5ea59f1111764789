package service

import (
	"sync"

	"github.com/vedran77/dmcore/internal/domain"
)

const suppressedCacheSize = 4096

// draftCache is a bounded map of unsaved messages keyed by conversation,
// sender and client id. The oldest entry is evicted first.
type draftCache struct {
	mu      sync.Mutex
	max     int
	entries map[string]domain.Message
	order   []string
}

func newDraftCache(max int) *draftCache {
	return &draftCache{max: max, entries: make(map[string]domain.Message)}
}

func draftKey(m *domain.Message) string {
	return m.ConversationID + "\x00" + m.SenderID + "\x00" + m.ClientID
}

func (c *draftCache) get(m *domain.Message) *domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.entries[draftKey(m)]; ok {
		out := cached.Clone()
		return &out
	}
	return nil
}

// put stores m unless an entry for the same key exists. It returns the
// entry that is now cached and whether it was m.
func (c *draftCache) put(m *domain.Message) (*domain.Message, bool) {
	if m.ClientID == "" {
		return m, true
	}
	key := draftKey(m)
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.entries[key]; ok {
		out := cached.Clone()
		return &out, false
	}
	for len(c.order) >= c.max {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	c.entries[key] = m.Clone()
	c.order = append(c.order, key)
	return m, true
}
