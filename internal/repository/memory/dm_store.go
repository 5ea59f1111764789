package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/repository"
)

// DMStore is an in-memory implementation of repository.DMRepository.
// It is NOT persistent and is only suitable for tests / local mode.
//
// Each conversation has its own lock. The store-wide lock only guards the
// index maps and is never held while acquiring a conversation lock.
type DMStore struct {
	mu            sync.RWMutex
	conversations map[string]*convEntry
	messageConv   map[uuid.UUID]string
}

type convEntry struct {
	mu       sync.RWMutex
	deleted  bool
	conv     *domain.Conversation
	messages []domain.Message
}

func NewDMStore() *DMStore {
	return &DMStore{
		conversations: make(map[string]*convEntry),
		messageConv:   make(map[uuid.UUID]string),
	}
}

func (s *DMStore) entry(id string) *convEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversations[id]
}

func (s *DMStore) CreateConversation(_ context.Context, conv *domain.Conversation) (*domain.Conversation, bool, error) {
	for {
		s.mu.Lock()
		e, ok := s.conversations[conv.ID]
		if !ok {
			s.conversations[conv.ID] = &convEntry{conv: conv.Clone()}
			s.mu.Unlock()
			return conv.Clone(), true, nil
		}
		s.mu.Unlock()

		e.mu.RLock()
		if !e.deleted {
			existing := e.conv.Clone()
			e.mu.RUnlock()
			return existing, false, nil
		}
		// A concurrent delete unindexes the entry before releasing its lock,
		// so the next pass no longer finds it.
		e.mu.RUnlock()
	}
}

func (s *DMStore) GetConversation(_ context.Context, id string) (*domain.Conversation, error) {
	e := s.entry(id)
	if e == nil {
		return nil, nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.deleted {
		return nil, nil
	}
	return e.conv.Clone(), nil
}

func (s *DMStore) ListConversations(_ context.Context, identity string) ([]domain.Conversation, error) {
	s.mu.RLock()
	entries := make([]*convEntry, 0, len(s.conversations))
	for _, e := range s.conversations {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var out []domain.Conversation
	for _, e := range entries {
		e.mu.RLock()
		if !e.deleted && e.conv.IsParticipant(identity) {
			out = append(out, *e.conv.Clone())
		}
		e.mu.RUnlock()
	}
	slices.SortFunc(out, func(a, b domain.Conversation) int {
		if c := b.LastActivity().Compare(a.LastActivity()); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *DMStore) ListConversationIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *DMStore) GetMessage(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	s.mu.RLock()
	convID, ok := s.messageConv[id]
	e := s.conversations[convID]
	s.mu.RUnlock()
	if !ok || e == nil {
		return nil, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for i := range e.messages {
		if e.messages[i].ID == id {
			m := e.messages[i].Clone()
			return &m, nil
		}
	}
	return nil, nil
}

func (s *DMStore) ListMessages(_ context.Context, conversationID string) ([]domain.Message, error) {
	e := s.entry(conversationID)
	if e == nil {
		return []domain.Message{}, nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Message, 0, len(e.messages))
	for i := range e.messages {
		out = append(out, e.messages[i].Clone())
	}
	return out, nil
}

func (s *DMStore) DeleteConversation(_ context.Context, id string) (bool, error) {
	e := s.entry(id)
	if e == nil {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return false, nil
	}
	e.deleted = true
	ids := make([]uuid.UUID, 0, len(e.messages))
	for _, m := range e.messages {
		ids = append(ids, m.ID)
	}
	e.messages = nil

	s.mu.Lock()
	for _, mid := range ids {
		delete(s.messageConv, mid)
	}
	delete(s.conversations, id)
	s.mu.Unlock()
	return true, nil
}

func (s *DMStore) WithConversation(ctx context.Context, id string, fn func(tx repository.DMTx) error) error {
	e := s.entry(id)
	if e == nil {
		return repository.ErrConversationNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return repository.ErrConversationNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		conv:     e.conv.Clone(),
		messages: make([]domain.Message, 0, len(e.messages)),
	}
	for i := range e.messages {
		tx.messages = append(tx.messages, e.messages[i].Clone())
	}

	if err := fn(tx); err != nil {
		return err
	}

	if tx.saved {
		e.conv = tx.conv.Clone()
	}
	e.messages = tx.messages

	if len(tx.inserted) > 0 || len(tx.removed) > 0 {
		s.mu.Lock()
		for _, mid := range tx.inserted {
			s.messageConv[mid] = id
		}
		for _, mid := range tx.removed {
			delete(s.messageConv, mid)
		}
		s.mu.Unlock()
	}
	return nil
}

// memTx stages changes on private copies; WithConversation swaps them in.
type memTx struct {
	conv     *domain.Conversation
	messages []domain.Message
	saved    bool
	inserted []uuid.UUID
	removed  []uuid.UUID
}

func (t *memTx) Conversation() *domain.Conversation { return t.conv }

func (t *memTx) SaveConversation(_ context.Context) error {
	t.saved = true
	return nil
}

func (t *memTx) Messages(_ context.Context) ([]domain.Message, error) {
	out := make([]domain.Message, 0, len(t.messages))
	for i := range t.messages {
		out = append(out, t.messages[i].Clone())
	}
	return out, nil
}

func (t *memTx) Message(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	for i := range t.messages {
		if t.messages[i].ID == id {
			m := t.messages[i].Clone()
			return &m, nil
		}
	}
	return nil, nil
}

func (t *memTx) MessageByClientID(_ context.Context, clientID string) (*domain.Message, error) {
	if clientID == "" {
		return nil, nil
	}
	for i := range t.messages {
		if t.messages[i].ClientID == clientID {
			m := t.messages[i].Clone()
			return &m, nil
		}
	}
	return nil, nil
}

func (t *memTx) InsertMessage(_ context.Context, msg *domain.Message) error {
	t.messages = append(t.messages, msg.Clone())
	t.inserted = append(t.inserted, msg.ID)
	return nil
}

func (t *memTx) UpdateMessage(_ context.Context, msg *domain.Message) error {
	for i := range t.messages {
		if t.messages[i].ID == msg.ID {
			t.messages[i] = msg.Clone()
			return nil
		}
	}
	return nil
}

func (t *memTx) DeleteMessages(_ context.Context, ids []uuid.UUID) ([]domain.Message, error) {
	var removed []domain.Message
	kept := t.messages[:0]
	for _, m := range t.messages {
		if slices.Contains(ids, m.ID) {
			removed = append(removed, m)
			t.removed = append(t.removed, m.ID)
			continue
		}
		kept = append(kept, m)
	}
	t.messages = kept
	return removed, nil
}
