package memory

import (
	"context"
	"sync"

	"github.com/vedran77/dmcore/internal/domain"
)

type contactKey struct {
	owner    string
	identity string
}

// ContactStore is an in-memory directory keyed by (owner, identity).
type ContactStore struct {
	mu       sync.RWMutex
	contacts map[contactKey]domain.Contact
}

func NewContactStore() *ContactStore {
	return &ContactStore{contacts: make(map[contactKey]domain.Contact)}
}

func (s *ContactStore) GetContact(_ context.Context, owner, identity string) (*domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[contactKey{domain.CanonicalIdentity(owner), domain.CanonicalIdentity(identity)}]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *ContactStore) UpsertContact(_ context.Context, owner string, contact *domain.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[contactKey{domain.CanonicalIdentity(owner), domain.CanonicalIdentity(contact.Email)}] = *contact
	return nil
}
