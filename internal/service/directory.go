package service

import (
	"context"

	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/repository"
)

// RepoDirectory serves Directory from the contact store.
type RepoDirectory struct {
	contacts repository.ContactRepository
}

func NewRepoDirectory(contacts repository.ContactRepository) *RepoDirectory {
	return &RepoDirectory{contacts: contacts}
}

func (d *RepoDirectory) LookupContact(ctx context.Context, owner, identity string) (*domain.Contact, error) {
	owner, identity = domain.CanonicalIdentity(owner), domain.CanonicalIdentity(identity)
	if owner == "" || identity == "" {
		return nil, nil
	}
	return d.contacts.GetContact(ctx, owner, identity)
}

// AddContact records contact in owner's directory. owner == contact.Email
// stores the owner's own profile.
func (d *RepoDirectory) AddContact(ctx context.Context, owner string, contact domain.Contact) error {
	contact.Email = domain.CanonicalIdentity(contact.Email)
	return d.contacts.UpsertContact(ctx, domain.CanonicalIdentity(owner), &contact)
}
