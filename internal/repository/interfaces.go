package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/dmcore/internal/domain"
)

var ErrConversationNotFound = errors.New("conversation not found")

// DMRepository stores conversations and their messages.
//
// Reads return nil, nil for missing rows. Every mutation of an existing
// conversation goes through WithConversation so that unread counters, block
// state, preview and the message set change together.
type DMRepository interface {
	// CreateConversation inserts conv unless a record with the same id
	// exists. It returns the stored record and whether it was created.
	CreateConversation(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, bool, error)
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	ListConversations(ctx context.Context, identity string) ([]domain.Conversation, error)
	ListConversationIDs(ctx context.Context) ([]string, error)

	GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error)

	// DeleteConversation removes all messages of the conversation and then
	// the record. It reports false if nothing existed.
	DeleteConversation(ctx context.Context, id string) (bool, error)

	// WithConversation runs fn while holding the conversation's write lock.
	// Changes made through tx are committed only if fn returns nil.
	// Returns ErrConversationNotFound if the conversation does not exist.
	WithConversation(ctx context.Context, id string, fn func(tx DMTx) error) error
}

// DMTx is the transactional view of one conversation.
type DMTx interface {
	// Conversation is the locked record. Mutate it in place and call
	// SaveConversation to persist.
	Conversation() *domain.Conversation
	SaveConversation(ctx context.Context) error

	Messages(ctx context.Context) ([]domain.Message, error)
	Message(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	MessageByClientID(ctx context.Context, clientID string) (*domain.Message, error)
	InsertMessage(ctx context.Context, msg *domain.Message) error
	UpdateMessage(ctx context.Context, msg *domain.Message) error
	// DeleteMessages removes the given ids and returns the rows that existed.
	DeleteMessages(ctx context.Context, ids []uuid.UUID) ([]domain.Message, error)
}

// RetentionRepository persists the process-wide retention sweep marker.
type RetentionRepository interface {
	// LastResetAt returns the zero time and false if no sweep marker exists.
	LastResetAt(ctx context.Context) (time.Time, bool, error)
	SetLastResetAt(ctx context.Context, at time.Time) error
}

// ContactRepository backs the directory collaborator.
type ContactRepository interface {
	// GetContact returns identity as listed in owner's directory. owner ==
	// identity returns the identity's own profile.
	GetContact(ctx context.Context, owner, identity string) (*domain.Contact, error)
	UpsertContact(ctx context.Context, owner string, contact *domain.Contact) error
}
