package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/vedran77/dmcore/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks github.com/vedran77/dmcore/internal/service Directory,Notifier,NotificationSink,Presence

// Directory resolves contacts. owner == identity returns the identity's own
// profile; otherwise the entry in owner's contact list, or nil.
type Directory interface {
	LookupContact(ctx context.Context, owner, identity string) (*domain.Contact, error)
}

// Notifier broadcasts committed state to real-time subscribers. Calls happen
// after the write is committed and must not block.
type Notifier interface {
	NotifyNewMessage(conv *domain.Conversation, msg *domain.Message)
	// NotifyOwnMessage echoes a message to its sender's sessions only.
	NotifyOwnMessage(conv *domain.Conversation, msg *domain.Message)
	NotifyEditedMessage(conv *domain.Conversation, msg *domain.Message)
	NotifyDeletedMessages(conv *domain.Conversation, ids []uuid.UUID)
	NotifyMessagesRead(conv *domain.Conversation, reader string, ids []uuid.UUID)
	NotifyConversationUpdated(conv *domain.Conversation)
	NotifyConversationDeleted(conv *domain.Conversation)
}

// Notification is a push/email alert for an offline user.
type Notification struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	ActionRef string `json:"action_ref"`
}

// NotificationSink delivers alerts. Failures are the sink's problem.
type NotificationSink interface {
	Notify(ctx context.Context, identity string, n Notification)
}

// Presence reports whether an identity has a live real-time session.
type Presence interface {
	IsOnline(identity string) bool
}

type nopNotifier struct{}

func (nopNotifier) NotifyNewMessage(*domain.Conversation, *domain.Message)    {}
func (nopNotifier) NotifyOwnMessage(*domain.Conversation, *domain.Message)    {}
func (nopNotifier) NotifyEditedMessage(*domain.Conversation, *domain.Message) {}
func (nopNotifier) NotifyDeletedMessages(*domain.Conversation, []uuid.UUID)   {}
func (nopNotifier) NotifyMessagesRead(*domain.Conversation, string, []uuid.UUID) {}
func (nopNotifier) NotifyConversationUpdated(*domain.Conversation)            {}
func (nopNotifier) NotifyConversationDeleted(*domain.Conversation)            {}
