package domain

import "errors"

var (
	ErrMalformedConversation = errors.New("malformed conversation record")
	ErrNotParticipant        = errors.New("identity is not a participant of this conversation")
	ErrUnreadUnderflow       = errors.New("unread counter would go negative")
)
