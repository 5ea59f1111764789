package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/dmcore/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeTypingStart = "typing.start"
	EventTypeTypingStop  = "typing.stop"
	EventTypeSubscribe   = "conversation.subscribe"
	EventTypeUnsubscribe = "conversation.unsubscribe"
	EventTypePing        = "ping"
)

// Event types - Server → Client
const (
	EventTypeMessageNew          = "message.new"
	EventTypeMessageEdited       = "message.edited"
	EventTypeMessageDeleted      = "message.deleted"
	EventTypeMessageRead         = "message.read"
	EventTypeConversationUpdated = "conversation.updated"
	EventTypeConversationDeleted = "conversation.deleted"
	EventTypeSubscribed          = "subscribed"
	EventTypeTyping              = "typing"
	EventTypePong                = "pong"
	EventTypeError               = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timestamp      int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type SubscribePayload struct {
	ConversationID string `json:"conversation_id"`
}

// --- Server → Client payloads ---

type MessagePayload struct {
	domain.Message
}

type MessagesDeletedPayload struct {
	IDs []uuid.UUID `json:"ids"`
}

type MessagesReadPayload struct {
	Reader string      `json:"reader"`
	IDs    []uuid.UUID `json:"ids"`
}

// ConversationPayload is the list-row update for one viewer.
type ConversationPayload struct {
	ID                 string     `json:"id"`
	LastMessagePreview string     `json:"last_message_preview"`
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	Unread             int        `json:"unread"`
}

type TypingPayload struct {
	Identity string `json:"identity"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType, conversationID string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:           eventType,
		ConversationID: conversationID,
		Payload:        data,
		Timestamp:      time.Now().Unix(),
	}, nil
}
