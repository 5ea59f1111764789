package ws

import (
	"github.com/google/uuid"
	"github.com/vedran77/dmcore/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub. Message
// events go to connections subscribed to the conversation and pass the
// per-viewer visibility filter. Conversation events go to every connection
// of each participant.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(conv *domain.Conversation, msg *domain.Message) {
	n.publishMessage(EventTypeMessageNew, conv, msg)
	n.NotifyConversationUpdated(conv)
}

// NotifyOwnMessage echoes msg to its sender alone: the message event to the
// sender's subscribed connections and the conversation row to all of them.
func (n *HubNotifier) NotifyOwnMessage(conv *domain.Conversation, msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessageNew, conv.ID, MessagePayload{Message: *msg})
	if err != nil {
		return
	}
	if data := encode(evt); data != nil {
		n.hub.publish(&broadcastMsg{
			conversationID:  conv.ID,
			data:            map[string][]byte{msg.SenderID: data},
			subscribersOnly: true,
		})
	}
	if data := conversationEvent(conv, msg.SenderID); data != nil {
		n.hub.publish(&broadcastMsg{conversationID: conv.ID, data: map[string][]byte{msg.SenderID: data}})
	}
}

func (n *HubNotifier) NotifyEditedMessage(conv *domain.Conversation, msg *domain.Message) {
	n.publishMessage(EventTypeMessageEdited, conv, msg)
}

func (n *HubNotifier) NotifyDeletedMessages(conv *domain.Conversation, ids []uuid.UUID) {
	evt, err := NewEvent(EventTypeMessageDeleted, conv.ID, MessagesDeletedPayload{IDs: ids})
	if err != nil {
		return
	}
	n.toParticipants(conv, encode(evt), true, false)
}

func (n *HubNotifier) NotifyMessagesRead(conv *domain.Conversation, reader string, ids []uuid.UUID) {
	evt, err := NewEvent(EventTypeMessageRead, conv.ID, MessagesReadPayload{Reader: reader, IDs: ids})
	if err != nil {
		return
	}
	n.toParticipants(conv, encode(evt), true, false)
}

func (n *HubNotifier) NotifyConversationUpdated(conv *domain.Conversation) {
	data := make(map[string][]byte, 2)
	for _, p := range conv.Participants {
		if b := conversationEvent(conv, p); b != nil {
			data[p] = b
		}
	}
	n.hub.publish(&broadcastMsg{conversationID: conv.ID, data: data})
}

// conversationEvent renders conv as viewer sees it: only their own unread
// counter is included.
func conversationEvent(conv *domain.Conversation, viewer string) []byte {
	evt, err := NewEvent(EventTypeConversationUpdated, conv.ID, ConversationPayload{
		ID:                 conv.ID,
		LastMessagePreview: conv.LastMessagePreview,
		LastMessageAt:      conv.LastMessageAt,
		Unread:             conv.UnreadBy[viewer],
	})
	if err != nil {
		return nil
	}
	return encode(evt)
}

// NotifyConversationDeleted tells both participants to drop their local
// copy and ends their subscriptions.
func (n *HubNotifier) NotifyConversationDeleted(conv *domain.Conversation) {
	evt, err := NewEvent(EventTypeConversationDeleted, conv.ID, SubscribePayload{ConversationID: conv.ID})
	if err != nil {
		return
	}
	n.toParticipants(conv, encode(evt), false, true)
}

func (n *HubNotifier) publishMessage(eventType string, conv *domain.Conversation, msg *domain.Message) {
	evt, err := NewEvent(eventType, conv.ID, MessagePayload{Message: *msg})
	if err != nil {
		return
	}
	data := encode(evt)
	if data == nil {
		return
	}
	recipients := make(map[string][]byte, 2)
	for _, p := range conv.Participants {
		if conv.VisibleTo(p, msg) {
			recipients[p] = data
		}
	}
	n.hub.publish(&broadcastMsg{conversationID: conv.ID, data: recipients, subscribersOnly: true})
}

func (n *HubNotifier) toParticipants(conv *domain.Conversation, data []byte, subscribersOnly, dropSubscription bool) {
	if data == nil {
		return
	}
	recipients := make(map[string][]byte, 2)
	for _, p := range conv.Participants {
		recipients[p] = data
	}
	n.hub.publish(&broadcastMsg{
		conversationID:   conv.ID,
		data:             recipients,
		subscribersOnly:  subscribersOnly,
		dropSubscription: dropSubscription,
	})
}
