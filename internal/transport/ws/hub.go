package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/observability"
)

// ConversationSource reads conversation state for membership and block checks.
type ConversationSource interface {
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
}

// Hub manages all active WebSocket clients and routes events.
type Hub struct {
	// clients maps identity → live connections. Owned by Run.
	clients map[string]map[*Client]struct{}

	conversations ConversationSource

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMsg
	done       chan struct{}

	mu     sync.RWMutex
	online map[string]int
}

type broadcastMsg struct {
	conversationID string
	// data holds the encoded event per recipient identity. Identities
	// without an entry receive nothing.
	data map[string][]byte
	// subscribersOnly limits delivery to connections subscribed to
	// conversationID.
	subscribersOnly bool
	// dropSubscription removes conversationID from every receiving client.
	dropSubscription bool
	exclude          *Client
}

func NewHub(conversations ConversationSource) *Hub {
	return &Hub{
		clients:       make(map[string]map[*Client]struct{}),
		conversations: conversations,
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan *broadcastMsg, 256),
		done:          make(chan struct{}),
		online:        make(map[string]int),
	}
}

// Run is the Hub's event loop. It returns when ctx is cancelled, after
// closing every connection.
func (h *Hub) Run(ctx context.Context) error {
	log := observability.Logger()
	defer func() {
		close(h.done)
		for _, conns := range h.clients {
			for c := range conns {
				h.drop(c)
			}
		}
	}()

	for {
		select {
		case client := <-h.register:
			conns := h.clients[client.identity]
			if conns == nil {
				conns = make(map[*Client]struct{})
				h.clients[client.identity] = conns
			}
			conns[client] = struct{}{}
			h.setOnline(client.identity, 1)
			log.Debug().Str("identity", client.identity).Int("connections", len(conns)).Msg("ws client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client.identity][client]; ok {
				h.drop(client)
				log.Debug().Str("identity", client.identity).Msg("ws client disconnected")
			}

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-ctx.Done():
			return nil
		}
	}
}

func (h *Hub) deliver(msg *broadcastMsg) {
	for identity, data := range msg.data {
		for client := range h.clients[identity] {
			if client == msg.exclude {
				continue
			}
			if msg.subscribersOnly && !client.IsSubscribed(msg.conversationID) {
				continue
			}
			if msg.dropSubscription {
				client.Unsubscribe(msg.conversationID)
			}
			select {
			case client.send <- data:
			default:
				// Client buffer full - disconnect
				observability.Logger().Warn().Str("identity", identity).Msg("ws send buffer full, dropping client")
				h.drop(client)
			}
		}
	}
}

// drop removes client and stops its write pump. Only called from Run.
// client.send stays open because the client's read goroutine may still
// queue replies on it.
func (h *Hub) drop(client *Client) {
	conns := h.clients[client.identity]
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.identity)
	}
	h.setOnline(client.identity, -1)
	close(client.done)
}

func (h *Hub) setOnline(identity string, delta int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.online[identity] += delta
	if h.online[identity] <= 0 {
		delete(h.online, identity)
	}
}

// IsOnline reports whether identity has at least one live connection.
func (h *Hub) IsOnline(identity string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.online[domain.CanonicalIdentity(identity)] > 0
}

func (h *Hub) publish(msg *broadcastMsg) {
	if len(msg.data) == 0 {
		return
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// HandleTyping forwards a typing indicator to the counterpart unless either
// side has blocked the other.
func (h *Hub) HandleTyping(ctx context.Context, sender *Client, conversationID string) {
	conv, err := h.conversations.GetConversation(ctx, conversationID)
	if err != nil || conv == nil {
		return
	}
	other := conv.Counterpart(sender.identity)
	if other == "" || conv.HasBlocked(sender.identity, other) || conv.HasBlocked(other, sender.identity) {
		return
	}

	evt, err := NewEvent(EventTypeTyping, conversationID, TypingPayload{Identity: sender.identity})
	if err != nil {
		return
	}
	data := encode(evt)
	if data == nil {
		return
	}
	h.publish(&broadcastMsg{
		conversationID:  conversationID,
		data:            map[string][]byte{other: data},
		subscribersOnly: true,
		exclude:         sender,
	})
}

func encode(evt *Event) []byte {
	data, err := json.Marshal(evt)
	if err != nil {
		observability.Logger().Error().Err(err).Str("type", evt.Type).Msg("ws marshal error")
		return nil
	}
	return data
}
