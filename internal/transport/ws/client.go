package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/vedran77/dmcore/internal/observability"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	lookupWait     = 5 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 256
)

// Client represents a single WebSocket connection.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	identity string

	// subscriptions tracks which conversations this client listens to.
	subscriptions map[string]struct{}
	mu            sync.RWMutex

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, identity string) *Client {
	conn.SetReadLimit(maxMessageSize)
	return &Client{
		hub:           hub,
		conn:          conn,
		identity:      identity,
		subscriptions: make(map[string]struct{}),
		send:          make(chan []byte, sendBufSize),
		done:          make(chan struct{}),
	}
}

func (c *Client) IsSubscribed(conversationID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[conversationID]
	return ok
}

func (c *Client) Subscribe(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[conversationID] = struct{}{}
}

func (c *Client) Unsubscribe(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, conversationID)
}

// ReadPump reads events from the WebSocket and handles them.
func (c *Client) ReadPump() {
	log := observability.Logger().With().Str("identity", c.identity).Logger()
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Debug().Msg("ws client closed connection")
			} else {
				log.Debug().Err(err).Msg("ws read error")
			}
			return
		}

		c.handleEvent(&event)
	}
}

// WritePump writes queued events to the WebSocket and keeps it alive.
func (c *Client) WritePump() {
	log := observability.Logger().With().Str("identity", c.identity).Logger()
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				log.Debug().Err(err).Msg("ws write error")
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				log.Debug().Err(err).Msg("ws ping error")
				return
			}

		case <-c.done:
			return
		}
	}
}

// handleEvent routes an incoming client event.
func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeSubscribe:
		var p SubscribePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.ConversationID == "" {
			c.sendError("INVALID_PAYLOAD", "invalid conversation.subscribe payload")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), lookupWait)
		conv, err := c.hub.conversations.GetConversation(ctx, p.ConversationID)
		cancel()
		if err != nil {
			c.sendError("TRANSIENT_IO", "could not load conversation")
			return
		}
		// Missing and foreign conversations look the same.
		if conv == nil || !conv.IsParticipant(c.identity) {
			c.sendError("NOT_FOUND", "conversation not found")
			return
		}
		c.Subscribe(conv.ID)
		c.sendEvent(EventTypeSubscribed, conv.ID, SubscribePayload{ConversationID: conv.ID})

	case EventTypeUnsubscribe:
		var p SubscribePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid conversation.unsubscribe payload")
			return
		}
		c.Unsubscribe(p.ConversationID)

	case EventTypeTypingStart, EventTypeTypingStop:
		if event.ConversationID == "" || !c.IsSubscribed(event.ConversationID) {
			c.sendError("INVALID_PAYLOAD", "subscribe to the conversation before sending typing events")
			return
		}
		if event.Type == EventTypeTypingStop {
			return // clients expire typing indicators on their own
		}
		ctx, cancel := context.WithTimeout(context.Background(), lookupWait)
		c.hub.HandleTyping(ctx, c, event.ConversationID)
		cancel()

	case EventTypePing:
		c.sendEvent(EventTypePong, "", nil)

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) sendEvent(eventType, conversationID string, payload any) {
	evt := &Event{Type: eventType, ConversationID: conversationID, Timestamp: time.Now().Unix()}
	if payload != nil {
		var err error
		if evt, err = NewEvent(eventType, conversationID, payload); err != nil {
			return
		}
	}
	data := encode(evt)
	if data == nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(code, message string) {
	c.sendEvent(EventTypeError, "", ErrorPayload{Code: code, Message: message})
}
