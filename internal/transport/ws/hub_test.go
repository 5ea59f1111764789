package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/dmcore/internal/auth"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/repository/memory"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	ana = "ana@acme.io"
	bo  = "bo@acme.io"
	cy  = "cy@acme.io"
)

type wsEnv struct {
	hub      *Hub
	notifier *HubNotifier
	srv      *httptest.Server
	tokens   *auth.Tokens
	conv     *domain.Conversation
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()
	store := memory.NewDMStore()
	conv, _, err := store.CreateConversation(context.Background(), domain.NewConversation(
		domain.Contact{Email: ana}, domain.Contact{Email: bo}, ana, time.Now(),
	))
	require.NoError(t, err)

	hub := NewHub(store)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	tokens := auth.NewTokens("test-secret")
	srv := httptest.NewServer(ServeWS(hub, tokens, nil))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &wsEnv{hub: hub, notifier: NewHubNotifier(hub), srv: srv, tokens: tokens, conv: conv}
}

func (e *wsEnv) dial(t *testing.T, identity string) *websocket.Conn {
	t.Helper()
	tok, err := e.tokens.Issue(identity, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "?token=" + tok
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	require.Eventually(t, func() bool { return e.hub.IsOnline(identity) }, 2*time.Second, 5*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var evt Event
	require.NoError(t, wsjson.Read(ctx, conn, &evt))
	return evt
}

func subscribe(t *testing.T, conn *websocket.Conn, conversationID string) Event {
	t.Helper()
	payload, _ := json.Marshal(SubscribePayload{ConversationID: conversationID})
	require.NoError(t, wsjson.Write(context.Background(), conn, Event{Type: EventTypeSubscribe, Payload: payload}))
	return readEvent(t, conn)
}

func newMessage(conv *domain.Conversation, sender, content string) *domain.Message {
	id, _ := uuid.NewV7()
	return &domain.Message{ID: id, ConversationID: conv.ID, SenderID: sender, Content: content, CreatedAt: time.Now(), ReadBy: []string{sender}}
}

func TestSubscribedClientReceivesMessages(t *testing.T) {
	e := newWSEnv(t)
	conn := e.dial(t, bo)

	ack := subscribe(t, conn, e.conv.ID)
	require.Equal(t, EventTypeSubscribed, ack.Type)

	conv := e.conv.Clone()
	conv.OnSend(ana)
	e.notifier.NotifyNewMessage(conv, newMessage(conv, ana, "hello"))

	evt := readEvent(t, conn)
	require.Equal(t, EventTypeMessageNew, evt.Type)
	var msg MessagePayload
	require.NoError(t, json.Unmarshal(evt.Payload, &msg))
	assert.Equal(t, "hello", msg.Content)

	evt = readEvent(t, conn)
	require.Equal(t, EventTypeConversationUpdated, evt.Type)
	var row ConversationPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &row))
	assert.Equal(t, 1, row.Unread)
}

func TestSubscribeRequiresMembership(t *testing.T) {
	e := newWSEnv(t)
	conn := e.dial(t, cy)

	evt := subscribe(t, conn, e.conv.ID)
	require.Equal(t, EventTypeError, evt.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &p))
	assert.Equal(t, "NOT_FOUND", p.Code)

	evt = subscribe(t, conn, "dm_missing")
	require.Equal(t, EventTypeError, evt.Type)
}

func TestHiddenMessagesAreFiltered(t *testing.T) {
	e := newWSEnv(t)
	conn := e.dial(t, bo)
	subscribe(t, conn, e.conv.ID)

	conv := e.conv.Clone()
	require.NoError(t, conv.Block(bo))
	e.notifier.NotifyNewMessage(conv, newMessage(conv, ana, "landed during block"))

	// Only the list update arrives.
	evt := readEvent(t, conn)
	assert.Equal(t, EventTypeConversationUpdated, evt.Type)
}

func TestOwnMessageReachesOnlySender(t *testing.T) {
	e := newWSEnv(t)
	sender := e.dial(t, ana)
	blocker := e.dial(t, bo)
	subscribe(t, sender, e.conv.ID)
	subscribe(t, blocker, e.conv.ID)

	conv := e.conv.Clone()
	require.NoError(t, conv.Block(bo))
	msg := newMessage(conv, ana, "anyone?")
	conv.SetPreview(msg)
	e.notifier.NotifyOwnMessage(conv, msg)

	evt := readEvent(t, sender)
	require.Equal(t, EventTypeMessageNew, evt.Type)
	evt = readEvent(t, sender)
	require.Equal(t, EventTypeConversationUpdated, evt.Type)
	var row ConversationPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &row))
	assert.Equal(t, "anyone?", row.LastMessagePreview)

	// The next thing the blocker sees is the reply to its own ping.
	require.NoError(t, wsjson.Write(context.Background(), blocker, Event{Type: EventTypePing}))
	assert.Equal(t, EventTypePong, readEvent(t, blocker).Type)
}

func TestConversationDeletedEndsSubscription(t *testing.T) {
	e := newWSEnv(t)
	conn := e.dial(t, ana)
	subscribe(t, conn, e.conv.ID)

	e.notifier.NotifyConversationDeleted(e.conv)
	evt := readEvent(t, conn)
	require.Equal(t, EventTypeConversationDeleted, evt.Type)

	e.notifier.NotifyDeletedMessages(e.conv, []uuid.UUID{uuid.New()})
	require.NoError(t, wsjson.Write(context.Background(), conn, Event{Type: EventTypePing}))
	assert.Equal(t, EventTypePong, readEvent(t, conn).Type)
}

func TestTypingReachesCounterpart(t *testing.T) {
	e := newWSEnv(t)
	anaConn := e.dial(t, ana)
	boConn := e.dial(t, bo)
	subscribe(t, anaConn, e.conv.ID)
	subscribe(t, boConn, e.conv.ID)

	require.NoError(t, wsjson.Write(context.Background(), anaConn, Event{Type: EventTypeTypingStart, ConversationID: e.conv.ID}))

	evt := readEvent(t, boConn)
	require.Equal(t, EventTypeTyping, evt.Type)
	var p TypingPayload
	require.NoError(t, json.Unmarshal(evt.Payload, &p))
	assert.Equal(t, ana, p.Identity)
}

func TestPresence(t *testing.T) {
	e := newWSEnv(t)
	assert.False(t, e.hub.IsOnline(ana))

	conn := e.dial(t, ana)
	assert.True(t, e.hub.IsOnline("ANA@acme.io"))

	conn.Close(websocket.StatusNormalClosure, "")
	assert.Eventually(t, func() bool { return !e.hub.IsOnline(ana) }, 2*time.Second, 5*time.Millisecond)
}

func TestServeWSRejectsBadToken(t *testing.T) {
	e := newWSEnv(t)

	resp, err := http.Get(e.srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(e.srv.URL + "?token=garbage")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
