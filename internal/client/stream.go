package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/vedran77/dmcore/internal/transport/ws"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Stream is a live event connection.
type Stream struct {
	conn *websocket.Conn
}

// Connect opens the websocket endpoint of the server at baseURL.
func (c *Client) Connect(ctx context.Context) (*Stream, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse server url")
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {c.token}}.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "dial websocket")
	}
	return &Stream{conn: conn}, nil
}

func (s *Stream) Subscribe(ctx context.Context, conversationID string) error {
	return s.write(ctx, ws.EventTypeSubscribe, conversationID, ws.SubscribePayload{ConversationID: conversationID})
}

func (s *Stream) Typing(ctx context.Context, conversationID string, active bool) error {
	eventType := ws.EventTypeTypingStop
	if active {
		eventType = ws.EventTypeTypingStart
	}
	return s.write(ctx, eventType, conversationID, nil)
}

// Next blocks until the next server event arrives.
func (s *Stream) Next(ctx context.Context) (*ws.Event, error) {
	var evt ws.Event
	if err := wsjson.Read(ctx, s.conn, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

func (s *Stream) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "bye")
}

func (s *Stream) write(ctx context.Context, eventType, conversationID string, payload any) error {
	evt := ws.Event{Type: eventType, ConversationID: conversationID}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		evt.Payload = raw
	}
	return wsjson.Write(ctx, s.conn, evt)
}
