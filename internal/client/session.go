package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/service"
	"github.com/vedran77/dmcore/internal/timeline"
	"github.com/vedran77/dmcore/internal/transport/ws"
)

const historyPage = 50

// Session is one open conversation: the local timeline plus the API calls
// that feed it.
type Session struct {
	api      *Client
	identity string
	conv     *service.ConversationView
	timeline *timeline.Timeline
	now      func() time.Time
}

func NewSession(api *Client, identity string, conv *service.ConversationView) *Session {
	return &Session{
		api:      api,
		identity: domain.CanonicalIdentity(identity),
		conv:     conv,
		timeline: timeline.New(),
		now:      time.Now,
	}
}

// Load replaces the timeline with the newest page of history.
func (s *Session) Load(ctx context.Context) error {
	page, err := s.api.ListMessages(ctx, s.conv.ID, nil, historyPage)
	if err != nil {
		return err
	}
	s.timeline.Clear()
	for _, m := range page.Messages {
		s.timeline.Apply(m)
	}
	return nil
}

// Send shows the message locally at once and confirms it with the server.
// On failure the entry stays in the timeline, marked failed, under the
// returned client id.
func (s *Session) Send(ctx context.Context, content string) (string, error) {
	now := s.now().UTC()
	draft := domain.Message{
		ClientID:       "tmp-" + uuid.NewString(),
		ConversationID: s.conv.ID,
		SenderID:       s.identity,
		Content:        content,
		CreatedAt:      now,
		SentAt:         &now,
		ReadBy:         []string{s.identity},
	}
	s.timeline.AddPending(draft)
	return draft.ClientID, s.deliver(ctx, draft)
}

// Retry resends a failed message with its original client id, so a send
// that did reach the server is not stored twice.
func (s *Session) Retry(ctx context.Context, clientID string) error {
	draft, ok := s.timeline.Retry(clientID)
	if !ok {
		return errors.Errorf("no failed message %s", clientID)
	}
	return s.deliver(ctx, draft)
}

func (s *Session) deliver(ctx context.Context, draft domain.Message) error {
	stored, err := s.api.Send(ctx, s.conv.ID, SendRequest{
		Content:  draft.Content,
		ClientID: draft.ClientID,
		SentAt:   draft.SentAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		s.timeline.Fail(draft.ClientID)
		return err
	}
	s.timeline.Confirm(draft.ClientID, *stored)
	return nil
}

func (s *Session) MarkRead(ctx context.Context) (int, error) {
	ids, err := s.api.MarkRead(ctx, s.conv.ID)
	return len(ids), err
}

// Handle applies a subscription event. It reports whether the timeline
// changed.
func (s *Session) Handle(evt *ws.Event) (bool, error) {
	if evt.ConversationID != s.conv.ID {
		return false, nil
	}
	switch evt.Type {
	case ws.EventTypeMessageNew, ws.EventTypeMessageEdited:
		var p ws.MessagePayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return false, errors.Wrap(err, "decode message event")
		}
		s.timeline.Apply(p.Message)
		return true, nil

	case ws.EventTypeMessageDeleted:
		var p ws.MessagesDeletedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return false, errors.Wrap(err, "decode delete event")
		}
		s.timeline.Remove(p.IDs...)
		return true, nil

	case ws.EventTypeConversationDeleted:
		s.timeline.Clear()
		return true, nil
	}
	return false, nil
}

func (s *Session) Entries() []timeline.Entry {
	return s.timeline.Messages()
}
