package service

import (
	"context"
	"time"

	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/observability"
)

const alertTimeout = 10 * time.Second

// Alerter decorates a Notifier: after the real-time broadcast it sends an
// alert to recipients without a live session. Only committed, delivered
// messages reach it, so suppressed sends never alert.
type Alerter struct {
	Notifier
	sink      NotificationSink
	presence  Presence
	directory Directory
	dispatch  func(func())
}

func NewAlerter(next Notifier, sink NotificationSink, presence Presence, directory Directory) *Alerter {
	if next == nil {
		next = nopNotifier{}
	}
	return &Alerter{
		Notifier:  next,
		sink:      sink,
		presence:  presence,
		directory: directory,
		dispatch:  func(f func()) { go f() },
	}
}

func (a *Alerter) NotifyNewMessage(conv *domain.Conversation, msg *domain.Message) {
	a.Notifier.NotifyNewMessage(conv, msg)

	if msg.IsSystem {
		return
	}
	recipient := conv.Counterpart(msg.SenderID)
	if recipient == "" || !conv.VisibleTo(recipient, msg) {
		return
	}
	if a.presence != nil && a.presence.IsOnline(recipient) {
		return
	}

	a.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()
		from := ResolveDisplayIdentity(ctx, conv, recipient, a.directory)
		a.sink.Notify(ctx, recipient, Notification{
			Type:      "dm.message",
			Title:     from.DisplayName,
			Message:   msg.PreviewText(),
			ActionRef: "conversation:" + conv.ID,
		})
	})
}

// LogSink writes alerts to the structured log. It is the default sink when
// no push or email provider is configured.
type LogSink struct{}

func (LogSink) Notify(ctx context.Context, identity string, n Notification) {
	observability.LoggerFromContext(ctx).Info().
		Str("recipient", identity).
		Str("type", n.Type).
		Str("action_ref", n.ActionRef).
		Msg("offline alert")
}
