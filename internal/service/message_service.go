package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/observability"
	"github.com/vedran77/dmcore/internal/repository"
	apperr "github.com/vedran77/dmcore/pkg/errors"
	"github.com/vedran77/dmcore/pkg/validator"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// errSuppressed rolls back a send the recipient has blocked.
var errSuppressed = errors.New("send suppressed")

type MessageService struct {
	dmRepo   repository.DMRepository
	notifier Notifier
	now      func() time.Time
	newID    func() (uuid.UUID, error)

	// suppressed remembers sends that were dropped because the recipient
	// blocked the sender, so retries with the same client id return the
	// same message, as they would for a stored one.
	suppressed *draftCache
}

func NewMessageService(dmRepo repository.DMRepository) *MessageService {
	return &MessageService{
		dmRepo:   dmRepo,
		notifier: nopNotifier{},
		now:      time.Now,
		newID:    uuid.NewV7,

		suppressed: newDraftCache(suppressedCacheSize),
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	s.notifier = n
}

type SendInput struct {
	ConversationID string
	SenderID       string
	Content        string
	Media          []validator.AttachmentInput
	ReplyToID      *uuid.UUID
	// ClientID is the client's temporary id. Retries with the same value
	// return the stored message instead of creating a new one.
	ClientID string
	SentAt   *time.Time
}

type MessageListResponse struct {
	Messages []domain.Message `json:"messages"`
	HasMore  bool             `json:"has_more"`
}

// ItemResult is the outcome of one item of a bulk operation.
type ItemResult struct {
	ID      uuid.UUID
	Message *domain.Message
	Err     error
}

func (s *MessageService) Send(ctx context.Context, in SendInput) (*domain.Message, error) {
	if strings.TrimSpace(in.Content) == "" && len(in.Media) == 0 {
		return nil, apperr.ErrEmptyMessage
	}
	if errs := validator.ValidateMessage(in.Content, in.Media); errs.HasErrors() {
		return nil, firstValidationError(errs)
	}
	media := make([]domain.Attachment, 0, len(in.Media))
	for _, m := range in.Media {
		media = append(media, domain.Attachment{
			Kind:            domain.ParseMediaKind(m.Type, m.MimeType),
			URL:             m.URL,
			Name:            m.Name,
			Size:            m.Size,
			DurationSeconds: m.Duration,
		})
	}

	draft := &domain.Message{
		ClientID:       strings.TrimSpace(in.ClientID),
		ConversationID: in.ConversationID,
		SenderID:       domain.CanonicalIdentity(in.SenderID),
		Content:        in.Content,
		Media:          media,
		SentAt:         in.SentAt,
	}
	return s.send(ctx, draft, in.ReplyToID)
}

func (s *MessageService) send(ctx context.Context, draft *domain.Message, replyTo *uuid.UUID) (*domain.Message, error) {
	id, err := s.newID()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "generate message id", err)
	}
	draft.ID = id
	draft.CreatedAt = s.now().UTC()
	draft.ReadBy = []string{draft.SenderID}
	if draft.Media == nil {
		draft.Media = []domain.Attachment{}
	}

	msg := draft
	var conv *domain.Conversation
	duplicate, suppressed := false, false
	err = s.dmRepo.WithConversation(ctx, draft.ConversationID, func(tx repository.DMTx) error {
		c := tx.Conversation()
		if !c.IsParticipant(draft.SenderID) {
			return apperr.ErrNotParticipant
		}
		decision := c.SendDecision(draft.SenderID)
		if decision == domain.SendRejectedBlocker {
			return apperr.ErrYouBlocked
		}

		// Everything the sender can observe runs the same way whether or not
		// the recipient has blocked them.
		if draft.ClientID != "" {
			existing, err := tx.MessageByClientID(ctx, draft.ClientID)
			if err != nil {
				return err
			}
			if existing == nil && decision == domain.SendSuppressed {
				existing = s.suppressed.get(draft)
			}
			if existing != nil {
				msg, duplicate = existing, true
				return nil
			}
		}

		if replyTo != nil {
			quoted, err := tx.Message(ctx, *replyTo)
			if err != nil {
				return err
			}
			if quoted == nil || !c.VisibleTo(draft.SenderID, quoted) {
				return apperr.ErrMessageNotFound
			}
			draft.ReplyTo = &domain.ReplyRef{
				ID:             quoted.ID,
				SenderName:     senderName(quoted),
				ContentSnippet: quoted.PreviewText(),
			}
		}

		if decision == domain.SendSuppressed {
			// The sender's row as it would look had the message landed.
			conv = c.Clone()
			conv.OnSend(draft.SenderID)
			conv.SetPreview(draft)
			suppressed = true
			return errSuppressed
		}

		if err := tx.InsertMessage(ctx, draft); err != nil {
			return err
		}
		c.OnSend(draft.SenderID)
		c.SetPreview(draft)
		if err := tx.SaveConversation(ctx); err != nil {
			return err
		}
		conv = c.Clone()
		return nil
	})
	if errors.Is(err, errSuppressed) {
		err = nil
	}
	if err != nil {
		return nil, mapStoreError("send message", err)
	}
	switch {
	case duplicate:
	case suppressed:
		// Nothing was stored. The sender still gets the echo a delivered
		// message would produce; the recipient gets nothing.
		cached, fresh := s.suppressed.put(draft)
		if !fresh {
			return cached, nil
		}
		s.notifier.NotifyOwnMessage(conv, msg)
	default:
		s.notifier.NotifyNewMessage(conv, msg)
	}
	return msg, nil
}

// PostSystemMessage appends a system notice. It bypasses blocking and does
// not count as unread for anyone.
func (s *MessageService) PostSystemMessage(ctx context.Context, conversationID, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.ErrEmptyMessage
	}
	id, err := s.newID()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "generate message id", err)
	}
	msg := &domain.Message{
		ID:             id,
		ConversationID: conversationID,
		Content:        content,
		Media:          []domain.Attachment{},
		CreatedAt:      s.now().UTC(),
		ReadBy:         []string{},
		IsSystem:       true,
	}

	var conv *domain.Conversation
	err = s.dmRepo.WithConversation(ctx, conversationID, func(tx repository.DMTx) error {
		if err := tx.InsertMessage(ctx, msg); err != nil {
			return err
		}
		c := tx.Conversation()
		c.SetPreview(msg)
		if err := tx.SaveConversation(ctx); err != nil {
			return err
		}
		conv = c.Clone()
		return nil
	})
	if err != nil {
		return nil, mapStoreError("post system message", err)
	}
	s.notifier.NotifyNewMessage(conv, msg)
	return msg, nil
}

func (s *MessageService) Edit(ctx context.Context, editor, conversationID string, messageID uuid.UUID, content string) (*domain.Message, error) {
	editor = domain.CanonicalIdentity(editor)
	var (
		updated *domain.Message
		conv    *domain.Conversation
	)
	err := s.dmRepo.WithConversation(ctx, conversationID, func(tx repository.DMTx) error {
		c := tx.Conversation()
		if !c.IsParticipant(editor) {
			return apperr.ErrNotParticipant
		}
		msg, err := tx.Message(ctx, messageID)
		if err != nil {
			return err
		}
		if msg == nil {
			return apperr.ErrMessageNotFound
		}
		if msg.IsSystem {
			return apperr.ErrSystemMessage
		}
		if msg.SenderID != editor {
			return apperr.ErrNotMessageOwner
		}
		if strings.TrimSpace(content) == "" && len(msg.Media) == 0 {
			return apperr.ErrEmptyMessage
		}
		if errs := validator.ValidateMessage(content, mediaInputs(msg.Media)); errs.HasErrors() {
			return firstValidationError(errs)
		}

		msg.Content = content
		msg.Edited = true
		if err := tx.UpdateMessage(ctx, msg); err != nil {
			return err
		}

		msgs, err := tx.Messages(ctx)
		if err != nil {
			return err
		}
		domain.SortMessages(msgs)
		if last := msgs[len(msgs)-1]; last.ID == msg.ID {
			c.SetPreview(msg)
			if err := tx.SaveConversation(ctx); err != nil {
				return err
			}
		}
		updated, conv = msg, c.Clone()
		return nil
	})
	if err != nil {
		return nil, mapStoreError("edit message", err)
	}
	s.notifier.NotifyEditedMessage(conv, updated)
	return updated, nil
}

// MarkRead marks every message reader can see as read and resets reader's
// unread counter. It returns the ids that changed.
func (s *MessageService) MarkRead(ctx context.Context, conversationID, reader string) ([]uuid.UUID, error) {
	reader = domain.CanonicalIdentity(reader)
	var (
		marked []uuid.UUID
		conv   *domain.Conversation
	)
	err := s.dmRepo.WithConversation(ctx, conversationID, func(tx repository.DMTx) error {
		c := tx.Conversation()
		if !c.IsParticipant(reader) {
			return apperr.ErrNotParticipant
		}
		msgs, err := tx.Messages(ctx)
		if err != nil {
			return err
		}
		for i := range msgs {
			m := &msgs[i]
			if m.SenderID == reader || !c.VisibleTo(reader, m) {
				continue
			}
			if !m.MarkReadBy(reader) {
				continue
			}
			if err := tx.UpdateMessage(ctx, m); err != nil {
				return err
			}
			marked = append(marked, m.ID)
		}
		c.OnRead(reader)
		if err := tx.SaveConversation(ctx); err != nil {
			return err
		}
		conv = c.Clone()
		return nil
	})
	if err != nil {
		return nil, mapStoreError("mark read", err)
	}
	if len(marked) > 0 {
		s.notifier.NotifyMessagesRead(conv, reader, marked)
	}
	s.notifier.NotifyConversationUpdated(conv)
	return marked, nil
}

func (s *MessageService) DeleteMessage(ctx context.Context, actor, conversationID string, messageID uuid.UUID) error {
	return s.deleteOne(ctx, domain.CanonicalIdentity(actor), conversationID, messageID)
}

// DeleteMessages deletes each id in its own transaction. A failure on one
// item does not affect the others.
func (s *MessageService) DeleteMessages(ctx context.Context, actor, conversationID string, ids []uuid.UUID) []ItemResult {
	actor = domain.CanonicalIdentity(actor)
	results := make([]ItemResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, ItemResult{ID: id, Err: s.deleteOne(ctx, actor, conversationID, id)})
	}
	return results
}

func (s *MessageService) deleteOne(ctx context.Context, actor, conversationID string, messageID uuid.UUID) error {
	var (
		removed []domain.Message
		conv    *domain.Conversation
	)
	err := s.dmRepo.WithConversation(ctx, conversationID, func(tx repository.DMTx) error {
		c := tx.Conversation()
		if !c.IsParticipant(actor) {
			return apperr.ErrNotParticipant
		}
		msg, err := tx.Message(ctx, messageID)
		if err != nil {
			return err
		}
		if msg == nil {
			return nil
		}
		if msg.IsSystem {
			return apperr.ErrSystemMessage
		}
		if msg.SenderID != actor {
			return apperr.ErrNotMessageOwner
		}

		removed, err = tx.DeleteMessages(ctx, []uuid.UUID{messageID})
		if err != nil {
			return err
		}
		remaining, err := tx.Messages(ctx)
		if err != nil {
			return err
		}
		if err := c.OnDelete(removed); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(apperr.Inconsistent("unread counter underflow", err)).
				Str("conversation_id", c.ID).
				Msg("recomputing unread counters")
			c.RecomputeUnread(remaining)
		}

		domain.SortMessages(remaining)
		if len(remaining) == 0 {
			c.ClearPreview()
		} else {
			c.SetPreview(&remaining[len(remaining)-1])
		}
		if err := tx.SaveConversation(ctx); err != nil {
			return err
		}
		conv = c.Clone()
		return nil
	})
	if errors.Is(err, repository.ErrConversationNotFound) {
		return nil
	}
	if err != nil {
		return mapStoreError("delete message", err)
	}
	if len(removed) > 0 {
		ids := make([]uuid.UUID, 0, len(removed))
		for _, m := range removed {
			ids = append(ids, m.ID)
		}
		s.notifier.NotifyDeletedMessages(conv, ids)
		s.notifier.NotifyConversationUpdated(conv)
	}
	return nil
}

// Forward copies messages from source into target as new messages sent by
// actor. The source conversation is not modified.
func (s *MessageService) Forward(ctx context.Context, actor, sourceID string, ids []uuid.UUID, targetID string) ([]ItemResult, error) {
	actor = domain.CanonicalIdentity(actor)
	source, err := s.dmRepo.GetConversation(ctx, sourceID)
	if err != nil {
		return nil, apperr.Transient("get conversation", err)
	}
	if source == nil {
		return nil, apperr.ErrConversationNotFound
	}
	if !source.IsParticipant(actor) {
		return nil, apperr.ErrNotParticipant
	}

	results := make([]ItemResult, 0, len(ids))
	for _, id := range ids {
		res := ItemResult{ID: id}
		src, err := s.dmRepo.GetMessage(ctx, id)
		switch {
		case err != nil:
			res.Err = apperr.Transient("get message", err)
		case src == nil || src.ConversationID != sourceID || !source.VisibleTo(actor, src):
			res.Err = apperr.ErrMessageNotFound
		case src.IsSystem:
			res.Err = apperr.ErrSystemMessage
		default:
			origin := src.SenderID
			if src.Forwarded != nil && src.Forwarded.OriginalSender != "" {
				origin = src.Forwarded.OriginalSender
			}
			res.Message, res.Err = s.send(ctx, &domain.Message{
				ConversationID: targetID,
				SenderID:       actor,
				Content:        src.Content,
				Media:          slices.Clone(src.Media),
				Forwarded:      &domain.ForwardRef{OriginalSender: origin},
			}, nil)
		}
		results = append(results, res)
	}
	return results, nil
}

// ListMessages returns the newest page of messages visible to viewer, older
// than before when set. Messages are in chronological order.
func (s *MessageService) ListMessages(ctx context.Context, viewer, conversationID string, before *uuid.UUID, limit int) (*MessageListResponse, error) {
	viewer = domain.CanonicalIdentity(viewer)
	conv, err := s.dmRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, apperr.Transient("get conversation", err)
	}
	if conv == nil {
		return nil, apperr.ErrConversationNotFound
	}
	if !conv.IsParticipant(viewer) {
		return nil, apperr.ErrNotParticipant
	}

	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	all, err := s.dmRepo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, apperr.Transient("list messages", err)
	}
	messages := make([]domain.Message, 0, len(all))
	for i := range all {
		if conv.VisibleTo(viewer, &all[i]) {
			messages = append(messages, all[i])
		}
	}
	domain.SortMessages(messages)

	if before != nil {
		idx := slices.IndexFunc(messages, func(m domain.Message) bool { return m.ID == *before })
		if idx < 0 {
			messages = messages[:0]
		} else {
			messages = messages[:idx]
		}
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[len(messages)-limit:]
	}

	return &MessageListResponse{
		Messages: messages,
		HasMore:  hasMore,
	}, nil
}

// senderName is the quoted sender's identity. Display names differ per
// viewer directory, so clients resolve them locally.
func senderName(m *domain.Message) string {
	if m.IsSystem {
		return "System"
	}
	return m.SenderID
}

func mediaInputs(media []domain.Attachment) []validator.AttachmentInput {
	out := make([]validator.AttachmentInput, 0, len(media))
	for _, m := range media {
		out = append(out, validator.AttachmentInput{
			Type: string(m.Kind), URL: m.URL, Name: m.Name, Size: m.Size, Duration: m.DurationSeconds,
		})
	}
	return out
}

func firstValidationError(errs validator.ValidationErrors) error {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return apperr.InvalidArg(keys[0] + ": " + errs[keys[0]])
}
