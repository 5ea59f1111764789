package service

import (
	"context"
	"errors"
	"time"

	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/observability"
	"github.com/vedran77/dmcore/internal/repository"
	apperr "github.com/vedran77/dmcore/pkg/errors"
	"github.com/vedran77/dmcore/pkg/validator"
)

type ConversationService struct {
	dmRepo    repository.DMRepository
	directory Directory
	notifier  Notifier
	now       func() time.Time
}

func NewConversationService(dmRepo repository.DMRepository, directory Directory) *ConversationService {
	return &ConversationService{
		dmRepo:    dmRepo,
		directory: directory,
		notifier:  nopNotifier{},
		now:       time.Now,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *ConversationService) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	s.notifier = n
}

// ConversationView is a conversation as seen by one participant.
type ConversationView struct {
	domain.Conversation
	Counterpart domain.Counterpart `json:"counterpart"`
	BlockedByMe bool               `json:"blocked_by_me"`
}

// GetOrCreateConversation returns the conversation between a and b, creating
// it on first contact. Snapshots of an existing conversation are kept as is.
func (s *ConversationService) GetOrCreateConversation(ctx context.Context, a, b domain.Contact) (*domain.Conversation, bool, error) {
	if validator.ValidateEmail(a.Email) != nil || validator.ValidateEmail(b.Email) != nil {
		return nil, false, apperr.ErrMissingEmail
	}
	ia, ib := domain.CanonicalIdentity(a.Email), domain.CanonicalIdentity(b.Email)
	if ia == ib {
		return nil, false, apperr.ErrCannotMessageSelf
	}

	existing, err := s.dmRepo.GetConversation(ctx, domain.ConversationKey(ia, ib))
	if err != nil {
		return nil, false, apperr.Transient("get conversation", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	conv := domain.NewConversation(a, b, ia, s.now().UTC())
	if err := conv.Validate(); err != nil {
		return nil, false, apperr.InvalidParticipant(err.Error())
	}
	stored, created, err := s.dmRepo.CreateConversation(ctx, conv)
	if err != nil {
		return nil, false, apperr.Transient("create conversation", err)
	}
	if created {
		observability.LoggerFromContext(ctx).Info().
			Str("conversation_id", stored.ID).
			Msg("conversation created")
		s.notifier.NotifyConversationUpdated(stored.Clone())
	}
	return stored, created, nil
}

// StartConversation opens a conversation from requester with a contact in
// requester's directory.
func (s *ConversationService) StartConversation(ctx context.Context, requester, otherEmail string) (*ConversationView, bool, error) {
	requester = domain.CanonicalIdentity(requester)
	if validator.ValidateEmail(otherEmail) != nil {
		return nil, false, apperr.ErrMissingEmail
	}
	otherEmail = domain.CanonicalIdentity(otherEmail)
	if otherEmail == requester {
		return nil, false, apperr.ErrCannotMessageSelf
	}

	self, err := s.directory.LookupContact(ctx, requester, requester)
	if err != nil {
		return nil, false, apperr.Transient("lookup self", err)
	}
	if self == nil {
		self = &domain.Contact{Email: requester}
	}
	other, err := s.directory.LookupContact(ctx, requester, otherEmail)
	if err != nil {
		return nil, false, apperr.Transient("lookup contact", err)
	}
	if other == nil {
		return nil, false, apperr.ErrUnknownContact
	}
	if other.Email == "" {
		other.Email = otherEmail
	}

	conv, created, err := s.GetOrCreateConversation(ctx, *self, *other)
	if err != nil {
		return nil, false, err
	}
	view := s.viewFor(ctx, conv, requester)
	return &view, created, nil
}

// ListConversations returns viewer's conversations, most recent first.
func (s *ConversationService) ListConversations(ctx context.Context, viewer string) ([]ConversationView, error) {
	viewer = domain.CanonicalIdentity(viewer)
	convs, err := s.dmRepo.ListConversations(ctx, viewer)
	if err != nil {
		return nil, apperr.Transient("list conversations", err)
	}
	views := make([]ConversationView, 0, len(convs))
	for i := range convs {
		views = append(views, s.viewFor(ctx, &convs[i], viewer))
	}
	return views, nil
}

func (s *ConversationService) GetConversation(ctx context.Context, viewer, id string) (*ConversationView, error) {
	viewer = domain.CanonicalIdentity(viewer)
	conv, err := s.load(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	view := s.viewFor(ctx, conv, viewer)
	return &view, nil
}

// DeleteConversation removes the conversation and all of its messages.
// Deleting a conversation that no longer exists succeeds.
func (s *ConversationService) DeleteConversation(ctx context.Context, requester, id string) error {
	requester = domain.CanonicalIdentity(requester)
	conv, err := s.dmRepo.GetConversation(ctx, id)
	if err != nil {
		return apperr.Transient("get conversation", err)
	}
	if conv == nil {
		return nil
	}
	if !conv.IsParticipant(requester) {
		return apperr.ErrNotParticipant
	}
	return s.remove(ctx, conv)
}

// PurgeConversation is DeleteConversation without the participant check.
func (s *ConversationService) PurgeConversation(ctx context.Context, id string) error {
	conv, err := s.dmRepo.GetConversation(ctx, id)
	if err != nil {
		return apperr.Transient("get conversation", err)
	}
	if conv == nil {
		return nil
	}
	return s.remove(ctx, conv)
}

func (s *ConversationService) remove(ctx context.Context, conv *domain.Conversation) error {
	deleted, err := s.dmRepo.DeleteConversation(ctx, conv.ID)
	if err != nil {
		return apperr.Transient("delete conversation", err)
	}
	if deleted {
		s.notifier.NotifyConversationDeleted(conv)
	}
	return nil
}

// Block hides the counterpart from actor. Only actor's view changes; the
// blocked participant is not notified.
func (s *ConversationService) Block(ctx context.Context, actor, id string) (*ConversationView, error) {
	return s.updateBlock(ctx, actor, id, (*domain.Conversation).Block)
}

func (s *ConversationService) Unblock(ctx context.Context, actor, id string) (*ConversationView, error) {
	return s.updateBlock(ctx, actor, id, (*domain.Conversation).Unblock)
}

func (s *ConversationService) updateBlock(ctx context.Context, actor, id string, apply func(*domain.Conversation, string) error) (*ConversationView, error) {
	actor = domain.CanonicalIdentity(actor)
	var updated *domain.Conversation
	err := s.dmRepo.WithConversation(ctx, id, func(tx repository.DMTx) error {
		conv := tx.Conversation()
		if err := apply(conv, actor); err != nil {
			return err
		}
		// Unread counters are left alone; a change here would be observable
		// by the blocked participant.
		if err := tx.SaveConversation(ctx); err != nil {
			return err
		}
		updated = conv.Clone()
		return nil
	})
	if err != nil {
		return nil, mapStoreError("update block", err)
	}
	view := s.viewFor(ctx, updated, actor)
	return &view, nil
}

func (s *ConversationService) load(ctx context.Context, viewer, id string) (*domain.Conversation, error) {
	conv, err := s.dmRepo.GetConversation(ctx, id)
	if err != nil {
		return nil, apperr.Transient("get conversation", err)
	}
	if conv == nil {
		return nil, apperr.ErrConversationNotFound
	}
	if !conv.IsParticipant(viewer) {
		return nil, apperr.ErrNotParticipant
	}
	return conv, nil
}

func (s *ConversationService) viewFor(ctx context.Context, conv *domain.Conversation, viewer string) ConversationView {
	other := conv.Counterpart(viewer)
	view := ConversationView{
		Conversation: *conv,
		Counterpart:  ResolveDisplayIdentity(ctx, conv, viewer, s.directory),
		BlockedByMe:  conv.HasBlocked(viewer, other),
	}
	// The counterpart's counter is withheld: it stops moving while they
	// block the viewer.
	view.UnreadBy = map[string]int{viewer: conv.UnreadBy[viewer]}
	return view
}

// ResolveDisplayIdentity resolves the counterpart of viewer. Full profile
// data is only disclosed when the counterpart is in viewer's own directory.
func ResolveDisplayIdentity(ctx context.Context, conv *domain.Conversation, viewer string, directory Directory) domain.Counterpart {
	other := conv.Counterpart(viewer)
	redacted := domain.Counterpart{
		Contact: domain.Contact{
			DisplayName: domain.UnknownDisplayName,
			Email:       other,
		},
	}
	if snap, ok := conv.ParticipantSnapshot[other]; ok && snap.Email != "" {
		redacted.Email = snap.Email
	}
	if other == "" || directory == nil {
		return redacted
	}

	contact, err := directory.LookupContact(ctx, viewer, other)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("conversation_id", conv.ID).
			Msg("directory lookup failed, showing redacted counterpart")
		return redacted
	}
	if contact == nil {
		return redacted
	}
	c := *contact
	if c.Email == "" {
		c.Email = redacted.Email
	}
	if c.DisplayName == "" {
		c.DisplayName = c.Email
	}
	return domain.Counterpart{Contact: c, Known: true}
}

// mapStoreError converts repository and domain errors to application errors.
func mapStoreError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrConversationNotFound):
		return apperr.ErrConversationNotFound
	case errors.Is(err, domain.ErrNotParticipant):
		return apperr.ErrNotParticipant
	case errors.Is(err, domain.ErrMalformedConversation):
		return apperr.Inconsistent(op, err)
	}
	return apperr.Transient(op, err)
}
