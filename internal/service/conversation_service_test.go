package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/repository/memory"
	"github.com/vedran77/dmcore/internal/service"
	"github.com/vedran77/dmcore/internal/service/mocks"
	apperr "github.com/vedran77/dmcore/pkg/errors"
)

func TestStartConversation(t *testing.T) {
	t.Run("same conversation from either side", func(t *testing.T) {
		f := newFixture(t)

		first, created, err := f.convs.StartConversation(f.ctx, ana, bo)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, domain.ConversationKey(ana, bo), first.ID)

		second, created, err := f.convs.StartConversation(f.ctx, "BO@acme.io", ana)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, ana, first.CreatedBy)
	})

	t.Run("first creation notifies once", func(t *testing.T) {
		f := newFixture(t)
		ctrl := gomock.NewController(t)
		notifier := mocks.NewMockNotifier(ctrl)
		f.convs.SetNotifier(notifier)

		notifier.EXPECT().NotifyConversationUpdated(gomock.Any()).Times(1)

		f.open(t, ana, bo)
		f.open(t, ana, bo)
	})

	t.Run("rejects", func(t *testing.T) {
		f := newFixture(t)

		_, _, err := f.convs.StartConversation(f.ctx, ana, " ANA@acme.io ")
		assert.ErrorIs(t, err, apperr.ErrCannotMessageSelf)

		_, _, err = f.convs.StartConversation(f.ctx, ana, "not-an-email")
		assert.ErrorIs(t, err, apperr.ErrMissingEmail)

		_, _, err = f.convs.StartConversation(f.ctx, bo, cy)
		assert.ErrorIs(t, err, apperr.ErrUnknownContact)
		assert.Equal(t, apperr.CodeInvalidParticipant, apperr.CodeOf(err))
	})

	t.Run("directory failure is transient", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		dir := mocks.NewMockDirectory(ctrl)
		dir.EXPECT().LookupContact(gomock.Any(), ana, ana).Return(nil, errors.New("timeout"))

		convs := service.NewConversationService(memory.NewDMStore(), dir)
		_, _, err := convs.StartConversation(context.Background(), ana, bo)
		assert.True(t, apperr.IsRetryable(err))
	})
}

func TestGetOrCreateConversation(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.convs.GetOrCreateConversation(f.ctx, domain.Contact{DisplayName: "No Mail"}, domain.Contact{Email: bo})
	assert.ErrorIs(t, err, apperr.ErrMissingEmail)

	conv, created, err := f.convs.GetOrCreateConversation(f.ctx,
		domain.Contact{DisplayName: "Ana", Email: ana},
		domain.Contact{DisplayName: "Bo", Email: bo})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := f.convs.GetOrCreateConversation(f.ctx,
		domain.Contact{DisplayName: "Renamed", Email: bo},
		domain.Contact{DisplayName: "Ana", Email: ana})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)
	assert.Equal(t, "Bo", again.ParticipantSnapshot[bo].DisplayName)
}

func TestResolveDisplayIdentity(t *testing.T) {
	f := newFixture(t)
	view := f.open(t, ana, cy)

	assert.True(t, view.Counterpart.Known)
	assert.Equal(t, "Cy", view.Counterpart.DisplayName)

	cyView, err := f.convs.GetConversation(f.ctx, cy, view.ID)
	require.NoError(t, err)
	assert.False(t, cyView.Counterpart.Known)
	assert.Equal(t, domain.UnknownDisplayName, cyView.Counterpart.DisplayName)
	assert.Equal(t, ana, cyView.Counterpart.Email)
	assert.Empty(t, cyView.Counterpart.Phone)
	assert.Empty(t, cyView.Counterpart.Role)
}

func TestViewShowsOnlyOwnUnreadCounter(t *testing.T) {
	f := newFixture(t)
	view := f.open(t, ana, bo)
	f.send(t, view.ID, ana, "one")
	f.send(t, view.ID, bo, "two")
	_, err := f.convs.Block(f.ctx, bo, view.ID)
	require.NoError(t, err)
	_, err = f.msgs.MarkRead(f.ctx, view.ID, bo)
	require.NoError(t, err)

	got, err := f.convs.GetConversation(f.ctx, ana, view.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{ana: 1}, got.UnreadBy)

	list, err := f.convs.ListConversations(f.ctx, bo)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, map[string]int{bo: 0}, list[0].UnreadBy)

	// The stored counters are untouched.
	conv := f.conversation(t, view.ID)
	assert.Equal(t, 1, conv.UnreadBy[ana])
}

func TestListConversations(t *testing.T) {
	f := newFixture(t)
	withBo := f.open(t, ana, bo)
	withCy := f.open(t, ana, cy)
	f.send(t, withBo.ID, bo, "latest")

	list, err := f.convs.ListConversations(f.ctx, ana)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, withBo.ID, list[0].ID)
	assert.Equal(t, withCy.ID, list[1].ID)
	assert.Equal(t, "latest", list[0].LastMessagePreview)
	assert.Equal(t, 1, list[0].UnreadBy[ana])
	assert.Equal(t, "Bo Builder", list[0].Counterpart.DisplayName)

	list, err = f.convs.ListConversations(f.ctx, "nobody@acme.io")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetConversationNotParticipant(t *testing.T) {
	f := newFixture(t)
	view := f.open(t, ana, bo)

	_, err := f.convs.GetConversation(f.ctx, cy, view.ID)
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)

	_, err = f.convs.GetConversation(f.ctx, ana, "dm_missing")
	assert.ErrorIs(t, err, apperr.ErrConversationNotFound)
}

func TestBlockIsAsymmetric(t *testing.T) {
	f := newFixture(t)
	view := f.open(t, ana, bo)

	boView, err := f.convs.Block(f.ctx, bo, view.ID)
	require.NoError(t, err)
	assert.True(t, boView.BlockedByMe)

	anaView, err := f.convs.GetConversation(f.ctx, ana, view.ID)
	require.NoError(t, err)
	assert.False(t, anaView.BlockedByMe)

	// Blocking twice is a no-op.
	_, err = f.convs.Block(f.ctx, bo, view.ID)
	require.NoError(t, err)

	// ana cannot lift bo's block.
	_, err = f.convs.Unblock(f.ctx, ana, view.ID)
	require.NoError(t, err)
	assert.True(t, f.conversation(t, view.ID).HasBlocked(bo, ana))

	boView, err = f.convs.Unblock(f.ctx, bo, view.ID)
	require.NoError(t, err)
	assert.False(t, boView.BlockedByMe)

	_, err = f.convs.Block(f.ctx, cy, view.ID)
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)
}

func TestDeleteConversation(t *testing.T) {
	f := newFixture(t)
	view := f.open(t, ana, bo)
	msg := f.send(t, view.ID, ana, "hello")

	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	f.convs.SetNotifier(notifier)

	require.ErrorIs(t, f.convs.DeleteConversation(f.ctx, cy, view.ID), apperr.ErrNotParticipant)

	notifier.EXPECT().NotifyConversationDeleted(gomock.Any()).Times(1)
	require.NoError(t, f.convs.DeleteConversation(f.ctx, bo, view.ID))
	// Already gone.
	require.NoError(t, f.convs.DeleteConversation(f.ctx, bo, view.ID))

	stored, err := f.store.GetMessage(f.ctx, msg.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	_, err = f.msgs.ListMessages(f.ctx, ana, view.ID, nil, 0)
	assert.ErrorIs(t, err, apperr.ErrConversationNotFound)

	// A fresh start yields an empty conversation under the same key.
	notifier.EXPECT().NotifyConversationUpdated(gomock.Any()).Times(1)
	again := f.open(t, bo, ana)
	assert.Equal(t, view.ID, again.ID)
	assert.Empty(t, again.LastMessagePreview)
	assert.Nil(t, again.LastMessageAt)
}

func TestPurgeConversation(t *testing.T) {
	f := newFixture(t)
	view := f.open(t, ana, bo)
	f.send(t, view.ID, ana, "old")

	require.NoError(t, f.convs.PurgeConversation(f.ctx, view.ID))
	require.NoError(t, f.convs.PurgeConversation(f.ctx, view.ID))

	ids, err := f.store.ListConversationIDs(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
