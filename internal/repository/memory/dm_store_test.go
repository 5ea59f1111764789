package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/repository"
)

func newConv() *domain.Conversation {
	return domain.NewConversation(
		domain.Contact{DisplayName: "Ana", Email: "ana@acme.io"},
		domain.Contact{DisplayName: "Bo", Email: "bo@acme.io"},
		"ana@acme.io",
		time.Now(),
	)
}

func TestCreateConversationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewDMStore()

	first, created, err := store.CreateConversation(ctx, newConv())
	require.NoError(t, err)
	assert.True(t, created)

	second := newConv()
	second.ParticipantSnapshot["ana@acme.io"] = domain.Contact{DisplayName: "Changed", Email: "ana@acme.io"}
	got, created, err := store.CreateConversation(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Ana", got.ParticipantSnapshot["ana@acme.io"].DisplayName)
}

func TestWithConversationCommitsOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewDMStore()
	conv, _, err := store.CreateConversation(ctx, newConv())
	require.NoError(t, err)

	msg := domain.Message{ID: uuid.New(), ConversationID: conv.ID, SenderID: "ana@acme.io", Content: "hi"}
	boom := errors.New("boom")
	err = store.WithConversation(ctx, conv.ID, func(tx repository.DMTx) error {
		require.NoError(t, tx.InsertMessage(ctx, &msg))
		tx.Conversation().OnSend("ana@acme.io")
		require.NoError(t, tx.SaveConversation(ctx))
		return boom
	})
	require.ErrorIs(t, err, boom)

	msgs, err := store.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	got, err := store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UnreadBy["bo@acme.io"])

	err = store.WithConversation(ctx, conv.ID, func(tx repository.DMTx) error {
		if err := tx.InsertMessage(ctx, &msg); err != nil {
			return err
		}
		tx.Conversation().OnSend("ana@acme.io")
		return tx.SaveConversation(ctx)
	})
	require.NoError(t, err)

	stored, err := store.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "hi", stored.Content)
	got, err = store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UnreadBy["bo@acme.io"])
}

func TestWithConversationMissing(t *testing.T) {
	store := NewDMStore()
	err := store.WithConversation(context.Background(), "dm_missing", func(repository.DMTx) error { return nil })
	assert.ErrorIs(t, err, repository.ErrConversationNotFound)
}

func TestWithConversationSerializesWriters(t *testing.T) {
	ctx := context.Background()
	store := NewDMStore()
	conv, _, err := store.CreateConversation(ctx, newConv())
	require.NoError(t, err)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithConversation(ctx, conv.ID, func(tx repository.DMTx) error {
				tx.Conversation().OnSend("ana@acme.io")
				return tx.SaveConversation(ctx)
			})
		}()
	}
	wg.Wait()

	got, err := store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, writers, got.UnreadBy["bo@acme.io"])
}

func TestDeleteConversationCascades(t *testing.T) {
	ctx := context.Background()
	store := NewDMStore()
	conv, _, err := store.CreateConversation(ctx, newConv())
	require.NoError(t, err)

	msg := domain.Message{ID: uuid.New(), ConversationID: conv.ID, SenderID: "ana@acme.io", Content: "hi"}
	require.NoError(t, store.WithConversation(ctx, conv.ID, func(tx repository.DMTx) error {
		return tx.InsertMessage(ctx, &msg)
	}))

	deleted, err := store.DeleteConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	m, err := store.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Nil(t, m)

	deleted, err = store.DeleteConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	ids, err := store.ListConversationIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListConversationsOrderedByActivity(t *testing.T) {
	ctx := context.Background()
	store := NewDMStore()
	older := newConv()
	newer := domain.NewConversation(
		domain.Contact{Email: "ana@acme.io"},
		domain.Contact{Email: "cy@acme.io"},
		"ana@acme.io",
		time.Now().Add(time.Minute),
	)
	_, _, err := store.CreateConversation(ctx, older)
	require.NoError(t, err)
	_, _, err = store.CreateConversation(ctx, newer)
	require.NoError(t, err)

	list, err := store.ListConversations(ctx, "ana@acme.io")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	list, err = store.ListConversations(ctx, "bo@acme.io")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestContactStore(t *testing.T) {
	ctx := context.Background()
	store := NewContactStore()
	require.NoError(t, store.UpsertContact(ctx, "Ana@acme.io", &domain.Contact{DisplayName: "Bo", Email: "bo@acme.io"}))

	c, err := store.GetContact(ctx, "ana@acme.io", "BO@acme.io")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Bo", c.DisplayName)

	c, err = store.GetContact(ctx, "bo@acme.io", "ana@acme.io")
	require.NoError(t, err)
	assert.Nil(t, c)
}
