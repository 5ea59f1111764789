package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/repository/memory"
	"github.com/vedran77/dmcore/internal/service"
)

const (
	ana = "ana@acme.io"
	bo  = "bo@acme.io"
	cy  = "cy@acme.io"
)

type fixture struct {
	ctx   context.Context
	store *memory.DMStore
	dir   *service.RepoDirectory
	convs *service.ConversationService
	msgs  *service.MessageService
}

// newFixture seeds a directory where ana and bo know each other and ana
// also knows cy. cy does not know ana.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewDMStore()
	dir := service.NewRepoDirectory(memory.NewContactStore())

	seed := []struct {
		owner   string
		contact domain.Contact
	}{
		{ana, domain.Contact{DisplayName: "Ana", Email: ana, Role: "owner"}},
		{bo, domain.Contact{DisplayName: "Bo", Email: bo}},
		{ana, domain.Contact{DisplayName: "Bo Builder", Email: bo, Phone: "+385 1 555"}},
		{bo, domain.Contact{DisplayName: "Ana (boss)", Email: ana}},
		{ana, domain.Contact{DisplayName: "Cy", Email: cy}},
	}
	for _, s := range seed {
		require.NoError(t, dir.AddContact(ctx, s.owner, s.contact))
	}

	return &fixture{
		ctx:   ctx,
		store: store,
		dir:   dir,
		convs: service.NewConversationService(store, dir),
		msgs:  service.NewMessageService(store),
	}
}

func (f *fixture) open(t *testing.T, requester, other string) *service.ConversationView {
	t.Helper()
	view, _, err := f.convs.StartConversation(f.ctx, requester, other)
	require.NoError(t, err)
	return view
}

func (f *fixture) send(t *testing.T, convID, sender, content string) *domain.Message {
	t.Helper()
	msg, err := f.msgs.Send(f.ctx, service.SendInput{ConversationID: convID, SenderID: sender, Content: content})
	require.NoError(t, err)
	return msg
}

func (f *fixture) conversation(t *testing.T, id string) *domain.Conversation {
	t.Helper()
	conv, err := f.store.GetConversation(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, conv)
	return conv
}
