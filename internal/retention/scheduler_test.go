package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/internal/repository/memory"
	"github.com/vedran77/dmcore/internal/service"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type env struct {
	ctx   context.Context
	store *memory.DMStore
	state *memory.RetentionStore
	convs *service.ConversationService
	clock *clock
	sched *Scheduler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewDMStore()
	state := memory.NewRetentionStore()
	convs := service.NewConversationService(store, service.NewRepoDirectory(memory.NewContactStore()))
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sched := NewScheduler(state, store, convs, Config{Window: 30 * 24 * time.Hour})
	sched.now = c.now
	return &env{ctx: context.Background(), store: store, state: state, convs: convs, clock: c, sched: sched}
}

func (e *env) seed(t *testing.T, pairs ...[2]string) {
	t.Helper()
	msgs := service.NewMessageService(e.store)
	for _, p := range pairs {
		conv, _, err := e.convs.GetOrCreateConversation(e.ctx, domain.Contact{Email: p[0]}, domain.Contact{Email: p[1]})
		require.NoError(t, err)
		_, err = msgs.Send(e.ctx, service.SendInput{ConversationID: conv.ID, SenderID: p[0], Content: "hi"})
		require.NoError(t, err)
	}
}

func TestCheckInitializesThenWaitsForWindow(t *testing.T) {
	e := newEnv(t)
	e.seed(t, [2]string{"ana@acme.io", "bo@acme.io"})

	swept, err := e.sched.Check(e.ctx)
	require.NoError(t, err)
	assert.False(t, swept)
	last, ok, err := e.state.LastResetAt(e.ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, e.clock.t, last)

	e.clock.advance(29 * 24 * time.Hour)
	swept, err = e.sched.Check(e.ctx)
	require.NoError(t, err)
	assert.False(t, swept)

	ids, err := e.store.ListConversationIDs(e.ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	e.clock.advance(24 * time.Hour)
	swept, err = e.sched.Check(e.ctx)
	require.NoError(t, err)
	assert.True(t, swept)

	ids, err = e.store.ListConversationIDs(e.ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	last, _, err = e.state.LastResetAt(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, e.clock.t, last)
}

func TestSweepIsIdempotent(t *testing.T) {
	e := newEnv(t)
	e.seed(t,
		[2]string{"ana@acme.io", "bo@acme.io"},
		[2]string{"ana@acme.io", "cy@acme.io"},
	)

	res, err := e.sched.Sweep(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Purged)

	res, err = e.sched.Sweep(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)
}

type flakyPurger struct {
	Purger
	fail string
}

func (p flakyPurger) PurgeConversation(ctx context.Context, id string) error {
	if id == p.fail {
		return errors.New("connection reset")
	}
	return p.Purger.PurgeConversation(ctx, id)
}

func TestSweepFailureKeepsMarker(t *testing.T) {
	e := newEnv(t)
	e.seed(t,
		[2]string{"ana@acme.io", "bo@acme.io"},
		[2]string{"ana@acme.io", "cy@acme.io"},
	)
	failing := domain.ConversationKey("ana@acme.io", "bo@acme.io")
	start := e.clock.t
	require.NoError(t, e.state.SetLastResetAt(e.ctx, start))
	e.sched.purger = flakyPurger{Purger: e.convs, fail: failing}

	e.clock.advance(31 * 24 * time.Hour)
	swept, err := e.sched.Check(e.ctx)
	require.Error(t, err)
	assert.False(t, swept)

	last, _, err := e.state.LastResetAt(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, start, last)

	ids, err := e.store.ListConversationIDs(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{failing}, ids)

	// Next tick retries and completes.
	e.sched.purger = e.convs
	swept, err = e.sched.Check(e.ctx)
	require.NoError(t, err)
	assert.True(t, swept)
}

func TestRunStopsOnCancel(t *testing.T) {
	e := newEnv(t)
	e.sched.interval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(e.ctx)

	done := make(chan error, 1)
	go func() { done <- e.sched.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, ok, _ := e.state.LastResetAt(e.ctx)
		return ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}
