package retention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vedran77/dmcore/internal/observability"
	"github.com/vedran77/dmcore/internal/repository"
)

const (
	DefaultWindow   = 30 * 24 * time.Hour
	DefaultInterval = time.Hour
)

// Purger deletes one conversation with all of its messages and tells
// subscribers to drop their copies.
type Purger interface {
	PurgeConversation(ctx context.Context, id string) error
}

// ConversationLister enumerates every stored conversation.
type ConversationLister interface {
	ListConversationIDs(ctx context.Context) ([]string, error)
}

type Config struct {
	Window   time.Duration
	Interval time.Duration
}

// Scheduler periodically wipes all conversations once the retention window
// since the last sweep has elapsed.
type Scheduler struct {
	state    repository.RetentionRepository
	lister   ConversationLister
	purger   Purger
	window   time.Duration
	interval time.Duration
	now      func() time.Time

	// one sweep at a time per process
	mu sync.Mutex
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Purged int
	Failed int
}

func NewScheduler(state repository.RetentionRepository, lister ConversationLister, purger Purger, cfg Config) *Scheduler {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Scheduler{
		state:    state,
		lister:   lister,
		purger:   purger,
		window:   cfg.Window,
		interval: cfg.Interval,
		now:      time.Now,
	}
}

// Check sweeps if the window has elapsed. The first check on an empty
// state only records the starting point.
func (s *Scheduler) Check(ctx context.Context) (bool, error) {
	last, ok, err := s.state.LastResetAt(ctx)
	if err != nil {
		return false, fmt.Errorf("read last reset: %w", err)
	}
	now := s.now().UTC()
	if !ok {
		if err := s.state.SetLastResetAt(ctx, now); err != nil {
			return false, fmt.Errorf("init last reset: %w", err)
		}
		return false, nil
	}
	if now.Sub(last) < s.window {
		return false, nil
	}
	_, err = s.Sweep(ctx)
	return err == nil, err
}

// Sweep purges every conversation. lastResetAt only advances when all of
// them were purged, so failures are retried on the next check.
func (s *Scheduler) Sweep(ctx context.Context) (SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := observability.LoggerFromContext(ctx)
	var res SweepResult

	ids, err := s.lister.ListConversationIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list conversations: %w", err)
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.purger.PurgeConversation(ctx, id); err != nil {
			res.Failed++
			log.Error().Err(err).Str("conversation_id", id).Msg("retention purge failed")
			continue
		}
		res.Purged++
	}
	if res.Failed > 0 {
		return res, fmt.Errorf("retention sweep: %d of %d conversations failed", res.Failed, len(ids))
	}

	if err := s.state.SetLastResetAt(ctx, s.now().UTC()); err != nil {
		return res, fmt.Errorf("store last reset: %w", err)
	}
	log.Info().Int("purged", res.Purged).Msg("retention sweep complete")
	return res, nil
}

// Run checks once immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.Check(ctx); err != nil && ctx.Err() == nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("retention check failed")
	}
}
