package scheduler

import (
	"fmt"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Subscription is one chat's standing scan order.
type Subscription struct {
	ChatID    int64
	Symbol    string
	Timeframe string
}

// Scheduler runs the scan cron and tracks which chats subscribed to
// scheduled scans. Subscriptions live in memory; a restart clears them.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger

	mu   sync.Mutex
	subs map[int64]Subscription
}

// New creates an idle scheduler. Cron specs use the six-field form
// with a seconds column.
func New() *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		logger: log.With().Str("component", "scheduler").Logger(),
		subs:   make(map[int64]Subscription),
	}
}

// Register installs run to fire on spec for every current subscriber.
func (s *Scheduler) Register(spec string, run func(Subscription)) error {
	_, err := s.cron.AddFunc(spec, func() {
		subs := s.Subscriptions()
		if len(subs) == 0 {
			return
		}
		s.logger.Info().Int("subscribers", len(subs)).Msg("Running scheduled scans")
		for _, sub := range subs {
			run(sub)
		}
	})
	if err != nil {
		return fmt.Errorf("register scan cron %q: %w", spec, err)
	}
	return nil
}

// Subscribe adds or replaces the chat's standing scan.
func (s *Scheduler) Subscribe(sub Subscription) {
	s.mu.Lock()
	s.subs[sub.ChatID] = sub
	s.mu.Unlock()
	s.logger.Info().Int64("chat_id", sub.ChatID).Str("symbol", sub.Symbol).Msg("Chat subscribed to scheduled scans")
}

// Unsubscribe removes the chat's standing scan. It reports whether a
// subscription existed.
func (s *Scheduler) Unsubscribe(chatID int64) bool {
	s.mu.Lock()
	_, ok := s.subs[chatID]
	delete(s.subs, chatID)
	s.mu.Unlock()
	return ok
}

// Subscriptions returns a stable snapshot ordered by chat ID.
func (s *Scheduler) Subscriptions() []Subscription {
	s.mu.Lock()
	out := make([]Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out
}

// Start begins firing registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("Scheduler started")
}

// Stop halts the cron without waiting for running jobs.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Scheduler stopped")
}
