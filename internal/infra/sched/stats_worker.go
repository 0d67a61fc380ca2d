package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront-bot/internal/infra/metrics"
)

// RegisteredCounter is satisfied by usecase.UserUseCase.
type RegisteredCounter interface {
	CountRegistered(ctx context.Context) (int, error)
}

// PendingCounter is satisfied by pending.Registry.
type PendingCounter interface {
	Len() int
}

// StatsWorker periodically publishes user gauges.
type StatsWorker struct {
	interval time.Duration
	users    RegisteredCounter
	pending  PendingCounter
	log      *zerolog.Logger
}

func NewStatsWorker(interval time.Duration, users RegisteredCounter, pending PendingCounter, logger *zerolog.Logger) *StatsWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	statsLog := logger.With().Str("component", "StatsWorker").Logger()
	return &StatsWorker{
		interval: interval,
		users:    users,
		pending:  pending,
		log:      &statsLog,
	}
}

// Run publishes once at start and then every interval until ctx is done.
func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting stats worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *StatsWorker) tick(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if w.pending != nil {
		metrics.SetPendingRegistrations(w.pending.Len())
	}
	n, err := w.users.CountRegistered(runCtx)
	if err != nil {
		w.log.Error().Err(err).Msg("stats worker error")
		return
	}
	metrics.SetRegisteredUsers(n)
}
