package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/ujianku/tryout-backend/internal/service"
)

// SweepWorker periodically finalizes attempts whose server deadline has
// passed without the participant ever coming back. The HTTP layer already
// materializes timeouts lazily on read; the sweep exists so abandoned
// attempts still land on the leaderboard.
type SweepWorker struct {
	attempts  *service.AttemptService
	interval  time.Duration
	batchSize int
	log       zerolog.Logger
}

func NewSweepWorker(attempts *service.AttemptService, interval time.Duration, batchSize int, log zerolog.Logger) *SweepWorker {
	return &SweepWorker{
		attempts:  attempts,
		interval:  interval,
		batchSize: batchSize,
		log:       log.With().Str("component", "sweep_worker").Logger(),
	}
}

func (w *SweepWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("SweepWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("SweepWorker stopped")
			return
		case <-ticker.C:
			w.sweepSafe(ctx)
		}
	}
}

func (w *SweepWorker) sweepSafe(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Msg("Recovered from panic during sweep")
		}
	}()

	start := time.Now()
	n, err := w.attempts.SweepExpired(ctx, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("Sweep pass failed")
		return
	}

	if n > 0 {
		w.log.Info().
			Int("finalized", n).
			Dur("took", time.Since(start)).
			Msg("Swept expired attempts")
	}
}
