package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ujianku/tryout-backend/internal/config"
	"github.com/ujianku/tryout-backend/internal/service"
)

const (
	NotifyPollTimeout = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// NotifyWorker drains the result-notification queue and hands each payload to
// the configured Notifier. Consumption is at-least-once: a payload popped
// right before a crash is lost, which is acceptable for a courtesy
// notification follow-up.
type NotifyWorker struct {
	rdb      *redis.Client
	notifier service.Notifier
	log      zerolog.Logger
}

func NewNotifyWorker(rdb *redis.Client, notifier service.Notifier, log zerolog.Logger) *NotifyWorker {
	return &NotifyWorker{
		rdb:      rdb,
		notifier: notifier,
		log:      log.With().Str("component", "notify_worker").Logger(),
	}
}

func (w *NotifyWorker) Start(ctx context.Context) {
	w.log.Info().Msg("NotifyWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("NotifyWorker stopped")
			return
		default:
			item, err := w.rdb.BLPop(ctx, NotifyPollTimeout, config.WorkerKey.NotifyResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var n service.ResultNotification
			if err := json.Unmarshal([]byte(item[1]), &n); err != nil {
				w.log.Error().Err(err).Str("raw", item[1]).Msg("Malformed notification payload, dropping")
				continue
			}

			w.dispatchSafe(ctx, n)
		}
	}
}

func (w *NotifyWorker) dispatchSafe(ctx context.Context, n service.ResultNotification) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Msg("Recovered from panic during notify")
		}
	}()

	if err := w.notifier.Notify(ctx, n); err != nil {
		w.log.Warn().
			Err(err).
			Int("user_id", n.UserID).
			Str("attempt_id", n.AttemptID.String()).
			Msg("Notification dispatch failed")
	}
}
