package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ujianku/tryout-backend/internal/model"
)

// ResultNotification tells a user their tryout result is ready.
type ResultNotification struct {
	UserID    int                 `json:"user_id"`
	AttemptID uuid.UUID           `json:"attempt_id"`
	PackageID uuid.UUID           `json:"package_id"`
	Status    model.AttemptStatus `json:"status"`
	Score     int                 `json:"score"`
}

// Notifier delivers result-ready notifications. Delivery is fire-and-forget:
// a failed dispatch is logged and swallowed, never propagated back into the
// attempt transition that produced it.
type Notifier interface {
	Notify(ctx context.Context, n ResultNotification) error
}

// LogNotifier writes notifications to the log. Stands in for the platform's
// push/email dispatcher in development.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) Notify(ctx context.Context, msg ResultNotification) error {
	n.log.Info().
		Int("user_id", msg.UserID).
		Str("attempt_id", msg.AttemptID.String()).
		Str("status", string(msg.Status)).
		Int("score", msg.Score).
		Msg("Result ready")
	return nil
}
