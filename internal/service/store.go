package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ujianku/tryout-backend/internal/model"
)

// ExpiredAttempt identifies an IN_PROGRESS attempt whose deadline has passed,
// as returned by the sweep query.
type ExpiredAttempt struct {
	ID     uuid.UUID
	UserID int
}

// AttemptStore is the durable store for attempt records. Implementations must
// make every conditional transition atomic: of any number of concurrent
// callers, exactly one wins each terminal transition.
type AttemptStore interface {
	// GetForUser loads an attempt scoped to its owner. Missing and not-owned
	// both surface as pgx.ErrNoRows.
	GetForUser(ctx context.Context, attemptID uuid.UUID, userID int) (*model.Attempt, error)

	// Create inserts a new IN_PROGRESS attempt. When the user already has an
	// IN_PROGRESS attempt for the same package it returns pgx.ErrNoRows
	// without inserting.
	Create(ctx context.Context, a *model.Attempt) error

	// Finish performs the conditional terminal transition
	// "set status/finished_at/score WHERE id = $1 AND status = 'IN_PROGRESS'"
	// and reports whether this caller won the transition.
	Finish(ctx context.Context, attemptID uuid.UUID, status model.AttemptStatus, finishedAt time.Time, score, totalCorrect int) (bool, error)

	// RecordViolation appends one violation event and increments the
	// attempt's violations counter in a single transaction, returning the
	// new counter value.
	RecordViolation(ctx context.Context, ev *model.ViolationEvent) (int, error)

	// ListExpired returns IN_PROGRESS attempts whose server deadline passed
	// before asOf, up to limit rows.
	ListExpired(ctx context.Context, asOf time.Time, limit int) ([]ExpiredAttempt, error)
}

// AnswerStore persists per-question answers with insert-or-update semantics on
// (attemptID, questionID).
type AnswerStore interface {
	Upsert(ctx context.Context, ans *model.Answer) error
	ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Answer, error)
}

// PackageStore provides read-only access to package composition. The question
// set is fixed at package composition time and immutable for the lifetime of
// any attempt against it.
type PackageStore interface {
	GetByID(ctx context.Context, packageID uuid.UUID) (*model.Package, error)
	ListQuestions(ctx context.Context, packageID uuid.UUID) ([]model.Question, error)
}

// LeaderboardStore materializes ranking rows, unique on (packageID, userID).
type LeaderboardStore interface {
	Upsert(ctx context.Context, e *model.LeaderboardEntry) error
	// Rank computes the 1-based rank as 1 + count(entries with score strictly
	// greater). Returns pgx.ErrNoRows when the user has no entry.
	Rank(ctx context.Context, packageID uuid.UUID, userID int) (*model.RankInfo, error)
	// TopN returns entries ordered by score descending; ties keep insertion
	// order.
	TopN(ctx context.Context, packageID uuid.UUID, n int) ([]model.LeaderboardEntry, error)
}
