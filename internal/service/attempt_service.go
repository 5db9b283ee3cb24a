package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ujianku/tryout-backend/internal/config"
	"github.com/ujianku/tryout-backend/internal/model"
)

// LeaderboardUpserter receives a newly scored terminal attempt.
type LeaderboardUpserter interface {
	Upsert(ctx context.Context, e *model.LeaderboardEntry) error
}

// AttemptService owns the attempt lifecycle: IN_PROGRESS at creation, then
// exactly one transition to COMPLETED, TIMED_OUT or DISQUALIFIED. Every
// transition is a conditional update at the store, so concurrent callers race
// safely: one wins, the rest observe the winner's result.
type AttemptService struct {
	attempts    AttemptStore
	answers     AnswerStore
	packages    PackageStore
	leaderboard LeaderboardUpserter
	entitlement EntitlementChecker
	rdb         *redis.Client
	clock       Clock
	log         zerolog.Logger
}

// NewAttemptService creates a new AttemptService. rdb may be nil, in which
// case result notifications are skipped (used in tests).
func NewAttemptService(
	attempts AttemptStore,
	answers AnswerStore,
	packages PackageStore,
	leaderboard LeaderboardUpserter,
	entitlement EntitlementChecker,
	rdb *redis.Client,
	clock Clock,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attempts:    attempts,
		answers:     answers,
		packages:    packages,
		leaderboard: leaderboard,
		entitlement: entitlement,
		rdb:         rdb,
		clock:       clock,
		log:         log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start creates a new IN_PROGRESS attempt after the external entitlement check
// approves. The server deadline is computed once from the package duration and
// is the sole authority for expiry; no client-supplied duration is consulted.
func (s *AttemptService) Start(ctx context.Context, userID int, packageID uuid.UUID) (*model.Attempt, error) {
	if err := s.entitlement.CheckStart(ctx, userID, packageID); err != nil {
		return nil, err
	}

	pkg, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get package: %w", err)
	}
	if pkg.Status != model.PackageStatusPublished {
		return nil, ErrExamNotAccessible
	}

	now := s.clock.Now()
	attempt := &model.Attempt{
		ID:             uuid.New(),
		UserID:         userID,
		PackageID:      packageID,
		StartedAt:      now,
		ServerDeadline: now.Add(time.Duration(pkg.DurationMinutes) * time.Minute),
		Status:         model.AttemptStatusInProgress,
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyInProgress
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Int("user_id", userID).
		Time("server_deadline", attempt.ServerDeadline).
		Msg("Attempt started")

	return attempt, nil
}

// Resolve loads an attempt and materializes a pending time-based transition:
// an IN_PROGRESS attempt whose deadline has passed becomes TIMED_OUT with
// finishedAt pinned to the deadline itself, not the observation time, so the
// reported duration is deterministic. Every other engine operation calls
// Resolve first. No background scheduler is required for correctness; the
// sweep worker merely makes expiry prompt for abandoned sessions.
func (s *AttemptService) Resolve(ctx context.Context, attemptID uuid.UUID, userID int) (*model.Attempt, error) {
	attempt, err := s.attempts.GetForUser(ctx, attemptID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	if attempt.Status != model.AttemptStatusInProgress {
		return attempt, nil
	}
	if !s.clock.Now().After(attempt.ServerDeadline) {
		return attempt, nil
	}

	return s.finish(ctx, attempt, model.AttemptStatusTimedOut, attempt.ServerDeadline)
}

// Finalize is the user-initiated submit. Idempotent: a second call observes
// the terminal status and returns the stored result without re-scoring.
func (s *AttemptService) Finalize(ctx context.Context, attemptID uuid.UUID, userID int) (*model.Attempt, error) {
	attempt, err := s.Resolve(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return attempt, nil
	}

	return s.finish(ctx, attempt, model.AttemptStatusCompleted, s.clock.Now())
}

// Disqualify force-terminates an attempt after the violation threshold is
// crossed. The attempt is still scored over whatever answers exist; the
// partial score is kept for record-keeping and leaderboard placement.
func (s *AttemptService) Disqualify(ctx context.Context, attemptID uuid.UUID, userID int) (*model.Attempt, error) {
	attempt, err := s.Resolve(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return attempt, nil
	}

	return s.finish(ctx, attempt, model.AttemptStatusDisqualified, s.clock.Now())
}

// State returns the reload payload: the resolved attempt, remaining seconds
// and all saved answers.
func (s *AttemptService) State(ctx context.Context, attemptID uuid.UUID, userID int) (*model.AttemptState, error) {
	attempt, err := s.Resolve(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}

	answers, err := s.answers.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if answers == nil {
		answers = []model.Answer{}
	}

	remaining := attempt.ServerDeadline.Sub(s.clock.Now()).Seconds()
	if remaining < 0 || attempt.Status != model.AttemptStatusInProgress {
		remaining = 0
	}

	return &model.AttemptState{
		Attempt:          *attempt,
		RemainingSeconds: remaining,
		Answers:          answers,
	}, nil
}

// SweepExpired finalizes abandoned IN_PROGRESS attempts whose deadline has
// passed, reusing Resolve so the eager path can never diverge from the lazy
// one. Returns how many attempts were pushed through.
func (s *AttemptService) SweepExpired(ctx context.Context, limit int) (int, error) {
	expired, err := s.attempts.ListExpired(ctx, s.clock.Now(), limit)
	if err != nil {
		return 0, fmt.Errorf("list expired: %w", err)
	}

	swept := 0
	for _, e := range expired {
		if _, err := s.Resolve(ctx, e.ID, e.UserID); err != nil {
			s.log.Error().Err(err).
				Str("attempt_id", e.ID.String()).
				Msg("Sweep resolve failed")
			continue
		}
		swept++
	}
	return swept, nil
}

// finish performs the exactly-once terminal transition. The score is computed
// first, then persisted together with the status change in one conditional
// update; a reader can therefore never observe a terminal attempt without a
// score. Losing the transition race is not an error: the loser re-reads and
// returns the winner's result.
func (s *AttemptService) finish(ctx context.Context, attempt *model.Attempt, status model.AttemptStatus, finishedAt time.Time) (*model.Attempt, error) {
	questions, err := s.packages.ListQuestions(ctx, attempt.PackageID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	answers, err := s.answers.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	result := ComputeResult(questions, answers)

	won, err := s.attempts.Finish(ctx, attempt.ID, status, finishedAt, result.Score, result.TotalCorrect)
	if err != nil {
		return nil, fmt.Errorf("finish attempt: %w", err)
	}
	if !won {
		// A concurrent caller terminated first; its result is authoritative.
		terminal, err := s.attempts.GetForUser(ctx, attempt.ID, attempt.UserID)
		if err != nil {
			return nil, fmt.Errorf("reload attempt: %w", err)
		}
		return terminal, nil
	}

	attempt.Status = status
	attempt.FinishedAt = &finishedAt
	attempt.Score = &result.Score
	attempt.TotalCorrect = &result.TotalCorrect

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("status", string(status)).
		Int("score", result.Score).
		Int("total_correct", result.TotalCorrect).
		Msg("Attempt finished")

	if err := s.leaderboard.Upsert(ctx, &model.LeaderboardEntry{
		PackageID: attempt.PackageID,
		UserID:    attempt.UserID,
		AttemptID: attempt.ID,
		Score:     result.Score,
	}); err != nil {
		// The terminal transition is already durable; the board catches up
		// on the user's next scored attempt.
		s.log.Error().Err(err).
			Str("attempt_id", attempt.ID.String()).
			Msg("Leaderboard upsert failed")
	}

	s.queueResultNotification(ctx, attempt, result.Score)

	return attempt, nil
}

// queueResultNotification pushes a result-ready payload onto the notification
// queue. Fire-and-forget: failures are logged and swallowed, never rolled back
// into the transition.
func (s *AttemptService) queueResultNotification(ctx context.Context, attempt *model.Attempt, score int) {
	if s.rdb == nil {
		return
	}

	raw, err := json.Marshal(ResultNotification{
		UserID:    attempt.UserID,
		AttemptID: attempt.ID,
		PackageID: attempt.PackageID,
		Status:    attempt.Status,
		Score:     score,
	})
	if err != nil {
		return
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.NotifyResultsQueue, raw).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to queue result notification")
	}
}
