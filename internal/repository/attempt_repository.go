package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ujianku/tryout-backend/internal/model"
	"github.com/ujianku/tryout-backend/internal/service"
)

// AttemptRepository handles attempt data access. All terminal transitions are
// conditional updates on status = 'IN_PROGRESS', which makes them exactly-once
// under concurrent callers without explicit locks.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, user_id, package_id, started_at, server_deadline, finished_at, status, violations, score, total_correct`

// GetForUser retrieves an attempt scoped to its owner. A missing attempt and
// someone else's attempt are both pgx.ErrNoRows.
func (r *AttemptRepository) GetForUser(ctx context.Context, attemptID uuid.UUID, userID int) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts
		 WHERE id = $1 AND user_id = $2`, attemptID, userID,
	).Scan(&a.ID, &a.UserID, &a.PackageID, &a.StartedAt, &a.ServerDeadline,
		&a.FinishedAt, &a.Status, &a.Violations, &a.Score, &a.TotalCorrect)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new IN_PROGRESS attempt. The partial unique index on
// (user_id, package_id) WHERE status = 'IN_PROGRESS' blocks a second live
// attempt; the conflict surfaces as pgx.ErrNoRows from the empty RETURNING.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (id, user_id, package_id, started_at, server_deadline, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, package_id) WHERE status = 'IN_PROGRESS' DO NOTHING
		 RETURNING id`,
		a.ID, a.UserID, a.PackageID, a.StartedAt, a.ServerDeadline, a.Status,
	).Scan(&a.ID)
}

// Finish performs the exactly-once terminal transition. Status, finished_at
// and the score fields land in one conditional statement, so a reader can
// never observe a terminal attempt without a score. Returns whether this
// caller won the transition.
func (r *AttemptRepository) Finish(ctx context.Context, attemptID uuid.UUID, status model.AttemptStatus, finishedAt time.Time, score, totalCorrect int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = $2, finished_at = $3, score = $4, total_correct = $5
		 WHERE id = $1 AND status = $6`,
		attemptID, status, finishedAt, score, totalCorrect, model.AttemptStatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RecordViolation appends one violation event and increments the attempt's
// counter inside a single transaction, keeping the counter equal to the event
// row count even under concurrent reports. The row update serializes
// contenders on the attempt's row; no broader lock is needed.
func (r *AttemptRepository) RecordViolation(ctx context.Context, ev *model.ViolationEvent) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO violation_events (attempt_id, type, details, recorded_at)
		 VALUES ($1, $2, $3, $4)`,
		ev.AttemptID, ev.Type, ev.Details, ev.RecordedAt); err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx,
		`UPDATE attempts
		 SET violations = violations + 1
		 WHERE id = $1
		 RETURNING violations`, ev.AttemptID,
	).Scan(&count); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return count, nil
}

// ListExpired returns IN_PROGRESS attempts whose deadline passed before asOf.
// Oldest deadlines first so long-abandoned sessions finalize before fresh
// ones.
func (r *AttemptRepository) ListExpired(ctx context.Context, asOf time.Time, limit int) ([]service.ExpiredAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id
		 FROM attempts
		 WHERE status = $1 AND server_deadline < $2
		 ORDER BY server_deadline ASC
		 LIMIT $3`,
		model.AttemptStatusInProgress, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []service.ExpiredAttempt
	for rows.Next() {
		var e service.ExpiredAttempt
		if err := rows.Scan(&e.ID, &e.UserID); err != nil {
			return nil, err
		}
		expired = append(expired, e)
	}
	return expired, rows.Err()
}

// ListViolations returns the append-only violation log for an attempt, oldest
// first.
func (r *AttemptRepository) ListViolations(ctx context.Context, attemptID uuid.UUID) ([]model.ViolationEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, type, details, recorded_at
		 FROM violation_events
		 WHERE attempt_id = $1
		 ORDER BY recorded_at ASC, id ASC`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.ViolationEvent
	for rows.Next() {
		var ev model.ViolationEvent
		if err := rows.Scan(&ev.ID, &ev.AttemptID, &ev.Type, &ev.Details, &ev.RecordedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
