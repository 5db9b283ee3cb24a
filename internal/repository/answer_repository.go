package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ujianku/tryout-backend/internal/model"
)

// AnswerRepository handles answer data access. At most one row ever exists
// per (attempt_id, question_id).
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert creates or overwrites the answer row for one question. A single
// atomic statement: concurrent retries for the same question never create a
// second row nor lose the latest value — last write wins by answered_at.
func (r *AnswerRepository) Upsert(ctx context.Context, ans *model.Answer) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO answers
		   (attempt_id, question_id, selected_option_id, selected_option_ids,
		    numeric_answer, is_flagged, time_spent_seconds, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		 SET selected_option_id  = EXCLUDED.selected_option_id,
		     selected_option_ids = EXCLUDED.selected_option_ids,
		     numeric_answer      = EXCLUDED.numeric_answer,
		     is_flagged          = EXCLUDED.is_flagged,
		     time_spent_seconds  = EXCLUDED.time_spent_seconds,
		     answered_at         = EXCLUDED.answered_at`,
		ans.AttemptID, ans.QuestionID, ans.SelectedOptionID, ans.SelectedOptionIDs,
		ans.NumericAnswer, ans.IsFlagged, ans.TimeSpentSeconds, ans.AnsweredAt,
	)
	return err
}

// ListByAttempt retrieves all answers for an attempt.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT attempt_id, question_id, selected_option_id, selected_option_ids,
		        numeric_answer, is_flagged, time_spent_seconds, answered_at
		 FROM answers
		 WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.AttemptID, &a.QuestionID, &a.SelectedOptionID,
			&a.SelectedOptionIDs, &a.NumericAnswer, &a.IsFlagged,
			&a.TimeSpentSeconds, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
