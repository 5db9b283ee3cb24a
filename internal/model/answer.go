package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer is one participant's response to one question within one attempt.
// Keyed uniquely by (attempt_id, question_id); every autosave overwrites the
// previous row, nothing is ever duplicated. The storage model tolerates all
// answer fields being set at once; type-correctness is the scoring engine's
// concern.
type Answer struct {
	AttemptID         uuid.UUID `json:"attempt_id"`
	QuestionID        uuid.UUID `json:"question_id"`
	SelectedOptionID  *string   `json:"selected_option_id,omitempty"`
	SelectedOptionIDs []string  `json:"selected_option_ids,omitempty"`
	NumericAnswer     *float64  `json:"numeric_answer,omitempty"`
	IsFlagged         bool      `json:"is_flagged"`
	// TimeSpentSeconds is client-reported and advisory only. It never feeds
	// deadline logic.
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	AnsweredAt       time.Time `json:"answered_at"`
}

// SaveAnswerRequest is the autosave payload for a single question.
type SaveAnswerRequest struct {
	SelectedOptionID  *string  `json:"selected_option_id" binding:"omitempty,min=1,max=10"`
	SelectedOptionIDs []string `json:"selected_option_ids" binding:"omitempty,dive,min=1,max=10"`
	NumericAnswer     *float64 `json:"numeric_answer" binding:"omitempty"`
	IsFlagged         bool     `json:"is_flagged"`
	TimeSpentSeconds  int      `json:"time_spent_seconds" binding:"omitempty,min=0"`
}
