package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PackageStatus enumerates the publication states of a tryout package.
type PackageStatus string

const (
	PackageStatusDraft     PackageStatus = "DRAFT"
	PackageStatusPublished PackageStatus = "PUBLISHED"
	PackageStatusArchived  PackageStatus = "ARCHIVED"
)

// Package is a tryout exam package. Its composition (duration, question set,
// violation threshold) is authored elsewhere and treated as immutable for the
// lifetime of any attempt created against it.
type Package struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
	// MaxViolations is the proctoring threshold. Zero disables forced
	// disqualification for this package.
	MaxViolations int           `json:"max_violations"`
	Status        PackageStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeNumeric        QuestionType = "NUMERIC"
)

// Question is a single question scheduled into a package, including its
// correct-answer specification. Never sent to participants as-is.
type Question struct {
	ID           uuid.UUID       `json:"id"`
	PackageID    uuid.UUID       `json:"package_id"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	Options      json.RawMessage `json:"options"`
	// CorrectOptionID is the answer key for SINGLE_CHOICE and TRUE_FALSE.
	CorrectOptionID string `json:"correct_option_id,omitempty"`
	// CorrectOptionIDs is the answer key for MULTIPLE_CHOICE; an exact set
	// match is required, partial credit is never awarded.
	CorrectOptionIDs []string `json:"correct_option_ids,omitempty"`
	// NumericAnswer and NumericTolerance are the key for NUMERIC questions.
	// A nil tolerance means exact match.
	NumericAnswer    *float64 `json:"numeric_answer,omitempty"`
	NumericTolerance *float64 `json:"numeric_tolerance,omitempty"`
	// Weight contributes to the weighted score; values <= 0 count as 1.
	Weight   float64 `json:"weight"`
	OrderNum int     `json:"order_num"`
}

// QuestionForParticipant is a question stripped of its answer key, safe to send
// to the exam UI.
type QuestionForParticipant struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	Options      json.RawMessage `json:"options"`
	OrderNum     int             `json:"order_num"`
}

// StripAnswerKey converts a full question into its participant-safe view.
func (q *Question) StripAnswerKey() QuestionForParticipant {
	return QuestionForParticipant{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		QuestionType: q.QuestionType,
		Options:      q.Options,
		OrderNum:     q.OrderNum,
	}
}
