package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ujianku/tryout-backend/internal/model"
)

// AutosaveService accepts per-question answer submissions during an
// in-progress attempt. Saves are idempotent per (attempt, question): retries
// and duplicated requests converge on a single row, last write wins by server
// time.
type AutosaveService struct {
	attempts *AttemptService
	answers  AnswerStore
	packages PackageStore
	clock    Clock
	log      zerolog.Logger
}

// NewAutosaveService creates a new AutosaveService.
func NewAutosaveService(attempts *AttemptService, answers AnswerStore, packages PackageStore, clock Clock, log zerolog.Logger) *AutosaveService {
	return &AutosaveService{
		attempts: attempts,
		answers:  answers,
		packages: packages,
		clock:    clock,
		log:      log.With().Str("component", "autosave_service").Logger(),
	}
}

// Save validates and upserts one answer. The attempt is resolved first, so a
// save against an expired attempt performs the TIMED_OUT transition and then
// reports ErrExamEnded; the client should stop sending further autosaves.
// Scoring is never triggered here — only at termination.
func (s *AutosaveService) Save(ctx context.Context, attemptID uuid.UUID, userID int, questionID uuid.UUID, req *model.SaveAnswerRequest) (*model.Answer, error) {
	attempt, err := s.attempts.Resolve(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, ErrExamEnded
	}

	question, err := s.findQuestion(ctx, attempt.PackageID, questionID)
	if err != nil {
		return nil, err
	}

	if err := validateAnswerShape(question, req); err != nil {
		return nil, err
	}

	ans := &model.Answer{
		AttemptID:         attemptID,
		QuestionID:        questionID,
		SelectedOptionID:  req.SelectedOptionID,
		SelectedOptionIDs: req.SelectedOptionIDs,
		NumericAnswer:     req.NumericAnswer,
		IsFlagged:         req.IsFlagged,
		TimeSpentSeconds:  req.TimeSpentSeconds,
		AnsweredAt:        s.clock.Now(),
	}

	if err := s.answers.Upsert(ctx, ans); err != nil {
		return nil, fmt.Errorf("upsert answer: %w", err)
	}

	return ans, nil
}

// findQuestion looks the question up inside the attempt's package
// composition. A question id outside the package is NotFound, kept
// indistinguishable from a missing one.
func (s *AutosaveService) findQuestion(ctx context.Context, packageID, questionID uuid.UUID) (*model.Question, error) {
	questions, err := s.packages.ListQuestions(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	for i := range questions {
		if questions[i].ID == questionID {
			return &questions[i], nil
		}
	}
	return nil, ErrNotFound
}

// validateAnswerShape checks the payload against the question's declared
// type. Only shape is enforced here: an out-of-range option id is stored and
// later scored incorrect, matching the scoring engine's tolerance for
// malformed content.
func validateAnswerShape(q *model.Question, req *model.SaveAnswerRequest) error {
	switch q.QuestionType {
	case model.QuestionTypeSingleChoice, model.QuestionTypeTrueFalse:
		if req.SelectedOptionID == nil || *req.SelectedOptionID == "" {
			return ErrInvalidAnswer
		}
	case model.QuestionTypeMultipleChoice:
		if len(req.SelectedOptionIDs) == 0 {
			return ErrInvalidAnswer
		}
	case model.QuestionTypeNumeric:
		if req.NumericAnswer == nil {
			return ErrInvalidAnswer
		}
	default:
		return ErrInvalidAnswer
	}
	return nil
}
