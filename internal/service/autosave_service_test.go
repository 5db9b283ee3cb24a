package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ujianku/tryout-backend/internal/model"
)

func TestSaveAnswer(t *testing.T) {
	e := newTestEngine()
	q := singleChoiceQuestion("a", 1)
	pkgID := e.seedPackage(0, q)
	ctx := context.Background()

	attempt, _ := e.attempts.Start(ctx, 7, pkgID)

	ans, err := e.autosave.Save(ctx, attempt.ID, 7, q.ID, &model.SaveAnswerRequest{
		SelectedOptionID: strPtr("b"),
		TimeSpentSeconds: 42,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if *ans.SelectedOptionID != "b" || ans.TimeSpentSeconds != 42 {
		t.Errorf("stored answer = %+v", ans)
	}
	if !ans.AnsweredAt.Equal(e.clock.Now()) {
		t.Errorf("answeredAt = %v, want server time %v", ans.AnsweredAt, e.clock.Now())
	}
}

func TestSaveOverwritesPreviousAnswer(t *testing.T) {
	e := newTestEngine()
	q := singleChoiceQuestion("a", 1)
	pkgID := e.seedPackage(0, q)
	ctx := context.Background()

	attempt, _ := e.attempts.Start(ctx, 7, pkgID)

	e.autosave.Save(ctx, attempt.ID, 7, q.ID, &model.SaveAnswerRequest{SelectedOptionID: strPtr("b")})
	e.clock.Advance(time.Minute)
	e.autosave.Save(ctx, attempt.ID, 7, q.ID, &model.SaveAnswerRequest{SelectedOptionID: strPtr("a")})

	answers, _ := e.answerStore.ListByAttempt(ctx, attempt.ID)
	if len(answers) != 1 {
		t.Fatalf("answers = %d rows, want 1 (last write wins)", len(answers))
	}
	if *answers[0].SelectedOptionID != "a" {
		t.Errorf("kept answer = %s, want the later one", *answers[0].SelectedOptionID)
	}
}

func TestSaveAfterDeadline(t *testing.T) {
	e := newTestEngine()
	q := singleChoiceQuestion("a", 1)
	pkgID := e.seedPackage(0, q)
	ctx := context.Background()

	attempt, _ := e.attempts.Start(ctx, 7, pkgID)
	e.clock.Advance(2 * time.Hour)

	_, err := e.autosave.Save(ctx, attempt.ID, 7, q.ID, &model.SaveAnswerRequest{SelectedOptionID: strPtr("a")})
	if !errors.Is(err, ErrExamEnded) {
		t.Fatalf("err = %v, want ErrExamEnded", err)
	}

	// The save attempt itself materialized the timeout.
	a, _ := e.attemptStore.GetForUser(ctx, attempt.ID, 7)
	if a.Status != model.AttemptStatusTimedOut {
		t.Errorf("status = %s, want TIMED_OUT", a.Status)
	}
}

func TestSaveAfterFinalize(t *testing.T) {
	e := newTestEngine()
	q := singleChoiceQuestion("a", 1)
	pkgID := e.seedPackage(0, q)
	ctx := context.Background()

	attempt, _ := e.attempts.Start(ctx, 7, pkgID)
	e.attempts.Finalize(ctx, attempt.ID, 7)

	_, err := e.autosave.Save(ctx, attempt.ID, 7, q.ID, &model.SaveAnswerRequest{SelectedOptionID: strPtr("a")})
	if !errors.Is(err, ErrExamEnded) {
		t.Fatalf("err = %v, want ErrExamEnded", err)
	}
}

func TestSaveQuestionOutsidePackage(t *testing.T) {
	e := newTestEngine()
	pkgID := e.seedPackage(0, singleChoiceQuestion("a", 1))
	ctx := context.Background()

	attempt, _ := e.attempts.Start(ctx, 7, pkgID)

	_, err := e.autosave.Save(ctx, attempt.ID, 7, uuid.New(), &model.SaveAnswerRequest{SelectedOptionID: strPtr("a")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveShapeValidation(t *testing.T) {
	e := newTestEngine()
	single := singleChoiceQuestion("a", 1)
	multi := model.Question{
		ID:               uuid.New(),
		QuestionType:     model.QuestionTypeMultipleChoice,
		CorrectOptionIDs: []string{"a"},
		Weight:           1,
	}
	numeric := model.Question{
		ID:            uuid.New(),
		QuestionType:  model.QuestionTypeNumeric,
		NumericAnswer: f64Ptr(5),
		Weight:        1,
	}
	pkgID := e.seedPackage(0, single, multi, numeric)
	ctx := context.Background()

	attempt, _ := e.attempts.Start(ctx, 7, pkgID)

	tests := []struct {
		name       string
		questionID uuid.UUID
		req        *model.SaveAnswerRequest
		wantErr    error
	}{
		{"single choice missing selection", single.ID, &model.SaveAnswerRequest{}, ErrInvalidAnswer},
		{"single choice empty selection", single.ID, &model.SaveAnswerRequest{SelectedOptionID: strPtr("")}, ErrInvalidAnswer},
		{"multi choice empty set", multi.ID, &model.SaveAnswerRequest{}, ErrInvalidAnswer},
		{"numeric missing value", numeric.ID, &model.SaveAnswerRequest{}, ErrInvalidAnswer},
		{"single choice ok", single.ID, &model.SaveAnswerRequest{SelectedOptionID: strPtr("a")}, nil},
		{"multi choice ok", multi.ID, &model.SaveAnswerRequest{SelectedOptionIDs: []string{"a", "b"}}, nil},
		{"numeric ok", numeric.ID, &model.SaveAnswerRequest{NumericAnswer: f64Ptr(4.9)}, nil},
		// Out-of-range option ids pass shape validation; they are simply
		// scored incorrect later.
		{"single choice unknown option stored", single.ID, &model.SaveAnswerRequest{SelectedOptionID: strPtr("zz")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.autosave.Save(ctx, attempt.ID, 7, tt.questionID, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
