package service

import (
	"math"

	"github.com/google/uuid"
	"github.com/ujianku/tryout-backend/internal/model"
)

// ScoreScale is the fixed normalization scale for final scores. Scores are
// displayed to users and order the leaderboard, so this value is a
// compatibility contract: never change it retroactively.
const ScoreScale = 1000

// ScoreResult is the outcome of scoring one attempt.
type ScoreResult struct {
	Score          int
	TotalCorrect   int
	TotalQuestions int
}

// ComputeResult scores an attempt: per-question correctness by type, then a
// weighted aggregate normalized to the 0–ScoreScale range:
//
//	score = round(earnedWeight / totalWeight * ScoreScale)
//
// Questions with weight <= 0 count as weight 1, so unweighted packages reduce
// to round(correct / total * ScoreScale). Unanswered questions are incorrect,
// never an error. An empty package scores 0.
func ComputeResult(questions []model.Question, answers []model.Answer) ScoreResult {
	res := ScoreResult{TotalQuestions: len(questions)}
	if len(questions) == 0 {
		return res
	}

	byQuestion := make(map[uuid.UUID]*model.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	var totalWeight, earnedWeight float64
	for i := range questions {
		q := &questions[i]
		w := q.Weight
		if w <= 0 {
			w = 1
		}
		totalWeight += w

		if questionCorrect(q, byQuestion[q.ID]) {
			res.TotalCorrect++
			earnedWeight += w
		}
	}

	res.Score = int(math.Round(earnedWeight / totalWeight * ScoreScale))
	return res
}

// questionCorrect determines correctness for a single question. Malformed or
// missing answers are simply incorrect: scoring never fails on bad input.
func questionCorrect(q *model.Question, ans *model.Answer) bool {
	if ans == nil {
		return false
	}

	switch q.QuestionType {
	case model.QuestionTypeSingleChoice, model.QuestionTypeTrueFalse:
		// TRUE_FALSE is single choice over two options.
		return ans.SelectedOptionID != nil && *ans.SelectedOptionID == q.CorrectOptionID

	case model.QuestionTypeMultipleChoice:
		// Exact set match only; partial credit is never awarded.
		return equalOptionSets(ans.SelectedOptionIDs, q.CorrectOptionIDs)

	case model.QuestionTypeNumeric:
		if ans.NumericAnswer == nil || q.NumericAnswer == nil {
			return false
		}
		if q.NumericTolerance == nil {
			// Exact match is the conservative default.
			return *ans.NumericAnswer == *q.NumericAnswer
		}
		return math.Abs(*ans.NumericAnswer-*q.NumericAnswer) <= *q.NumericTolerance

	default:
		return false
	}
}

// equalOptionSets compares two option id slices as sets. Duplicates on the
// answer side collapse; order never matters.
func equalOptionSets(selected, correct []string) bool {
	if len(correct) == 0 {
		return false
	}

	sel := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		sel[id] = struct{}{}
	}
	if len(sel) != len(correct) {
		return false
	}
	for _, id := range correct {
		if _, ok := sel[id]; !ok {
			return false
		}
	}
	return true
}
