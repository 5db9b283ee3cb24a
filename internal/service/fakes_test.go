package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/ujianku/tryout-backend/internal/model"
)

// fakeClock is a settable clock for deterministic deadline tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeAttemptStore is an in-memory AttemptStore with the same atomicity
// contract as the Postgres implementation: Finish is a compare-and-set on
// IN_PROGRESS, RecordViolation appends and increments under one lock.
type fakeAttemptStore struct {
	mu         sync.Mutex
	attempts   map[uuid.UUID]*model.Attempt
	events     map[uuid.UUID][]model.ViolationEvent
	finishWins int
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{
		attempts: make(map[uuid.UUID]*model.Attempt),
		events:   make(map[uuid.UUID][]model.ViolationEvent),
	}
}

func (s *fakeAttemptStore) GetForUser(ctx context.Context, attemptID uuid.UUID, userID int) (*model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptID]
	if !ok || a.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (s *fakeAttemptStore) Create(ctx context.Context, a *model.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attempts {
		if existing.UserID == a.UserID && existing.PackageID == a.PackageID &&
			existing.Status == model.AttemptStatusInProgress {
			return pgx.ErrNoRows
		}
	}
	cp := *a
	s.attempts[a.ID] = &cp
	return nil
}

func (s *fakeAttemptStore) Finish(ctx context.Context, attemptID uuid.UUID, status model.AttemptStatus, finishedAt time.Time, score, totalCorrect int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptID]
	if !ok || a.Status != model.AttemptStatusInProgress {
		return false, nil
	}
	fin := finishedAt
	a.Status = status
	a.FinishedAt = &fin
	a.Score = &score
	a.TotalCorrect = &totalCorrect
	s.finishWins++
	return true, nil
}

func (s *fakeAttemptStore) RecordViolation(ctx context.Context, ev *model.ViolationEvent) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[ev.AttemptID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	s.events[ev.AttemptID] = append(s.events[ev.AttemptID], *ev)
	a.Violations++
	return a.Violations, nil
}

func (s *fakeAttemptStore) ListExpired(ctx context.Context, asOf time.Time, limit int) ([]ExpiredAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ExpiredAttempt
	for _, a := range s.attempts {
		if a.Status == model.AttemptStatusInProgress && asOf.After(a.ServerDeadline) {
			out = append(out, ExpiredAttempt{ID: a.ID, UserID: a.UserID})
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeAnswerStore struct {
	mu      sync.Mutex
	answers map[uuid.UUID]map[uuid.UUID]model.Answer
}

func newFakeAnswerStore() *fakeAnswerStore {
	return &fakeAnswerStore{answers: make(map[uuid.UUID]map[uuid.UUID]model.Answer)}
}

func (s *fakeAnswerStore) Upsert(ctx context.Context, ans *model.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byQ, ok := s.answers[ans.AttemptID]
	if !ok {
		byQ = make(map[uuid.UUID]model.Answer)
		s.answers[ans.AttemptID] = byQ
	}
	byQ[ans.QuestionID] = *ans
	return nil
}

func (s *fakeAnswerStore) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Answer
	for _, a := range s.answers[attemptID] {
		out = append(out, a)
	}
	return out, nil
}

type fakePackageStore struct {
	packages  map[uuid.UUID]*model.Package
	questions map[uuid.UUID][]model.Question
}

func newFakePackageStore() *fakePackageStore {
	return &fakePackageStore{
		packages:  make(map[uuid.UUID]*model.Package),
		questions: make(map[uuid.UUID][]model.Question),
	}
}

func (s *fakePackageStore) GetByID(ctx context.Context, packageID uuid.UUID) (*model.Package, error) {
	p, ok := s.packages[packageID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (s *fakePackageStore) ListQuestions(ctx context.Context, packageID uuid.UUID) ([]model.Question, error) {
	return s.questions[packageID], nil
}

// fakeLeaderboardStore mirrors the SQL semantics: unique on (package, user)
// with a monotonically increasing surrogate id preserved across updates, so
// tie ordering matches the Postgres board.
type fakeLeaderboardStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []model.LeaderboardEntry
}

func newFakeLeaderboardStore() *fakeLeaderboardStore {
	return &fakeLeaderboardStore{nextID: 1}
}

func (s *fakeLeaderboardStore) Upsert(ctx context.Context, e *model.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].PackageID == e.PackageID && s.entries[i].UserID == e.UserID {
			s.entries[i].AttemptID = e.AttemptID
			s.entries[i].Score = e.Score
			return nil
		}
	}
	cp := *e
	cp.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, cp)
	return nil
}

func (s *fakeLeaderboardStore) Rank(ctx context.Context, packageID uuid.UUID, userID int) (*model.RankInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var mine *model.LeaderboardEntry
	for i := range s.entries {
		if s.entries[i].PackageID == packageID && s.entries[i].UserID == userID {
			mine = &s.entries[i]
			break
		}
	}
	if mine == nil {
		return nil, pgx.ErrNoRows
	}
	rank := int64(1)
	for i := range s.entries {
		if s.entries[i].PackageID == packageID && s.entries[i].Score > mine.Score {
			rank++
		}
	}
	return &model.RankInfo{Rank: rank, Score: mine.Score}, nil
}

func (s *fakeLeaderboardStore) TopN(ctx context.Context, packageID uuid.UUID, n int) ([]model.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.LeaderboardEntry
	for _, e := range s.entries {
		if e.PackageID == packageID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// testEngine bundles a fully wired service stack over in-memory stores.
type testEngine struct {
	clock        *fakeClock
	attemptStore *fakeAttemptStore
	answerStore  *fakeAnswerStore
	packageStore *fakePackageStore
	boardStore   *fakeLeaderboardStore

	attempts    *AttemptService
	autosave    *AutosaveService
	violations  *ViolationService
	leaderboard *LeaderboardService
}

func newTestEngine() *testEngine {
	log := zerolog.Nop()
	e := &testEngine{
		clock:        newFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		attemptStore: newFakeAttemptStore(),
		answerStore:  newFakeAnswerStore(),
		packageStore: newFakePackageStore(),
		boardStore:   newFakeLeaderboardStore(),
	}
	e.leaderboard = NewLeaderboardService(e.boardStore, nil, 0, log)
	e.attempts = NewAttemptService(e.attemptStore, e.answerStore, e.packageStore, e.leaderboard, AllowAllEntitlement{}, nil, e.clock, log)
	e.autosave = NewAutosaveService(e.attempts, e.answerStore, e.packageStore, e.clock, log)
	e.violations = NewViolationService(e.attempts, e.attemptStore, e.packageStore, e.clock, log)
	return e
}

// seedPackage registers a published 90-minute package with the given
// questions and returns its id.
func (e *testEngine) seedPackage(maxViolations int, questions ...model.Question) uuid.UUID {
	id := uuid.New()
	e.packageStore.packages[id] = &model.Package{
		ID:              id,
		Title:           "Try Out",
		DurationMinutes: 90,
		MaxViolations:   maxViolations,
		Status:          model.PackageStatusPublished,
	}
	for i := range questions {
		questions[i].PackageID = id
	}
	e.packageStore.questions[id] = questions
	return id
}

func singleChoiceQuestion(correct string, weight float64) model.Question {
	return model.Question{
		ID:              uuid.New(),
		QuestionType:    model.QuestionTypeSingleChoice,
		CorrectOptionID: correct,
		Weight:          weight,
	}
}

func strPtr(s string) *string { return &s }

func f64Ptr(f float64) *float64 { return &f }
