package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ujianku/tryout-backend/internal/model"
)

func seedBoard(t *testing.T, e *testEngine, pkgID uuid.UUID, scores map[int]int) {
	t.Helper()
	// Deterministic insertion order so tie ordering is reproducible.
	for userID := 1; userID <= len(scores); userID++ {
		score, ok := scores[userID]
		if !ok {
			continue
		}
		err := e.leaderboard.Upsert(context.Background(), &model.LeaderboardEntry{
			PackageID: pkgID,
			UserID:    userID,
			AttemptID: uuid.New(),
			Score:     score,
		})
		if err != nil {
			t.Fatalf("Upsert user %d: %v", userID, err)
		}
	}
}

func TestRankStrictlyGreater(t *testing.T) {
	e := newTestEngine()
	pkgID := uuid.New()
	// Scores: 900, 700, 700, 500. Tied users share rank 2; the next rank is 4.
	seedBoard(t, e, pkgID, map[int]int{1: 900, 2: 700, 3: 700, 4: 500})
	ctx := context.Background()

	tests := []struct {
		userID   int
		wantRank int64
	}{
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 4},
	}
	for _, tt := range tests {
		rank, err := e.leaderboard.Rank(ctx, pkgID, tt.userID)
		if err != nil {
			t.Fatalf("Rank user %d: %v", tt.userID, err)
		}
		if rank.Rank != tt.wantRank {
			t.Errorf("user %d rank = %d, want %d", tt.userID, rank.Rank, tt.wantRank)
		}
	}
}

func TestRankAbsentUser(t *testing.T) {
	e := newTestEngine()
	pkgID := uuid.New()
	seedBoard(t, e, pkgID, map[int]int{1: 900})

	rank, err := e.leaderboard.Rank(context.Background(), pkgID, 99)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if rank != nil {
		t.Errorf("rank = %+v, want nil for user with no scored attempt", rank)
	}
}

func TestTopNOrderAndTies(t *testing.T) {
	e := newTestEngine()
	pkgID := uuid.New()
	seedBoard(t, e, pkgID, map[int]int{1: 700, 2: 900, 3: 700})

	board, err := e.leaderboard.Board(context.Background(), pkgID, 2, 10)
	if err != nil {
		t.Fatalf("Board: %v", err)
	}

	wantOrder := []int{2, 1, 3} // 900 first; the 700s keep insertion order.
	if len(board.Entries) != len(wantOrder) {
		t.Fatalf("entries = %d, want %d", len(board.Entries), len(wantOrder))
	}
	for i, want := range wantOrder {
		if board.Entries[i].UserID != want {
			t.Errorf("position %d = user %d, want %d", i, board.Entries[i].UserID, want)
		}
	}
	if board.Me == nil || board.Me.Rank != 1 {
		t.Errorf("me = %+v, want rank 1 for user 2", board.Me)
	}
}

func TestTopNTruncates(t *testing.T) {
	e := newTestEngine()
	pkgID := uuid.New()
	seedBoard(t, e, pkgID, map[int]int{1: 100, 2: 200, 3: 300, 4: 400, 5: 500})

	board, err := e.leaderboard.Board(context.Background(), pkgID, 1, 3)
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	if len(board.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(board.Entries))
	}
	// User 1 is outside the slice but still gets their own rank.
	if board.Me == nil || board.Me.Rank != 5 {
		t.Errorf("me = %+v, want rank 5", board.Me)
	}
}

func TestUpsertKeepsLatestNotBest(t *testing.T) {
	e := newTestEngine()
	pkgID := uuid.New()
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()
	e.leaderboard.Upsert(ctx, &model.LeaderboardEntry{PackageID: pkgID, UserID: 1, AttemptID: first, Score: 800})
	// A later, worse attempt replaces the entry anyway.
	e.leaderboard.Upsert(ctx, &model.LeaderboardEntry{PackageID: pkgID, UserID: 1, AttemptID: second, Score: 300})

	board, err := e.leaderboard.Board(ctx, pkgID, 1, 10)
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	if len(board.Entries) != 1 {
		t.Fatalf("entries = %d, want 1 per user", len(board.Entries))
	}
	got := board.Entries[0]
	if got.Score != 300 || got.AttemptID != second {
		t.Errorf("entry = %+v, want the latest attempt (score 300)", got)
	}
}

func TestBoardSeparatesPackages(t *testing.T) {
	e := newTestEngine()
	pkgA := uuid.New()
	pkgB := uuid.New()
	ctx := context.Background()

	e.leaderboard.Upsert(ctx, &model.LeaderboardEntry{PackageID: pkgA, UserID: 1, AttemptID: uuid.New(), Score: 900})
	e.leaderboard.Upsert(ctx, &model.LeaderboardEntry{PackageID: pkgB, UserID: 1, AttemptID: uuid.New(), Score: 100})

	board, err := e.leaderboard.Board(ctx, pkgB, 1, 10)
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	if len(board.Entries) != 1 || board.Entries[0].Score != 100 {
		t.Errorf("board = %+v, want only the package B entry", board.Entries)
	}
}

func TestFinalizePlacesUserOnBoard(t *testing.T) {
	e := newTestEngine()
	q := singleChoiceQuestion("a", 1)
	pkgID := e.seedPackage(0, q)
	ctx := context.Background()

	attempt, _ := e.attempts.Start(ctx, 7, pkgID)
	e.autosave.Save(ctx, attempt.ID, 7, q.ID, &model.SaveAnswerRequest{SelectedOptionID: strPtr("a")})
	if _, err := e.attempts.Finalize(ctx, attempt.ID, 7); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	board, err := e.leaderboard.Board(ctx, pkgID, 7, 10)
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	if len(board.Entries) != 1 || board.Entries[0].AttemptID != attempt.ID {
		t.Fatalf("board = %+v, want the finalized attempt", board.Entries)
	}
	if board.Me == nil || board.Me.Rank != 1 || board.Me.Score != 1000 {
		t.Errorf("me = %+v, want rank 1 score 1000", board.Me)
	}
}
