package model

import (
	"time"

	"github.com/google/uuid"
)

// LeaderboardEntry is the materialized ranking row for one (package, user)
// pair. It always points at the user's most recent scored attempt for that
// package, never their best.
type LeaderboardEntry struct {
	ID        int64     `json:"-"`
	PackageID uuid.UUID `json:"package_id"`
	UserID    int       `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	AttemptID uuid.UUID `json:"attempt_id"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RankInfo is a user's own computed position on a package board.
type RankInfo struct {
	Rank  int64 `json:"rank"`
	Score int   `json:"score"`
}

// Leaderboard is the per-package board view: the cached top-N slice plus the
// requesting user's own rank, which is computed even when they fall outside
// the top-N.
type Leaderboard struct {
	PackageID uuid.UUID          `json:"package_id"`
	Entries   []LeaderboardEntry `json:"entries"`
	Me        *RankInfo          `json:"me,omitempty"`
}
