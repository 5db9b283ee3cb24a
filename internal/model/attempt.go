package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt lifecycle states.
type AttemptStatus string

const (
	AttemptStatusInProgress   AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted    AttemptStatus = "COMPLETED"
	AttemptStatusTimedOut     AttemptStatus = "TIMED_OUT"
	AttemptStatusDisqualified AttemptStatus = "DISQUALIFIED"
)

// Terminal reports whether no further transition can leave the status.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptStatusCompleted || s == AttemptStatusTimedOut || s == AttemptStatusDisqualified
}

// Attempt represents one participant's timed session against one tryout package.
// StartedAt and ServerDeadline are set once at creation and never change;
// FinishedAt, Score and TotalCorrect are written exactly once, together with the
// terminal status.
type Attempt struct {
	ID             uuid.UUID     `json:"id"`
	UserID         int           `json:"user_id"`
	PackageID      uuid.UUID     `json:"package_id"`
	StartedAt      time.Time     `json:"started_at"`
	ServerDeadline time.Time     `json:"server_deadline"`
	FinishedAt     *time.Time    `json:"finished_at,omitempty"`
	Status         AttemptStatus `json:"status"`
	Violations     int           `json:"violations"`
	Score          *int          `json:"score,omitempty"`
	TotalCorrect   *int          `json:"total_correct,omitempty"`
}

// AttemptState is the reload payload for an in-flight attempt: everything the
// client needs to resume after a refresh.
type AttemptState struct {
	Attempt          Attempt  `json:"attempt"`
	RemainingSeconds float64  `json:"remaining_seconds"`
	Answers          []Answer `json:"answers"`
}
