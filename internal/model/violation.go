package model

import (
	"time"

	"github.com/google/uuid"
)

// ViolationEvent is one append-only record of a detected proctoring incident.
// Rows are never updated or deleted; the attempt's violations counter always
// equals the number of rows for that attempt.
type ViolationEvent struct {
	ID         int64     `json:"id"`
	AttemptID  uuid.UUID `json:"attempt_id"`
	Type       string    `json:"type"`
	Details    string    `json:"details,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ReportViolationRequest is the payload sent by the client-side proctoring probe.
type ReportViolationRequest struct {
	Type    string `json:"type" binding:"required,min=1,max=50"`
	Details string `json:"details" binding:"omitempty,max=2000"`
}

// ViolationReport is returned to the probe so the UI can redirect immediately
// when the report crossed the package threshold.
type ViolationReport struct {
	Violations   int  `json:"violations"`
	Disqualified bool `json:"disqualified"`
}
