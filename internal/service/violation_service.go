package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/ujianku/tryout-backend/internal/model"
)

// ViolationService records proctoring incidents reported by the client-side
// probe and enforces the package's violation threshold. Recording the event
// and bumping the counter happen in one store transaction, so the counter
// always equals the number of event rows; threshold disqualification is a
// follow-on step of the same logical operation, not a second round trip.
type ViolationService struct {
	attempts     *AttemptService
	attemptStore AttemptStore
	packages     PackageStore
	clock        Clock
	log          zerolog.Logger
}

// NewViolationService creates a new ViolationService.
func NewViolationService(attempts *AttemptService, attemptStore AttemptStore, packages PackageStore, clock Clock, log zerolog.Logger) *ViolationService {
	return &ViolationService{
		attempts:     attempts,
		attemptStore: attemptStore,
		packages:     packages,
		clock:        clock,
		log:          log.With().Str("component", "violation_service").Logger(),
	}
}

// Report appends one violation event and returns the updated count plus
// whether the report crossed the package threshold. Two near-simultaneous
// reports may both observe a count at or past the threshold and both call
// Disqualify; the conditional transition makes that race harmless.
func (s *ViolationService) Report(ctx context.Context, attemptID uuid.UUID, userID int, req *model.ReportViolationRequest) (*model.ViolationReport, error) {
	attempt, err := s.attempts.Resolve(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, ErrExamEnded
	}

	count, err := s.attemptStore.RecordViolation(ctx, &model.ViolationEvent{
		AttemptID:  attemptID,
		Type:       req.Type,
		Details:    req.Details,
		RecordedAt: s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("record violation: %w", err)
	}

	pkg, err := s.packages.GetByID(ctx, attempt.PackageID)
	if err != nil {
		return nil, fmt.Errorf("get package: %w", err)
	}

	report := &model.ViolationReport{Violations: count}
	if pkg.MaxViolations > 0 && count >= pkg.MaxViolations {
		if _, err := s.attempts.Disqualify(ctx, attemptID, userID); err != nil {
			return nil, fmt.Errorf("disqualify: %w", err)
		}
		report.Disqualified = true

		s.log.Warn().
			Str("attempt_id", attemptID.String()).
			Int("violations", count).
			Int("threshold", pkg.MaxViolations).
			Msg("Attempt disqualified")
	}

	return report, nil
}
