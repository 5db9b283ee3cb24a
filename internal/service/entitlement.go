package service

import (
	"context"

	"github.com/google/uuid"
)

// EntitlementChecker decides whether a user may start a new attempt against a
// package. Purchases, credits and quota live in the billing service; the
// engine only consumes the verdict. Implementations signal refusal with
// ErrInsufficientCredits, ErrMaxAttemptsReached or ErrExamNotAccessible.
type EntitlementChecker interface {
	CheckStart(ctx context.Context, userID int, packageID uuid.UUID) error
}

// AllowAllEntitlement approves every start request. Used in development and in
// deployments where access control happens upstream of this service.
type AllowAllEntitlement struct{}

func (AllowAllEntitlement) CheckStart(ctx context.Context, userID int, packageID uuid.UUID) error {
	return nil
}
