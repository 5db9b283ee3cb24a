package service

import "errors"

// Client-visible error taxonomy. Handlers map these onto response.ErrCode;
// everything else surfaces as an internal error.
var (
	// ErrNotFound covers both "does not exist" and "not owned by the caller".
	// The two are deliberately indistinguishable to avoid leaking existence.
	ErrNotFound = errors.New("attempt not found")

	// ErrExamEnded signals an operation against a resolved-terminal attempt.
	// It is a valid client-visible state, not a system failure: the client
	// must stop autosaving and move to the results view.
	ErrExamEnded = errors.New("exam has ended")

	// ErrInvalidAnswer signals an answer payload whose shape does not match
	// the question's declared type.
	ErrInvalidAnswer = errors.New("answer payload does not match question type")

	// ErrAlreadyInProgress signals an attempt-start collision: the user
	// already has an IN_PROGRESS attempt for this package.
	ErrAlreadyInProgress = errors.New("an attempt is already in progress")

	// Entitlement outcomes, surfaced through the same taxonomy for
	// consistency even though the check itself is external.
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrMaxAttemptsReached  = errors.New("maximum attempts reached")
	ErrExamNotAccessible   = errors.New("exam is not accessible")
)
