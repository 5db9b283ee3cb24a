package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ujianku/tryout-backend/internal/middleware"
	"github.com/ujianku/tryout-backend/internal/model"
	"github.com/ujianku/tryout-backend/internal/response"
	"github.com/ujianku/tryout-backend/internal/service"
	"github.com/ujianku/tryout-backend/internal/validator"
)

// AttemptHandler exposes the attempt engine over HTTP: start, state reload,
// autosave, violation reporting and finalize.
type AttemptHandler struct {
	attempts   *service.AttemptService
	autosave   *service.AutosaveService
	violations *service.ViolationService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(
	attempts *service.AttemptService,
	autosave *service.AutosaveService,
	violations *service.ViolationService,
) *AttemptHandler {
	return &AttemptHandler{
		attempts:   attempts,
		autosave:   autosave,
		violations: violations,
	}
}

// StartAttempt godoc
// POST /api/v1/tryouts/:package_id/attempts
// Creates an IN_PROGRESS attempt with a server-computed deadline. The
// entitlement check runs before the engine touches anything.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	packageID, err := uuid.Parse(c.Param("package_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attempts.Start(c.Request.Context(), claims.UserID, packageID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt": attempt})
}

// GetAttemptState godoc
// GET /api/v1/attempts/:attempt_id
// Resolves the attempt (materializing a pending timeout) and returns the
// reload payload: attempt, remaining seconds, saved answers.
func (h *AttemptHandler) GetAttemptState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.attempts.State(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SaveAnswer godoc
// PUT /api/v1/attempts/:attempt_id/answers/:question_id
// Idempotent autosave of one answer. Returns EXAM_ENDED once the attempt is
// terminal so the client stops retrying.
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ans, err := h.autosave.Save(c.Request.Context(), attemptID, claims.UserID, questionID, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answer": ans})
}

// ReportViolation godoc
// POST /api/v1/attempts/:attempt_id/violations
// Records one proctoring incident; returns the updated count and whether the
// report triggered disqualification so the UI can redirect immediately.
func (h *AttemptHandler) ReportViolation(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReportViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	report, err := h.violations.Report(c.Request.Context(), attemptID, claims.UserID, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, report)
}

// FinalizeAttempt godoc
// POST /api/v1/attempts/:attempt_id/finalize
// User-initiated submit. Idempotent: repeated calls return the stored result.
func (h *AttemptHandler) FinalizeAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attempts.Finalize(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// failFromService maps the engine's error taxonomy onto response codes.
// EXAM_ENDED is deliberately distinguishable from generic failures so the
// client can redirect to the results view instead of showing a retry prompt.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrExamEnded):
		response.Fail(c, http.StatusConflict, response.ErrExamEnded)
	case errors.Is(err, service.ErrInvalidAnswer):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, service.ErrAlreadyInProgress):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyInProgress)
	case errors.Is(err, service.ErrInsufficientCredits):
		response.Fail(c, http.StatusPaymentRequired, response.ErrInsufficientCredit)
	case errors.Is(err, service.ErrMaxAttemptsReached):
		response.Fail(c, http.StatusForbidden, response.ErrMaxAttempts)
	case errors.Is(err, service.ErrExamNotAccessible):
		response.Fail(c, http.StatusForbidden, response.ErrExamNotAccessible)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
