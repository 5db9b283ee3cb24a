package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ujianku/tryout-backend/internal/middleware"
	"github.com/ujianku/tryout-backend/internal/repository"
	"github.com/ujianku/tryout-backend/internal/response"
	"github.com/ujianku/tryout-backend/internal/service"
)

// TryoutHandler serves the package-scoped surfaces: the participant-safe
// paper and the ranked leaderboard.
type TryoutHandler struct {
	leaderboard *service.LeaderboardService
	packages    *repository.PackageRepository
	topN        int
}

// NewTryoutHandler creates a new TryoutHandler.
func NewTryoutHandler(leaderboard *service.LeaderboardService, packages *repository.PackageRepository, topN int) *TryoutHandler {
	return &TryoutHandler{
		leaderboard: leaderboard,
		packages:    packages,
		topN:        topN,
	}
}

// GetLeaderboard godoc
// GET /api/v1/tryouts/:package_id/leaderboard
// Returns the top-N board plus the caller's own rank even outside the top-N.
func (h *TryoutHandler) GetLeaderboard(c *gin.Context) {
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

	board, err := h.leaderboard.Board(c.Request.Context(), packageID, claims.UserID, h.topN)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, board)
}

// GetPaper godoc
// GET /api/v1/tryouts/:package_id/paper
// Returns the question set without answer keys.
func (h *TryoutHandler) GetPaper(c *gin.Context) {
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

	paper, err := h.packages.Paper(c.Request.Context(), packageID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": paper})
}
