package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ujianku/tryout-backend/internal/config"
	"github.com/ujianku/tryout-backend/internal/handler"
	"github.com/ujianku/tryout-backend/internal/middleware"
	"github.com/ujianku/tryout-backend/internal/response"
	"github.com/ujianku/tryout-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Attempt *handler.AttemptHandler
	Tryout  *handler.TryoutHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	tokenService *service.TokenService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for violation reports: the proctoring probe fires on every
	// focus change, so a stuck client must not be able to flood the append log.
	violationLimiter := middleware.NewRateLimiter(60, time.Minute)

	// ─── 1. Participant Group (JWT) ────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireParticipantJWT(tokenService))
	{
		api.POST("/tryouts/:package_id/attempts", handlers.Attempt.StartAttempt)
		api.GET("/tryouts/:package_id/paper", handlers.Tryout.GetPaper)
		api.GET("/tryouts/:package_id/leaderboard", handlers.Tryout.GetLeaderboard)

		api.GET("/attempts/:attempt_id", handlers.Attempt.GetAttemptState)
		api.PUT("/attempts/:attempt_id/answers/:question_id", handlers.Attempt.SaveAnswer)
		api.POST("/attempts/:attempt_id/violations",
			violationLimiter.Middleware(),
			handlers.Attempt.ReportViolation,
		)
		api.POST("/attempts/:attempt_id/finalize", handlers.Attempt.FinalizeAttempt)
	}

	// ─── 2. WebSocket Group (WS Auth) ──────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireParticipantWSAuth(tokenService))
	{
		ws.GET("/attempts/:attempt_id/stream", handlers.WS.AttemptStream)
	}

	return router
}
