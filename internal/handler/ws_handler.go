package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/ujianku/tryout-backend/internal/middleware"
	"github.com/ujianku/tryout-backend/internal/model"
	"github.com/ujianku/tryout-backend/internal/service"
	ws "github.com/ujianku/tryout-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams one live attempt over a WebSocket: autosaves, violation
// reports and time sync share a single socket so the exam UI avoids HTTP
// round-trip overhead during the session.
type WSHandler struct {
	attempts   *service.AttemptService
	autosave   *service.AutosaveService
	violations *service.ViolationService
	log        zerolog.Logger
	upgrader   websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	attempts *service.AttemptService,
	autosave *service.AutosaveService,
	violations *service.ViolationService,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		attempts:   attempts,
		autosave:   autosave,
		violations: violations,
		log:        log.With().Str("component", "ws_handler").Logger(),
		upgrader:   buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/attempts/:attempt_id/stream
// Upgrades to WebSocket for the duration of one attempt.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt ID"})
		return
	}

	// Resolve before upgrading: a terminal or foreign attempt never gets a
	// socket.
	attempt, err := h.attempts.Resolve(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "attempt not found"})
		return
	}
	if attempt.Status != model.AttemptStatusInProgress {
		c.JSON(http.StatusConflict, gin.H{"error": "attempt has ended"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("attempt_id", attemptID.String()).
		Logger()

	wsLog.Info().Msg("Participant connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(c, conn, attemptID, claims.UserID, &msg)
		case ws.ActionViolation:
			h.handleViolation(c, conn, attemptID, claims.UserID, &msg)
		case ws.ActionSubmit:
			h.handleSubmit(c, conn, wsLog, attemptID, claims.UserID)
		case ws.ActionSync:
			h.handleSync(c, conn, attemptID, claims.UserID)
		case ws.ActionPing:
			_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleAutosave(c *gin.Context, conn *websocket.Conn, attemptID uuid.UUID, userID int, msg *ws.RequestPayload) {
	questionID, err := uuid.Parse(msg.QuestionID)
	if err != nil {
		_ = ws.WriteError(conn, "invalid question ID")
		return
	}

	req := &model.SaveAnswerRequest{
		SelectedOptionID:  msg.SelectedOptionID,
		SelectedOptionIDs: msg.SelectedOptionIDs,
		NumericAnswer:     msg.NumericAnswer,
		IsFlagged:         msg.IsFlagged,
		TimeSpentSeconds:  msg.TimeSpentSeconds,
	}

	if _, err := h.autosave.Save(c.Request.Context(), attemptID, userID, questionID, req); err != nil {
		h.writeServiceError(conn, err)
		return
	}

	_ = ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, QuestionID: msg.QuestionID})
}

func (h *WSHandler) handleViolation(c *gin.Context, conn *websocket.Conn, attemptID uuid.UUID, userID int, msg *ws.RequestPayload) {
	if msg.ViolationType == "" {
		_ = ws.WriteError(conn, "violation type required")
		return
	}

	report, err := h.violations.Report(c.Request.Context(), attemptID, userID, &model.ReportViolationRequest{
		Type:    msg.ViolationType,
		Details: msg.ViolationDetails,
	})
	if err != nil {
		h.writeServiceError(conn, err)
		return
	}

	_ = ws.WriteTyped(conn, ws.ViolationResponse{
		Event:        ws.EventViolation,
		Violations:   report.Violations,
		Disqualified: report.Disqualified,
	})
}

func (h *WSHandler) handleSubmit(c *gin.Context, conn *websocket.Conn, wsLog zerolog.Logger, attemptID uuid.UUID, userID int) {
	attempt, err := h.attempts.Finalize(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.writeServiceError(conn, err)
		return
	}

	resp := ws.FinishedResponse{Event: ws.EventFinished, Status: string(attempt.Status)}
	if attempt.Score != nil {
		resp.Score = *attempt.Score
	}
	if attempt.TotalCorrect != nil {
		resp.TotalCorrect = *attempt.TotalCorrect
	}

	wsLog.Info().Int("score", resp.Score).Msg("Attempt submitted over WS")
	_ = ws.WriteTyped(conn, resp)
}

func (h *WSHandler) handleSync(c *gin.Context, conn *websocket.Conn, attemptID uuid.UUID, userID int) {
	state, err := h.attempts.State(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.writeServiceError(conn, err)
		return
	}

	_ = ws.WriteTyped(conn, ws.SyncResponse{
		Event:            ws.EventSync,
		Status:           string(state.Attempt.Status),
		RemainingSeconds: state.RemainingSeconds,
	})
}

// writeServiceError translates engine errors for the socket. ErrExamEnded
// gets its own event so the client tears down cleanly instead of retrying.
func (h *WSHandler) writeServiceError(conn *websocket.Conn, err error) {
	if errors.Is(err, service.ErrExamEnded) {
		_ = ws.WriteTyped(conn, ws.EndedResponse{Event: ws.EventEnded, Status: "ended"})
		return
	}
	_ = ws.WriteError(conn, err.Error())
}
