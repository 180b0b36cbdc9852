package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nanakusa/frontier/game/factory"
)

// LeaderboardHandler serves the streak leaderboard.
type LeaderboardHandler struct {
	svc    *factory.Service
	logger *zap.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(svc *factory.Service, logger *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{svc: svc, logger: logger}
}

// Top returns the best streaks, highest first.
// GET /api/leaderboard?limit=20
func (h *LeaderboardHandler) Top(c *gin.Context) {
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	entries, err := h.svc.TopStreaks(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("leaderboard query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// Refresh rebuilds the cached leaderboard from the database.
// POST /api/admin/leaderboard/refresh
func (h *LeaderboardHandler) Refresh(c *gin.Context) {
	n, err := h.svc.RefreshLeaderboard(c.Request.Context())
	if err != nil {
		h.logger.Error("leaderboard refresh failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"refreshed": n})
}
