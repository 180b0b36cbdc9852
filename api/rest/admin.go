package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nanakusa/frontier/game/session"
	"github.com/nanakusa/frontier/model"
	"github.com/nanakusa/frontier/scheduler"
)

// AdminHandler handles admin-only REST endpoints. Routes should sit
// behind the IP whitelist middleware.
type AdminHandler struct {
	db       *gorm.DB
	sessions *session.Manager
	runner   *session.BattleRunner
	sched    *scheduler.Scheduler
	logger   *zap.Logger
}

// NewAdminHandler builds the handler serving the /api/admin group.
func NewAdminHandler(
	db *gorm.DB,
	sessions *session.Manager,
	runner *session.BattleRunner,
	sched *scheduler.Scheduler,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{db: db, sessions: sessions, runner: runner, sched: sched, logger: logger}
}

// pathID parses the :id route parameter, writing the 400 itself on
// garbage input.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// Stats returns server health metrics.
// GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"online":         h.sessions.Count(),
		"active_battles": h.runner.Count(),
		"jobs":           h.sched.ListTickers(),
	})
}

// ListTrainers returns a snapshot of all connected trainers.
// GET /api/admin/trainers
func (h *AdminHandler) ListTrainers(c *gin.Context) {
	sessions := h.sessions.All()
	type trainerInfo struct {
		TrainerID   int64  `json:"trainer_id"`
		TrainerName string `json:"trainer_name"`
		AccountID   int64  `json:"account_id"`
	}
	result := make([]trainerInfo, 0, len(sessions))
	for _, s := range sessions {
		result = append(result, trainerInfo{
			TrainerID:   s.TrainerID,
			TrainerName: s.TrainerName,
			AccountID:   s.AccountID,
		})
	}
	c.JSON(http.StatusOK, gin.H{"trainers": result, "count": len(result)})
}

// KickTrainer forcibly disconnects a trainer by profile ID.
// POST /api/admin/kick/:id
func (h *AdminHandler) KickTrainer(c *gin.Context) {
	trainerID, ok := pathID(c)
	if !ok {
		return
	}
	s := h.sessions.Get(trainerID)
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "trainer not online"})
		return
	}
	s.Close()
	h.logger.Info("admin kicked trainer", zap.Int64("trainer_id", trainerID))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// BanAccount bans or unbans an account.
// POST /api/admin/accounts/:id/ban
func (h *AdminHandler) BanAccount(c *gin.Context) {
	accountID, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Ban bool `json:"ban"`
	}
	_ = c.ShouldBindJSON(&req)

	status := 1
	if req.Ban {
		status = 0
	}
	res := h.db.Model(&model.Account{}).
		Where("id = ?", accountID).
		Update("status", status)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	// Kick the trainer if currently online.
	if req.Ban {
		for _, s := range h.sessions.All() {
			if s.AccountID == accountID {
				s.Close()
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

// ListSchedulerTasks returns names of all registered maintenance jobs.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	tasks := h.sched.ListTickers()
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// RemoveSchedulerTask cancels a maintenance job until the next restart.
// DELETE /api/admin/scheduler/:name
func (h *AdminHandler) RemoveSchedulerTask(c *gin.Context) {
	name := c.Param("name")
	h.sched.Remove(name)
	h.logger.Info("scheduler task removed by admin", zap.String("name", name))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
