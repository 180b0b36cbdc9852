package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nanakusa/frontier/model"
)

// ProfileHandler serves the caller's own trainer card.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// Get returns the trainer card plus the current run, if one is open.
// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	prof, ok := trainerProfile(c, h.db)
	if !ok {
		return
	}

	resp := gin.H{"profile": prof}
	var run model.FactoryRun
	err := h.db.Where("trainer_id = ? AND status IN ?", prof.ID,
		[]string{model.RunStatusDrafting, model.RunStatusActive}).
		First(&run).Error
	if err == nil {
		resp["active_run"] = run
	}
	c.JSON(http.StatusOK, resp)
}
