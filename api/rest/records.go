package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nanakusa/frontier/game/factory"
	"github.com/nanakusa/frontier/model"
)

// RecordHandler serves stored battle records and their replay
// verification. Records are public: a battle ID is an unguessable
// UUID, and sharing one is how players show off a streak.
type RecordHandler struct {
	db     *gorm.DB
	svc    *factory.Service
	logger *zap.Logger
}

// NewRecordHandler creates a RecordHandler.
func NewRecordHandler(db *gorm.DB, svc *factory.Service, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{db: db, svc: svc, logger: logger}
}

// Get handles GET /api/records/:battle_id. With ?verify=1 the battle
// is re-simulated from its seed and transcript and the response says
// whether the stored event log still matches.
func (h *RecordHandler) Get(c *gin.Context) {
	battleID := c.Param("battle_id")
	if battleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing battle_id"})
		return
	}

	var rec model.BattleRecord
	err := h.db.Where("battle_id = ?", battleID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp := gin.H{"record": rec}
	if c.Query("verify") == "1" {
		ok, verr := h.svc.VerifyRecord(&rec)
		if verr != nil {
			h.logger.Warn("record verification failed",
				zap.String("battle_id", battleID),
				zap.Error(verr))
			resp["verified"] = false
			resp["verify_error"] = verr.Error()
		} else {
			resp["verified"] = ok
		}
	}
	c.JSON(http.StatusOK, resp)
}

// List handles GET /api/records. It returns the caller's recent
// battles, newest first.
func (h *RecordHandler) List(c *gin.Context) {
	prof, ok := trainerProfile(c, h.db)
	if !ok {
		return
	}

	var recs []model.BattleRecord
	h.db.Where("trainer_id = ?", prof.ID).
		Order("created_at DESC").
		Limit(50).
		Find(&recs)
	c.JSON(http.StatusOK, gin.H{"records": recs})
}
