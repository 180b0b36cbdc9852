package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nanakusa/frontier/audit"
	"github.com/nanakusa/frontier/game/factory"
	mw "github.com/nanakusa/frontier/middleware"
	"github.com/nanakusa/frontier/model"
	"github.com/nanakusa/frontier/resource"
)

// FactoryHandler handles run lifecycle REST endpoints.
type FactoryHandler struct {
	db    *gorm.DB
	svc   *factory.Service
	res   *resource.ResourceLoader
	audit *audit.Service
}

// NewFactoryHandler creates a FactoryHandler. auditSvc may be nil.
func NewFactoryHandler(db *gorm.DB, svc *factory.Service, res *resource.ResourceLoader, auditSvc *audit.Service) *FactoryHandler {
	return &FactoryHandler{db: db, svc: svc, res: res, audit: auditSvc}
}

// rentalView is the client-facing shape of a rental set.
type rentalView struct {
	SetID   int      `json:"set_id"`
	Species string   `json:"species"`
	Types   []string `json:"types"`
	Item    string   `json:"item,omitempty"`
	Nature  string   `json:"nature"`
	Moves   []string `json:"moves"`
}

// runView decorates a run row with resolved rental sets so clients can
// draft without a second round-trip.
type runView struct {
	Run         *model.FactoryRun `json:"run"`
	Offers      []rentalView      `json:"offers,omitempty"`
	Team        []rentalView      `json:"team,omitempty"`
	SwapOptions []rentalView      `json:"swap_options,omitempty"`
}

// StartRun handles POST /api/factory/runs.
func (h *FactoryHandler) StartRun(c *gin.Context) {
	prof, ok := trainerProfile(c, h.db)
	if !ok {
		return
	}
	run, err := h.svc.StartRun(c.Request.Context(), prof.AccountID, prof.ID)
	if err != nil {
		h.runError(c, err)
		return
	}
	h.auditRun(c, prof, &run.ID, "run.start", nil)
	c.JSON(http.StatusCreated, h.runView(run))
}

type pickTeamRequest struct {
	Picks []int `json:"picks" binding:"required"`
}

// PickTeam handles POST /api/factory/runs/:id/team.
func (h *FactoryHandler) PickTeam(c *gin.Context) {
	prof, ok := trainerProfile(c, h.db)
	if !ok {
		return
	}
	runID, ok := pathID(c)
	if !ok {
		return
	}
	var req pickTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	run, err := h.svc.PickTeam(c.Request.Context(), runID, prof.AccountID, req.Picks)
	if err != nil {
		h.runError(c, err)
		return
	}
	h.auditRun(c, prof, &run.ID, "run.pick_team", req)
	c.JSON(http.StatusOK, h.runView(run))
}

// GetRun handles GET /api/factory/runs/:id.
func (h *FactoryHandler) GetRun(c *gin.Context) {
	prof, ok := trainerProfile(c, h.db)
	if !ok {
		return
	}
	runID, ok := pathID(c)
	if !ok {
		return
	}
	run, err := h.svc.GetRun(c.Request.Context(), runID, prof.AccountID)
	if err != nil {
		h.runError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.runView(run))
}

type swapRequest struct {
	Give int `json:"give" binding:"required"`
	Take int `json:"take" binding:"required"`
}

// Swap handles POST /api/factory/runs/:id/swap. After a win one team
// member may be traded for one of the beaten opponent's.
func (h *FactoryHandler) Swap(c *gin.Context) {
	prof, ok := trainerProfile(c, h.db)
	if !ok {
		return
	}
	runID, ok := pathID(c)
	if !ok {
		return
	}
	var req swapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	run, err := h.svc.SwapMember(c.Request.Context(), runID, prof.AccountID, req.Give, req.Take)
	if err != nil {
		h.runError(c, err)
		return
	}
	h.auditRun(c, prof, &run.ID, "run.swap", req)
	c.JSON(http.StatusOK, h.runView(run))
}

// Retire handles POST /api/factory/runs/:id/retire. The run ends with
// its streak banked instead of waiting to be lost.
func (h *FactoryHandler) Retire(c *gin.Context) {
	prof, ok := trainerProfile(c, h.db)
	if !ok {
		return
	}
	runID, ok := pathID(c)
	if !ok {
		return
	}
	run, err := h.svc.RetireRun(c.Request.Context(), runID, prof.AccountID)
	if err != nil {
		h.runError(c, err)
		return
	}
	h.auditRun(c, prof, &run.ID, "run.retire", nil)
	c.JSON(http.StatusOK, h.runView(run))
}

// trainerProfile loads the caller's trainer card, failing the request
// when the account has none.
func trainerProfile(c *gin.Context, db *gorm.DB) (*model.TrainerProfile, bool) {
	accountID := mw.GetAccountID(c)
	var prof model.TrainerProfile
	err := db.Where("account_id = ?", accountID).First(&prof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusForbidden, gin.H{"error": "no trainer profile"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}
	return &prof, true
}

func (h *FactoryHandler) runError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, factory.ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
	case errors.Is(err, factory.ErrRunActive):
		c.JSON(http.StatusConflict, gin.H{"error": "an unfinished run already exists"})
	case errors.Is(err, factory.ErrRunOver),
		errors.Is(err, factory.ErrNotDrafting),
		errors.Is(err, factory.ErrNoTeam),
		errors.Is(err, factory.ErrBadPick),
		errors.Is(err, factory.ErrNoSwap):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *FactoryHandler) runView(run *model.FactoryRun) runView {
	v := runView{Run: run}
	if run.Status == model.RunStatusDrafting {
		v.Offers = h.rentalViews(decodeIDs(run.Offers))
	}
	v.Team = h.rentalViews(decodeIDs(run.Team))
	v.SwapOptions = h.rentalViews(decodeIDs(run.LastFoes))
	return v
}

func (h *FactoryHandler) rentalViews(ids []int) []rentalView {
	out := make([]rentalView, 0, len(ids))
	for _, id := range ids {
		set := h.res.RentalByID(id)
		if set == nil {
			continue
		}
		v := rentalView{SetID: set.ID, Nature: set.Nature}
		if sp := h.res.SpeciesByID(set.SpeciesID); sp != nil {
			v.Species = sp.Name
			v.Types = append(v.Types, sp.Type1.String())
			if sp.Type2 != resource.TypeNone {
				v.Types = append(v.Types, sp.Type2.String())
			}
		}
		if it := h.res.ItemByID(set.ItemID); it != nil {
			v.Item = it.Name
		}
		for _, mid := range set.Moves {
			if mv := h.res.MoveByID(mid); mv != nil {
				v.Moves = append(v.Moves, mv.Name)
			}
		}
		out = append(out, v)
	}
	return out
}

func (h *FactoryHandler) auditRun(c *gin.Context, prof *model.TrainerProfile, runID *int64, action string, req interface{}) {
	if h.audit == nil {
		return
	}
	h.audit.Log(audit.Entry{
		TraceID:     mw.GetTraceID(c),
		AccountID:   &prof.AccountID,
		TrainerID:   &prof.ID,
		TrainerName: prof.Name,
		Action:      action,
		Request:     req,
		IP:          c.ClientIP(),
		RunID:       runID,
	})
}

func decodeIDs(raw datatypes.JSON) []int {
	if len(raw) == 0 {
		return nil
	}
	var ids []int
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil
	}
	return ids
}
