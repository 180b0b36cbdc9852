package rest_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nanakusa/frontier/api/rest"
	"github.com/nanakusa/frontier/config"
	"github.com/nanakusa/frontier/game/battle"
	"github.com/nanakusa/frontier/game/factory"
	"github.com/nanakusa/frontier/game/session"
	"github.com/nanakusa/frontier/model"
	"github.com/nanakusa/frontier/scheduler"
	"github.com/nanakusa/frontier/testutil"
)

func newAdminRouter(t *testing.T) (*gin.Engine, *gorm.DB, *session.Manager) {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	res := testutil.SetupTestResources(t)
	logger := zap.NewNop()

	mgr := session.NewManager(logger)
	svc := factory.NewService(db, c, res, config.FactoryConfig{}, 50, logger)
	eng := battle.NewEngine(res, battle.Config{})
	runner := session.NewBattleRunner(eng, svc, nil, mgr, config.BattleConfig{}, logger)
	t.Cleanup(runner.Stop)
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)

	h := rest.NewAdminHandler(db, mgr, runner, sched, logger)
	r := gin.New()
	r.GET("/api/admin/stats", h.Stats)
	r.GET("/api/admin/trainers", h.ListTrainers)
	r.POST("/api/admin/kick/:id", h.KickTrainer)
	r.POST("/api/admin/accounts/:id/ban", h.BanAccount)
	r.GET("/api/admin/scheduler", h.ListSchedulerTasks)
	return r, db, mgr
}

func adminSession(accountID, trainerID int64, name string) *session.TrainerSession {
	return &session.TrainerSession{
		AccountID:   accountID,
		TrainerID:   trainerID,
		TrainerName: name,
		SendChan:    make(chan []byte, 16),
		Done:        make(chan struct{}),
	}
}

func TestAdminStats(t *testing.T) {
	r, _, mgr := newAdminRouter(t)
	mgr.Register(adminSession(1, 10, "Sawyer"))

	w := getJSON(r, "/api/admin/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Online        int `json:"online"`
		ActiveBattles int `json:"active_battles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Online)
	assert.Equal(t, 0, resp.ActiveBattles)
}

func TestAdminListTrainers(t *testing.T) {
	r, _, mgr := newAdminRouter(t)
	mgr.Register(adminSession(1, 11, "Kenji"))
	mgr.Register(adminSession(2, 12, "Mira"))

	w := getJSON(r, "/api/admin/trainers")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count    int `json:"count"`
		Trainers []struct {
			TrainerID   int64  `json:"trainer_id"`
			TrainerName string `json:"trainer_name"`
		} `json:"trainers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Trainers, 2)
}

func TestAdminKickTrainer(t *testing.T) {
	r, _, mgr := newAdminRouter(t)
	s := adminSession(1, 21, "Target")
	mgr.Register(s)

	w := postJSON(r, "/api/admin/kick/21", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.IsClosed())

	w = postJSON(r, "/api/admin/kick/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminBanAccount(t *testing.T) {
	r, db, mgr := newAdminRouter(t)
	acc := model.Account{Username: "badguy", PasswordHash: "x"}
	require.NoError(t, db.Create(&acc).Error)

	banned := adminSession(acc.ID, 31, "Banned")
	bystander := adminSession(acc.ID+1000, 32, "Bystander")
	mgr.Register(banned)
	mgr.Register(bystander)

	w := postJSON(r, fmt.Sprintf("/api/admin/accounts/%d/ban", acc.ID), map[string]bool{"ban": true})
	require.Equal(t, http.StatusOK, w.Code)

	var got model.Account
	require.NoError(t, db.First(&got, acc.ID).Error)
	assert.Equal(t, 0, got.Status)
	assert.True(t, banned.IsClosed(), "banned account's session must drop")
	assert.False(t, bystander.IsClosed())

	// Unban restores status without touching sessions.
	w = postJSON(r, fmt.Sprintf("/api/admin/accounts/%d/ban", acc.ID), map[string]bool{"ban": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, db.First(&got, acc.ID).Error)
	assert.Equal(t, 1, got.Status)
}

func TestAdminBanAccount_NotFound(t *testing.T) {
	r, _, _ := newAdminRouter(t)
	w := postJSON(r, "/api/admin/accounts/424242/ban", map[string]bool{"ban": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
