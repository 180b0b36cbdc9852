package rest_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nanakusa/frontier/api/rest"
	"github.com/nanakusa/frontier/config"
	"github.com/nanakusa/frontier/game/factory"
	"github.com/nanakusa/frontier/model"
	"github.com/nanakusa/frontier/testutil"
)

func newLeaderboardRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	res := testutil.SetupTestResources(t)
	svc := factory.NewService(db, c, res, config.FactoryConfig{}, 50, zap.NewNop())
	h := rest.NewLeaderboardHandler(svc, zap.NewNop())

	r := gin.New()
	r.GET("/api/leaderboard", h.Top)
	r.POST("/api/admin/leaderboard/refresh", h.Refresh)
	return r, db
}

func seedStreaks(t *testing.T, db *gorm.DB) {
	t.Helper()
	rows := []struct {
		name   string
		streak int
	}{
		{"ruby", 21},
		{"sapphire", 14},
		{"emerald", 7},
	}
	for _, row := range rows {
		acc := model.Account{Username: row.name, PasswordHash: "x"}
		require.NoError(t, db.Create(&acc).Error)
		require.NoError(t, db.Create(&model.TrainerProfile{
			AccountID:  acc.ID,
			Name:       row.name,
			BestStreak: row.streak,
			Wins:       row.streak,
		}).Error)
	}
}

func TestLeaderboard_Top(t *testing.T) {
	r, db := newLeaderboardRouter(t)
	seedStreaks(t, db)

	w := getJSON(r, "/api/leaderboard")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Leaderboard []struct {
			Rank        int    `json:"rank"`
			TrainerName string `json:"trainer_name"`
			BestStreak  int    `json:"best_streak"`
		} `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Leaderboard, 3)
	assert.Equal(t, "ruby", resp.Leaderboard[0].TrainerName)
	assert.Equal(t, 21, resp.Leaderboard[0].BestStreak)
	assert.Equal(t, 1, resp.Leaderboard[0].Rank)
	assert.Equal(t, "emerald", resp.Leaderboard[2].TrainerName)
}

func TestLeaderboard_Limit(t *testing.T) {
	r, db := newLeaderboardRouter(t)
	seedStreaks(t, db)

	w := getJSON(r, "/api/leaderboard?limit=2")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Leaderboard []json.RawMessage `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Leaderboard, 2)
}

func TestLeaderboard_Refresh(t *testing.T) {
	r, db := newLeaderboardRouter(t)
	seedStreaks(t, db)

	w := postJSON(r, "/api/admin/leaderboard/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Refreshed int `json:"refreshed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Refreshed)
}
