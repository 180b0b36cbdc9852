package rest_test

import (
	"context"
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
	"github.com/nanakusa/frontier/game/battle"
	"github.com/nanakusa/frontier/game/factory"
	mw "github.com/nanakusa/frontier/middleware"
	"github.com/nanakusa/frontier/model"
	"github.com/nanakusa/frontier/resource"
	"github.com/nanakusa/frontier/testutil"
)

type recordsFixture struct {
	router *gin.Engine
	db     *gorm.DB
	svc    *factory.Service
	res    *resource.ResourceLoader
}

func newRecordsRouter(t *testing.T) *recordsFixture {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	res := testutil.SetupTestResources(t)
	sec := testSecurity()
	svc := factory.NewService(db, c, res, config.FactoryConfig{}, 50, zap.NewNop())

	authH := rest.NewAuthHandler(db, c, sec, nil)
	recH := rest.NewRecordHandler(db, svc, zap.NewNop())

	r := gin.New()
	r.POST("/api/auth/register", authH.Register)
	r.POST("/api/auth/login", authH.Login)
	r.GET("/api/records/:battle_id", recH.Get)
	r.GET("/api/records", mw.Auth(sec, c), recH.List)
	return &recordsFixture{router: r, db: db, svc: svc, res: res}
}

// finishBattle stands up a run for the named trainer and plays its
// first battle to a forfeit so a record lands in the database.
func (f *recordsFixture) finishBattle(t *testing.T, username, battleID string) {
	t.Helper()
	var prof model.TrainerProfile
	require.NoError(t, f.db.Where("name = ?", username).First(&prof).Error)

	run, err := f.svc.StartRun(context.Background(), prof.AccountID, prof.ID)
	require.NoError(t, err)
	var offers []int
	require.NoError(t, json.Unmarshal(run.Offers, &offers))
	run, err = f.svc.PickTeam(context.Background(), run.ID, prof.AccountID, offers[:3])
	require.NoError(t, err)

	prep, err := f.svc.PrepareBattle(context.Background(), run.ID, prof.AccountID)
	require.NoError(t, err)

	eng := battle.NewEngine(f.res, battle.Config{})
	st := eng.StartBattle(prep.Seed, prep.Player, prep.Foe)
	policy := battle.FirstLegalPolicy{}
	var actions []battle.Action
	for _, pos := range st.OccupiedPositions() {
		if battle.SideOf(pos) == 0 {
			actions = append(actions, battle.Action{Type: battle.ActionForfeit, Pos: pos})
		} else {
			actions = append(actions, policy.ChooseAction(eng, st, pos))
		}
	}
	_, err = eng.ProcessTurn(st, actions)
	require.NoError(t, err)
	require.True(t, st.Over())

	_, err = f.svc.ReportBattle(context.Background(), factory.BattleReport{
		RunID:      run.ID,
		AccountID:  prof.AccountID,
		TrainerID:  prof.ID,
		BattleID:   battleID,
		Opponent:   prep.FoeTrainer,
		Round:      prep.Run.Round,
		PrepSeed:   prep.PrepSeed,
		PlayerSets: prep.PlayerSets,
		FoeSets:    prep.FoeSets,
		Seed:       prep.Seed,
		Outcome:    st.Outcome,
		Turns:      st.Turn,
		Transcript: st.Transcript,
		Events:     st.Events,
	})
	require.NoError(t, err)
}

func TestGetRecord_PublicFetch(t *testing.T) {
	f := newRecordsRouter(t)
	registerAndLogin(t, f.router, "reader")
	f.finishBattle(t, "reader", "rec-public")

	// No Authorization header: records are shareable by ID.
	w := getJSON(f.router, "/api/records/rec-public")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Record struct {
			BattleID string          `json:"battle_id"`
			Outcome  string          `json:"outcome"`
			Events   json.RawMessage `json:"events"`
		} `json:"record"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rec-public", resp.Record.BattleID)
	assert.Equal(t, "loss", resp.Record.Outcome)
	assert.NotEmpty(t, resp.Record.Events)
}

func TestGetRecord_Verify(t *testing.T) {
	f := newRecordsRouter(t)
	registerAndLogin(t, f.router, "prover")
	f.finishBattle(t, "prover", "rec-verify")

	w := getJSON(f.router, "/api/records/rec-verify?verify=1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Verified *bool `json:"verified"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Verified)
	assert.True(t, *resp.Verified)
}

func TestGetRecord_VerifyDetectsEdit(t *testing.T) {
	f := newRecordsRouter(t)
	registerAndLogin(t, f.router, "cheat")
	f.finishBattle(t, "cheat", "rec-edited")

	require.NoError(t, f.db.Model(&model.BattleRecord{}).
		Where("battle_id = ?", "rec-edited").
		Update("events", `[{"type":"battle_end","outcome":"win","turns":1}]`).Error)

	w := getJSON(f.router, "/api/records/rec-edited?verify=1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Verified *bool `json:"verified"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Verified)
	assert.False(t, *resp.Verified)
}

func TestGetRecord_NotFound(t *testing.T) {
	f := newRecordsRouter(t)
	w := getJSON(f.router, "/api/records/no-such-battle")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRecords_OwnOnly(t *testing.T) {
	f := newRecordsRouter(t)
	mine := registerAndLogin(t, f.router, "mine")
	registerAndLogin(t, f.router, "theirs")
	f.finishBattle(t, "mine", "rec-mine")
	f.finishBattle(t, "theirs", "rec-theirs")

	w := getJSON(f.router, "/api/records", "Authorization", "Bearer "+mine)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Records []struct {
			BattleID string `json:"battle_id"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "rec-mine", resp.Records[0].BattleID)
}
