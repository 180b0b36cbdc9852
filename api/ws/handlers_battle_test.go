package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nanakusa/frontier/config"
	"github.com/nanakusa/frontier/game/battle"
	"github.com/nanakusa/frontier/game/factory"
	"github.com/nanakusa/frontier/game/session"
	"github.com/nanakusa/frontier/model"
	"github.com/nanakusa/frontier/testutil"
)

type battleFixture struct {
	router    *Router
	runner    *session.BattleRunner
	session   *session.TrainerSession
	runID     int64
	trainerID int64
}

func setupBattleHandlers(t *testing.T) *battleFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	res := testutil.SetupTestResources(t)
	log := zaptest.NewLogger(t)

	fac := factory.NewService(db, c, res, config.FactoryConfig{}, 50, log)
	eng := battle.NewEngine(res, battle.Config{})
	mgr := session.NewManager(log)
	runner := session.NewBattleRunner(eng, fac, nil, mgr, config.BattleConfig{
		InputTimeout: 5 * time.Second,
	}, log)

	acc := model.Account{Username: "ws-test", PasswordHash: "x"}
	require.NoError(t, db.Create(&acc).Error)
	prof := model.TrainerProfile{AccountID: acc.ID, Name: "Wesley"}
	require.NoError(t, db.Create(&prof).Error)

	run, err := fac.StartRun(context.Background(), acc.ID, prof.ID)
	require.NoError(t, err)
	var offers []int
	require.NoError(t, json.Unmarshal(run.Offers, &offers))
	_, err = fac.PickTeam(context.Background(), run.ID, acc.ID, offers[:3])
	require.NoError(t, err)

	r := NewRouter(log)
	NewBattleHandlers(runner, log).RegisterHandlers(r)

	s := testSession(acc.ID, prof.ID)
	mgr.Register(s)

	t.Cleanup(func() {
		runner.Abort(prof.ID)
		runner.Stop()
	})

	return &battleFixture{
		router:    r,
		runner:    runner,
		session:   s,
		runID:     run.ID,
		trainerID: prof.ID,
	}
}

// waitPacket reads packets until one of the given type arrives.
func waitPacket(t *testing.T, s *session.TrainerSession, typ string) *session.Packet {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case data := <-s.SendChan:
			var pkt session.Packet
			require.NoError(t, json.Unmarshal(data, &pkt))
			if pkt.Type == typ {
				return &pkt
			}
		case <-deadline:
			t.Fatalf("no %q packet received", typ)
			return nil
		}
	}
}

func TestHandlePing_SendsPong(t *testing.T) {
	f := setupBattleHandlers(t)
	f.router.Dispatch(f.session, frame(t, 1, "ping", map[string]int64{"ts": 777}))

	pkt := waitPacket(t, f.session, "pong")
	var body struct {
		ClientTS int64 `json:"client_ts"`
	}
	require.NoError(t, json.Unmarshal(pkt.Payload, &body))
	assert.Equal(t, int64(777), body.ClientTS)
}

func TestHandleBattleStart_MissingRunID(t *testing.T) {
	f := setupBattleHandlers(t)
	f.router.Dispatch(f.session, frame(t, 1, "battle_start", map[string]int64{}))

	pkt := waitPacket(t, f.session, "error")
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(pkt.Payload, &body))
	assert.Equal(t, "missing run_id", body.Message)
}

func TestHandleBattleStart_UnknownRun(t *testing.T) {
	f := setupBattleHandlers(t)
	f.router.Dispatch(f.session, frame(t, 1, "battle_start", map[string]int64{"run_id": 99999}))

	pkt := waitPacket(t, f.session, "error")
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(pkt.Payload, &body))
	assert.Equal(t, "run not found", body.Message)
}

func TestHandleBattleAction_NoBattle(t *testing.T) {
	f := setupBattleHandlers(t)
	f.router.Dispatch(f.session, frame(t, 1, "battle_action",
		battle.Action{Type: battle.ActionMove, Pos: 0, MoveSlot: 0}))

	pkt := waitPacket(t, f.session, "error")
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(pkt.Payload, &body))
	assert.Equal(t, "no active battle", body.Message)
}

func TestBattleFlow_StartForfeitEnd(t *testing.T) {
	f := setupBattleHandlers(t)

	f.router.Dispatch(f.session, frame(t, 1, "battle_start",
		map[string]int64{"run_id": f.runID}))
	waitPacket(t, f.session, "battle_accepted")
	waitPacket(t, f.session, "battle_start")
	waitPacket(t, f.session, "input_request")

	// Starting again while the battle runs is refused.
	f.router.Dispatch(f.session, frame(t, 2, "battle_start",
		map[string]int64{"run_id": f.runID}))
	pkt := waitPacket(t, f.session, "error")
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(pkt.Payload, &body))
	assert.Equal(t, "a battle is already in progress", body.Message)

	f.router.Dispatch(f.session, frame(t, 3, "battle_action",
		battle.Action{Type: battle.ActionForfeit, Pos: 0}))

	end := waitPacket(t, f.session, "battle_end")
	var endBody struct {
		Outcome string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(end.Payload, &endBody))
	assert.Equal(t, "loss", endBody.Outcome)

	waitPacket(t, f.session, "run_update")
}
