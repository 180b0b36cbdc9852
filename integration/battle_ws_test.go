package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanakusa/frontier/model"
)

// prepRun registers a trainer, starts a run and drafts the first three
// offers, returning the login token and run ID.
func prepRun(t *testing.T, ts *TestServer, prefix string) (string, int64) {
	t.Helper()
	token, _ := ts.RegisterAndLogin(t, UniqueID(prefix))
	runID, offers := ts.StartRun(t, token)
	ts.PickTeam(t, token, runID, offers[:3])
	return token, runID
}

func TestBattleOverWebSocket(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	token, runID := prepRun(t, ts, "battler")
	ws := ts.ConnectWS(t, token)
	defer ws.Close()

	ws.Send("battle_start", map[string]interface{}{"run_id": runID})

	// battle_accepted and the engine's own event stream race each other
	// onto the socket, so drive everything from one receive loop. The
	// client opens with its first move, then concedes at the next turn
	// prompt.
	var battleID string
	var sawStart bool
	var outcome string
	acted := false

	deadline := time.Now().Add(30 * time.Second)
	for outcome == "" {
		require.False(t, time.Now().After(deadline), "battle did not finish in time")
		pkt, err := ws.RecvAny(10 * time.Second)
		require.NoError(t, err, "WS recv failed")

		switch pkt["type"] {
		case "battle_accepted":
			battleID = PayloadMap(t, pkt)["battle_id"].(string)
		case "battle_start":
			sawStart = true
			assert.NotZero(t, PayloadMap(t, pkt)["seed"])
		case "input_request":
			p := PayloadMap(t, pkt)
			if replace, _ := p["replace"].(bool); replace {
				// The lead went down on the opening turn; send the
				// second party slot out.
				pos := int(p["positions"].([]interface{})[0].(float64))
				ws.Send("battle_replacement", map[string]interface{}{
					"pos": pos, "party_index": 1,
				})
				continue
			}
			if !acted {
				acted = true
				ws.Send("battle_action", map[string]interface{}{
					"type": 0, "pos": 0, "move_slot": 0, "target": 1,
				})
				continue
			}
			ws.Send("battle_action", map[string]interface{}{"type": 2, "pos": 0})
		case "battle_end":
			outcome = PayloadMap(t, pkt)["outcome"].(string)
		case "error":
			t.Fatalf("battle error: %v", PayloadMap(t, pkt)["message"])
		}
	}

	require.NotEmpty(t, battleID)
	assert.True(t, sawStart, "battle_start event never arrived")
	assert.Equal(t, "loss", outcome, "conceding scores as a loss")

	// The report lands after the event stream closes.
	update := ws.RecvType("run_update", 10*time.Second)
	run := PayloadMap(t, update)
	assert.Equal(t, "lost", run["status"])

	// The record is public under its battle ID and replays cleanly.
	resp := ts.Get(t, "/api/records/"+battleID+"?verify=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var recResult struct {
		Record struct {
			Outcome  string `json:"outcome"`
			Turns    int    `json:"turns"`
			Opponent string `json:"opponent"`
		} `json:"record"`
		Verified bool `json:"verified"`
	}
	ReadJSON(t, resp, &recResult)
	assert.Equal(t, "loss", recResult.Record.Outcome)
	assert.GreaterOrEqual(t, recResult.Record.Turns, 1)
	assert.NotEmpty(t, recResult.Record.Opponent)
	assert.True(t, recResult.Verified, "replay must reproduce the stored log")

	// The loss landed on the trainer card.
	resp = ts.Get(t, "/api/profile", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profResult struct {
		Profile struct {
			Losses int `json:"losses"`
		} `json:"profile"`
	}
	ReadJSON(t, resp, &profResult)
	assert.Equal(t, 1, profResult.Profile.Losses)
}

func TestBattleRejectsSecondStart(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	token, runID := prepRun(t, ts, "eager")
	ws := ts.ConnectWS(t, token)
	defer ws.Close()

	ws.Send("battle_start", map[string]interface{}{"run_id": runID})
	ws.RecvType("battle_accepted", 5*time.Second)

	// A second start while the first battle is live is refused.
	ws.Send("battle_start", map[string]interface{}{"run_id": runID})
	errPkt := ws.RecvType("error", 5*time.Second)
	assert.Contains(t, PayloadMap(t, errPkt)["message"], "already in progress")

	// Concede so the runner drains before shutdown. The input channel
	// takes the action whether or not the prompt has been read.
	ws.Send("battle_action", map[string]interface{}{"type": 2, "pos": 0})
	ws.RecvType("battle_end", 10*time.Second)
}

func TestBattleDisconnectForfeits(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	token, runID := prepRun(t, ts, "ragequit")
	ws := ts.ConnectWS(t, token)

	ws.Send("battle_start", map[string]interface{}{"run_id": runID})
	ws.RecvType("input_request", 10*time.Second)

	// Dropping the socket mid-battle forfeits: the runner aborts the
	// instance and still files the report.
	ws.Close()

	require.Eventually(t, func() bool {
		var run model.FactoryRun
		if err := ts.DB.First(&run, runID).Error; err != nil {
			return false
		}
		return run.Status == model.RunStatusLost
	}, 10*time.Second, 50*time.Millisecond, "run never marked lost after disconnect")

	var rec model.BattleRecord
	require.NoError(t, ts.DB.Where("run_id = ?", runID).First(&rec).Error)
	assert.Equal(t, "loss", rec.Outcome)
}
