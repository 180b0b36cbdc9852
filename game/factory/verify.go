package factory

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/nanakusa/frontier/game/battle"
	"github.com/nanakusa/frontier/model"
)

// RebuildBattle reconstructs both parties of a recorded battle from
// rental data alone. The record's prep seed replays the trainer pick,
// the foe draft and every gender roll, so the teams come out identical
// to the ones the live battle was fought with.
func (svc *Service) RebuildBattle(rec *model.BattleRecord) (player, foe []*battle.Pokemon, seed uint32, err error) {
	playerSets := jsonInts(rec.PlayerSets)
	if len(playerSets) == 0 {
		return nil, nil, 0, fmt.Errorf("factory: record %s carries no player sets", rec.BattleID)
	}

	dealt, err := svc.dealBattle(uint32(rec.PrepSeed), playerSets, rec.Round)
	if err != nil {
		return nil, nil, 0, err
	}

	// The stored columns double as a tamper check: if the rental data
	// shipped with this build no longer deals the same matchup, the
	// record cannot be trusted to replay.
	if stored := jsonInts(rec.FoeSets); !reflect.DeepEqual(stored, dealt.foeSets) {
		return nil, nil, 0, fmt.Errorf("factory: record %s foe sets diverge from rental data", rec.BattleID)
	}
	if rec.Seed != int64(dealt.seed) {
		return nil, nil, 0, fmt.Errorf("factory: record %s seed diverges from rental data", rec.BattleID)
	}

	return dealt.player, dealt.foe, dealt.seed, nil
}

// VerifyRecord re-simulates a recorded battle from its prep seed and
// action transcript and reports whether the stored event log matches
// the fresh run. A mismatch means the record was edited after the
// fact or the battle rules changed since it was written.
func (svc *Service) VerifyRecord(rec *model.BattleRecord) (bool, error) {
	player, foe, seed, err := svc.RebuildBattle(rec)
	if err != nil {
		return false, err
	}

	var transcript []battle.TranscriptEntry
	if err := json.Unmarshal(rec.Actions, &transcript); err != nil {
		return false, fmt.Errorf("factory: decode transcript: %w", err)
	}

	eng := battle.NewEngine(svc.res, battle.Config{})
	st, err := battle.Replay(eng, seed, player, foe, transcript)
	if err != nil {
		return false, fmt.Errorf("factory: replay %s: %w", rec.BattleID, err)
	}

	fresh, err := json.Marshal(st.Events)
	if err != nil {
		return false, fmt.Errorf("factory: encode events: %w", err)
	}
	return jsonEqual(rec.Events, fresh), nil
}

// jsonEqual compares two JSON documents by value. The database
// normalizes stored JSON, so byte equality is too strict.
func jsonEqual(a, b []byte) bool {
	var va, vb interface{}
	if err := json.Unmarshal(a, &va); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}
