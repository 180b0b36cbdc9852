package ws

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/nanakusa/frontier/game/battle"
	"github.com/nanakusa/frontier/game/factory"
	"github.com/nanakusa/frontier/game/session"
)

// BattleHandlers handles the battle WS messages.
type BattleHandlers struct {
	runner *session.BattleRunner
	logger *zap.Logger
}

// NewBattleHandlers creates a new BattleHandlers.
func NewBattleHandlers(runner *session.BattleRunner, logger *zap.Logger) *BattleHandlers {
	return &BattleHandlers{runner: runner, logger: logger}
}

// RegisterHandlers registers all battle handlers on the router.
func (bh *BattleHandlers) RegisterHandlers(r *Router) {
	r.On("ping", bh.HandlePing)
	r.On("battle_start", bh.HandleBattleStart)
	r.On("battle_action", bh.HandleBattleAction)
	r.On("battle_replacement", bh.HandleBattleReplacement)
}

// ------------------------------------------------------------------ ping

type pingPayload struct {
	TS int64 `json:"ts"`
}

// HandlePing responds to client heartbeat pings.
func (bh *BattleHandlers) HandlePing(_ context.Context, s *session.TrainerSession, raw json.RawMessage) error {
	var p pingPayload
	_ = json.Unmarshal(raw, &p)
	s.SendHeartbeatPong(p.TS)
	return nil
}

// ------------------------------------------------------------------ battle_start

type battleStartReq struct {
	RunID int64 `json:"run_id"`
}

// HandleBattleStart launches the run's next battle. The engine streams
// its own battle_start event once the leads are out.
func (bh *BattleHandlers) HandleBattleStart(ctx context.Context, s *session.TrainerSession, raw json.RawMessage) error {
	var req battleStartReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	if req.RunID == 0 {
		sendError(s, "missing run_id")
		return nil
	}

	battleID, err := bh.runner.Start(ctx, s, req.RunID)
	if err != nil {
		sendError(s, userMessage(err))
		return nil
	}

	payload, _ := json.Marshal(map[string]string{"battle_id": battleID})
	s.Send(&session.Packet{Type: "battle_accepted", Payload: payload})
	bh.logger.Info("battle accepted",
		zap.Int64("trainer_id", s.TrainerID),
		zap.String("battle_id", battleID))
	return nil
}

// ------------------------------------------------------------------ battle_action

// HandleBattleAction forwards one turn action into the live battle.
// The payload is the action itself: type, pos, move_slot, target or
// switch_to.
func (bh *BattleHandlers) HandleBattleAction(_ context.Context, s *session.TrainerSession, raw json.RawMessage) error {
	var act battle.Action
	if err := json.Unmarshal(raw, &act); err != nil {
		sendError(s, "malformed action")
		return nil
	}

	if err := bh.runner.SubmitAction(s.TrainerID, act); err != nil {
		sendError(s, userMessage(err))
	}
	return nil
}

// ------------------------------------------------------------------ battle_replacement

type replacementReq struct {
	Pos        int `json:"pos"`
	PartyIndex int `json:"party_index"`
}

// HandleBattleReplacement answers a need_replacement prompt with the
// party index to send out.
func (bh *BattleHandlers) HandleBattleReplacement(_ context.Context, s *session.TrainerSession, raw json.RawMessage) error {
	var req replacementReq
	if err := json.Unmarshal(raw, &req); err != nil {
		sendError(s, "malformed replacement")
		return nil
	}

	act := battle.Action{Type: battle.ActionSwitch, Pos: req.Pos, SwitchTo: req.PartyIndex}
	if err := bh.runner.SubmitAction(s.TrainerID, act); err != nil {
		sendError(s, userMessage(err))
	}
	return nil
}

func sendError(s *session.TrainerSession, msg string) {
	payload, _ := json.Marshal(map[string]string{"message": msg})
	s.Send(&session.Packet{Type: "error", Payload: payload})
}

// userMessage strips internal prefixes off errors that are safe to show
// the client; anything unexpected collapses to a generic message.
func userMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrBattleInProgress):
		return "a battle is already in progress"
	case errors.Is(err, session.ErrNoBattle):
		return "no active battle"
	case errors.Is(err, factory.ErrRunNotFound):
		return "run not found"
	case errors.Is(err, factory.ErrNoTeam):
		return "pick a team first"
	case errors.Is(err, factory.ErrNotDrafting):
		return "run is not drafting"
	default:
		return "request failed"
	}
}
