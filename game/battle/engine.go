package battle

import (
	"go.uber.org/zap"

	"github.com/nanakusa/frontier/resource"
)

// Config tunes an Engine. Zero values fall back to quiet defaults, so
// tests can pass a bare struct.
type Config struct {
	Logger *zap.Logger
	Turns  TurnManager
}

// Engine runs battles against loaded game data. It keeps no battle
// state of its own; every call threads a State through, so one engine
// serves any number of concurrent battles.
type Engine struct {
	res   *resource.ResourceLoader
	log   *zap.Logger
	turns TurnManager
}

func NewEngine(res *resource.ResourceLoader, cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	turns := cfg.Turns
	if turns == nil {
		turns = SpeedTurnManager{}
	}
	return &Engine{res: res, log: log, turns: turns}
}

// TurnResult reports what one processed submission produced.
type TurnResult struct {
	// Events is the slice of the battle log this call appended.
	Events  []BattleEvent
	Outcome Outcome

	// AwaitingReplacement lists positions suspended on a forced
	// switch-in. While non-empty, only SubmitReplacement is accepted.
	AwaitingReplacement []int
}

// StartBattle builds the battle state, fields the leads and writes the
// opening event.
func (e *Engine) StartBattle(seed uint32, sideA, sideB []*Pokemon) *State {
	st := NewState(seed, sideA, sideB)
	var leads [2]MonSnapshot
	for side := 0; side < NumSides; side++ {
		leads[side] = st.Snapshot(side)
	}
	st.emit(EventBattleStart{Seed: seed, Leads: leads})
	e.log.Debug("battle started",
		zap.Uint32("seed", seed),
		zap.String("lead_a", leads[0].Name),
		zap.String("lead_b", leads[1].Name),
	)
	return st
}

// ProcessTurn validates and runs one full turn. The whole submission
// is refused on any invalid action; nothing mutates until every action
// passes.
func (e *Engine) ProcessTurn(st *State, actions []Action) (*TurnResult, error) {
	if st.Over() {
		return nil, ErrBattleOver
	}
	if st.AwaitingInput() {
		return nil, ErrAwaitingReplacement
	}
	if err := e.validateActions(st, actions); err != nil {
		return nil, err
	}
	st.Transcript = append(st.Transcript, TranscriptEntry{
		Turn:    st.Turn + 1,
		Actions: append([]Action(nil), actions...),
	})

	mark := len(st.Events)
	st.Turn++
	for pos := 0; pos < MaxPositions; pos++ {
		st.Flags[pos].reset()
	}

	ordered := e.turns.OrderActions(st, e.res, actions)
	order := make([]MonRef, len(ordered))
	for i, act := range ordered {
		order[i] = st.Ref(act.Pos)
	}
	st.emit(EventTurnStart{Turn: st.Turn, Order: order})

	for i, act := range ordered {
		if st.Over() {
			break
		}
		// The last actor of a contested turn cannot lead with a
		// shield.
		if i > 0 && i == len(ordered)-1 {
			st.Flags[act.Pos].NotFirstStrike = true
		}
		e.executeAction(st, act)
	}

	if !st.Over() {
		e.endTurn(st)
	}

	waiting := e.scanReplacements(st)
	st.emit(EventTurnEnd{Turn: st.Turn})
	if st.Over() {
		st.emit(EventBattleEnd{Outcome: st.Outcome.String(), Turns: st.Turn})
	}
	e.log.Debug("turn processed",
		zap.Int("turn", st.Turn),
		zap.Int("events", len(st.Events)-mark),
		zap.String("outcome", st.Outcome.String()),
	)

	return &TurnResult{
		Events:              st.Events[mark:],
		Outcome:             st.Outcome,
		AwaitingReplacement: waiting,
	}, nil
}

// SubmitReplacement fills one suspended position after a faint. Entry
// hazards can drop the replacement too, re-suspending the slot.
func (e *Engine) SubmitReplacement(st *State, pos, partyIdx int) (*TurnResult, error) {
	if st.Over() {
		return nil, ErrBattleOver
	}
	if pos < 0 || pos >= MaxPositions || !st.NeedReplacement[pos] {
		return nil, validationErr(pos, "no replacement pending")
	}
	side := SideOf(pos)
	if partyIdx < 0 || partyIdx >= len(st.Parties[side]) {
		return nil, validationErr(pos, "party index %d out of range", partyIdx)
	}
	if !st.Parties[side][partyIdx].Alive() {
		return nil, validationErr(pos, "party member %d has fainted", partyIdx)
	}
	if st.onField(side, partyIdx) {
		return nil, validationErr(pos, "party member %d is already on the field", partyIdx)
	}
	st.Transcript = append(st.Transcript, TranscriptEntry{
		Turn:    st.Turn,
		Actions: []Action{{Type: ActionSwitch, Pos: pos, SwitchTo: partyIdx}},
		Replace: true,
	})

	mark := len(st.Events)
	st.NeedReplacement[pos] = false
	e.performSwitch(st, pos, partyIdx, true)
	st.Timers[pos].FirstTurn = 1

	waiting := e.scanReplacements(st)
	if st.Over() {
		st.emit(EventBattleEnd{Outcome: st.Outcome.String(), Turns: st.Turn})
	}
	return &TurnResult{
		Events:              st.Events[mark:],
		Outcome:             st.Outcome,
		AwaitingReplacement: waiting,
	}, nil
}

// scanReplacements marks every empty slot whose side still has a
// bench, and reports the waiting set.
func (e *Engine) scanReplacements(st *State) []int {
	if st.Over() {
		for pos := range st.NeedReplacement {
			st.NeedReplacement[pos] = false
		}
		return nil
	}
	var fresh, waiting []int
	for pos := 0; pos < MaxPositions; pos++ {
		p := st.At(pos)
		if p == nil || p.Alive() {
			continue
		}
		if st.AbleReserves(SideOf(pos)) == 0 {
			continue
		}
		if !st.NeedReplacement[pos] {
			st.NeedReplacement[pos] = true
			fresh = append(fresh, pos)
		}
		waiting = append(waiting, pos)
	}
	if len(fresh) > 0 {
		st.emit(EventNeedReplacement{Positions: fresh})
	}
	return waiting
}

// validateActions rejects a turn submission unless every occupied
// position declares exactly one legal action.
func (e *Engine) validateActions(st *State, actions []Action) error {
	var seen [MaxPositions]bool
	for _, act := range actions {
		if act.Pos < 0 || act.Pos >= MaxPositions || st.At(act.Pos) == nil {
			return validationErr(act.Pos, "no battler at position")
		}
		if !st.At(act.Pos).Alive() {
			return validationErr(act.Pos, "battler has fainted")
		}
		if seen[act.Pos] {
			return validationErr(act.Pos, "duplicate action")
		}
		seen[act.Pos] = true

		switch act.Type {
		case ActionMove:
			if err := e.validateMove(st, act); err != nil {
				return err
			}
		case ActionSwitch:
			if err := e.validateSwitch(st, act); err != nil {
				return err
			}
		case ActionForfeit:
		default:
			return validationErr(act.Pos, "unknown action type %d", act.Type)
		}
	}

	for pos := 0; pos < MaxPositions; pos++ {
		if st.At(pos).Alive() && !seen[pos] {
			return validationErr(pos, "missing action")
		}
	}
	return nil
}

func (e *Engine) validateMove(st *State, act Action) error {
	p := st.At(act.Pos)

	// A locked continuation ignores the submitted slot.
	if st.Timers[act.Pos].LockedMove != 0 {
		return nil
	}

	if act.MoveSlot == -1 {
		if p.HasUsableMove(func(slot int) bool { return e.moveBarrier(st, act.Pos, slot) == "" }) {
			return validationErr(act.Pos, "usable moves remain")
		}
		return nil
	}
	if act.MoveSlot < 0 || act.MoveSlot >= len(p.Moves) {
		return validationErr(act.Pos, "move slot %d out of range", act.MoveSlot)
	}
	ms := p.Moves[act.MoveSlot]
	if ms.ID == 0 {
		return validationErr(act.Pos, "empty move slot %d", act.MoveSlot)
	}
	if ms.PP <= 0 {
		return validationErr(act.Pos, "no PP left in slot %d", act.MoveSlot)
	}
	if reason := e.moveBarrier(st, act.Pos, act.MoveSlot); reason != "" {
		return validationErr(act.Pos, "%s", reason)
	}
	return nil
}

// moveBarrier returns why a known, stocked move slot is still not
// selectable, or empty when it is.
func (e *Engine) moveBarrier(st *State, pos, slot int) string {
	p := st.At(pos)
	timers := st.Timers[pos]
	id := p.Moves[slot].ID
	mv := e.res.MoveByID(id)

	if timers.DisabledMove == id && timers.DisableTimer > 0 {
		return "move is disabled"
	}
	if timers.EncoreTimer > 0 && slot != timers.EncoredSlot {
		return "locked into the encored move"
	}
	if p.Volatile.Has(VolTorment) && p.LastMove == id {
		return "torment forbids repeating the move"
	}
	if timers.TauntTimer > 0 && mv != nil && mv.Power == 0 {
		return "taunt forbids status moves"
	}
	if p.ChoiceMove != 0 && p.ChoiceMove != id {
		return "choice item locks another move"
	}
	if e.imprisonBlocks(st, pos, id) {
		return "move is sealed"
	}
	return ""
}

func (e *Engine) validateSwitch(st *State, act Action) error {
	p := st.At(act.Pos)
	side := SideOf(act.Pos)
	timers := st.Timers[act.Pos]

	if timers.LockedMove != 0 {
		return validationErr(act.Pos, "locked into a move")
	}
	if p.Volatile.Has(VolEscapePrevented) || p.Volatile.Wrapped() > 0 || p.Special.Has(SpRooted) {
		return validationErr(act.Pos, "trapped")
	}
	if act.SwitchTo < 0 || act.SwitchTo >= len(st.Parties[side]) {
		return validationErr(act.Pos, "party index %d out of range", act.SwitchTo)
	}
	if !st.Parties[side][act.SwitchTo].Alive() {
		return validationErr(act.Pos, "party member %d has fainted", act.SwitchTo)
	}
	if st.onField(side, act.SwitchTo) {
		return validationErr(act.Pos, "party member %d is already on the field", act.SwitchTo)
	}
	return nil
}
