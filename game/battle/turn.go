package battle

import (
	"sort"

	"github.com/nanakusa/frontier/resource"
)

// ActionType discriminates the submitted action variants.
type ActionType int

const (
	ActionMove ActionType = iota
	ActionSwitch
	ActionForfeit
)

// Action is one battler's declaration for the turn.
type Action struct {
	Type ActionType `json:"type"`
	Pos  int        `json:"pos"`

	// MoveSlot indexes the user's move list. -1 means Struggle.
	MoveSlot int `json:"move_slot"`
	// Target is the position the move is aimed at.
	Target int `json:"target"`

	// SwitchTo is the party index entering on a switch.
	SwitchTo int `json:"switch_to"`
}

// plannedMoveID resolves which move an action will actually run: a
// locked continuation wins over the chosen slot, and an empty slot
// means Struggle.
func plannedMoveID(st *State, act Action) int {
	if t := st.Timers[act.Pos]; t != nil && t.LockedMove != 0 {
		return t.LockedMove
	}
	if act.MoveSlot < 0 {
		return MoveStruggle
	}
	p := st.At(act.Pos)
	if p == nil {
		return 0
	}
	return p.Moves[act.MoveSlot].ID
}

// TurnManager determines the action order for a battle turn.
type TurnManager interface {
	// OrderActions returns the submitted actions in execution order.
	// The input slice is not modified.
	OrderActions(st *State, res *resource.ResourceLoader, actions []Action) []Action
}

// SpeedTurnManager implements the standard ordering: switches and
// forfeits resolve before any move; moves sort by priority bracket,
// then a Quick Claw proc, then effective speed; full ties fall to a
// roll from the battle's own generator, so replays agree.
type SpeedTurnManager struct{}

func (SpeedTurnManager) OrderActions(st *State, res *resource.ResourceLoader, actions []Action) []Action {
	type entry struct {
		act       Action
		bracket   int // 0 = switch/forfeit, 1 = move
		priority  int
		quickClaw bool
		speed     int
		tieRoll   uint16
	}

	// Rolls happen in position order so the consumed stream is stable.
	sorted := make([]Action, len(actions))
	copy(sorted, actions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Pos < sorted[j].Pos })

	entries := make([]entry, 0, len(sorted))
	for _, act := range sorted {
		en := entry{act: act, tieRoll: st.RNG.Next()}
		p := st.At(act.Pos)
		if act.Type == ActionMove && p != nil {
			en.bracket = 1
			if mv := res.MoveByID(plannedMoveID(st, act)); mv != nil {
				en.priority = mv.Priority
			}
			en.speed = effectiveSpeed(st, act.Pos)
			if item := res.ItemByID(p.ItemID); item != nil && item.HoldEffect == HoldQuickClaw {
				en.quickClaw = st.RNG.Percent(item.HoldParam)
			}
		}
		entries = append(entries, en)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.bracket != b.bracket {
			return a.bracket < b.bracket
		}
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		if a.quickClaw != b.quickClaw {
			return a.quickClaw
		}
		if a.speed != b.speed {
			return a.speed > b.speed
		}
		return a.tieRoll > b.tieRoll
	})

	out := make([]Action, len(entries))
	for i, en := range entries {
		out[i] = en.act
	}
	return out
}

// effectiveSpeed applies stages, paralysis and the weather speed
// abilities to the raw Speed stat.
func effectiveSpeed(st *State, pos int) int {
	p := st.At(pos)
	if p == nil {
		return 0
	}
	speed := stagedStat(p.Stats[StatSpeed], p.Stages[StatSpeed])
	switch p.Ability {
	case AbilitySwiftSwim:
		if st.Weather == WeatherRain {
			speed *= 2
		}
	case AbilityChlorophyll:
		if st.Weather == WeatherSun {
			speed *= 2
		}
	}
	if p.Status.Has(StatusParalysis) {
		speed /= 4
	}
	return speed
}
