package battle

import "github.com/nanakusa/frontier/resource"

// OpponentPolicy chooses actions for a scripted side. The live Instance
// consults it whenever a position it controls needs an action or a
// replacement.
type OpponentPolicy interface {
	ChooseAction(e *Engine, st *State, pos int) Action
	ChooseReplacement(e *Engine, st *State, pos int) int
}

// FirstLegalPolicy picks the first usable move slot and the first able
// reserve. It never weighs outcomes, so battles stay reproducible from
// the seed alone.
type FirstLegalPolicy struct{}

func (FirstLegalPolicy) ChooseAction(e *Engine, st *State, pos int) Action {
	p := st.At(pos)
	if p == nil || !p.Alive() {
		return Action{Type: ActionMove, Pos: pos, MoveSlot: -1}
	}
	if tm := st.Timers[pos]; tm != nil && tm.LockedMove != 0 {
		return Action{Type: ActionMove, Pos: pos, MoveSlot: tm.LockedSlot, Target: Across(pos)}
	}
	for i := range p.Moves {
		if p.Moves[i].ID == 0 || p.Moves[i].PP == 0 {
			continue
		}
		if e.moveBarrier(st, pos, i) != "" {
			continue
		}
		return Action{Type: ActionMove, Pos: pos, MoveSlot: i, Target: Across(pos)}
	}
	// Nothing usable, fall through to Struggle.
	return Action{Type: ActionMove, Pos: pos, MoveSlot: -1, Target: Across(pos)}
}

func (FirstLegalPolicy) ChooseReplacement(e *Engine, st *State, pos int) int {
	return st.firstAble(SideOf(pos))
}

// Flat score for status moves. Low enough that any damaging move the
// target is not immune to wins out.
const statusScore = 15

// GreedyPolicy plays like a facility trainer: it rates every usable
// slot by base power scaled for STAB and the type chart and picks the
// strongest, and it sends out the reserve whose best move fares best
// against the current foe. No dice are involved, so the choice is a
// pure function of the state.
type GreedyPolicy struct{}

func (GreedyPolicy) ChooseAction(e *Engine, st *State, pos int) Action {
	p := st.At(pos)
	if p == nil || !p.Alive() {
		return Action{Type: ActionMove, Pos: pos, MoveSlot: -1}
	}
	if tm := st.Timers[pos]; tm != nil && tm.LockedMove != 0 {
		return Action{Type: ActionMove, Pos: pos, MoveSlot: tm.LockedSlot, Target: Across(pos)}
	}
	target := st.At(Across(pos))
	// bestScore starts below zero so even a move the target is immune
	// to beats Struggle while it remains selectable.
	best, bestScore := -1, -1
	for i := range p.Moves {
		if p.Moves[i].ID == 0 || p.Moves[i].PP == 0 {
			continue
		}
		if e.moveBarrier(st, pos, i) != "" {
			continue
		}
		if sc := e.moveScore(p, target, p.Moves[i].ID); sc > bestScore {
			best, bestScore = i, sc
		}
	}
	if best < 0 {
		return Action{Type: ActionMove, Pos: pos, MoveSlot: -1, Target: Across(pos)}
	}
	return Action{Type: ActionMove, Pos: pos, MoveSlot: best, Target: Across(pos)}
}

func (GreedyPolicy) ChooseReplacement(e *Engine, st *State, pos int) int {
	side := SideOf(pos)
	target := st.At(Across(pos))
	best, bestScore := -1, -1
	for i, p := range st.Parties[side] {
		if !p.Alive() || st.onField(side, i) {
			continue
		}
		score := 0
		for j := range p.Moves {
			if p.Moves[j].ID == 0 || p.Moves[j].PP == 0 {
				continue
			}
			if sc := e.moveScore(p, target, p.Moves[j].ID); sc > score {
				score = sc
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// moveScore rates one move against a single target: base power with
// STAB and the chart multiplier folded in. The caller compares scores
// only against each other, so the scale is arbitrary.
func (e *Engine) moveScore(user, target *Pokemon, moveID int) int {
	mv := e.res.MoveByID(moveID)
	if mv == nil {
		return 0
	}
	if mv.Power == 0 {
		return statusScore
	}
	score := mv.Power
	if user.HasType(mv.Type) {
		score = score * 15 / 10
	}
	if target != nil {
		score = score * e.typeMultiplier(mv.Type, target) / resource.EffectNeutral
	}
	return score
}
