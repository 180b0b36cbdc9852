package battle

// performSwitch replaces the battler at pos with the party member at
// partyIdx. The outgoing battler sheds everything bound to its stay on
// the field; forced marks replacements after a faint and dragged
// switches.
func (e *Engine) performSwitch(st *State, pos, partyIdx int, forced bool) {
	side := SideOf(pos)
	out := st.At(pos)

	outName := ""
	if out != nil {
		outName = out.Name
	}
	if out != nil && out.Alive() {
		if out.Ability == AbilityNaturalCure && out.Status.Has(StatusAny) {
			st.emit(EventAbility{Mon: st.Ref(pos), Ability: AbilityNaturalCure})
			out.Status = 0
			st.emit(EventCure{Target: st.Ref(pos), Status: "all", Cause: "ability"})
		}
		if out.Status.Has(StatusToxic) {
			out.Status.SetToxicCounter(0)
		}
		out.Volatile = 0
		out.Special = 0
		out.ChoiceMove = 0
		out.LastMove = 0
		out.ResetStages()
	}

	st.placeAt(side, partyIdx)
	st.emit(EventSwitch{Pos: pos, Out: outName, In: st.Snapshot(pos), Forced: forced})
	e.enterField(st, pos)
}

// batonPass relays the user's stages, substitute and bound conditions
// to the incoming battler.
func (e *Engine) batonPass(st *State, pos, partyIdx int) {
	out := st.At(pos)
	carriedVol := out.Volatile & (VolConfusionMask | VolFocusEnergy |
		VolSubstitute | VolEscapePrevented | VolCursed)
	carriedSp := out.Special & (SpLeechSeed | SpLeechSeedSource |
		SpRooted | SpPerishSong)
	stages := out.Stages
	carried := st.Timers[pos].batonPassed()

	e.performSwitch(st, pos, partyIdx, false)

	in := st.At(pos)
	in.Volatile |= carriedVol
	in.Special |= carriedSp
	in.Stages = stages
	st.Timers[pos] = carried
}

// enterField settles a fresh arrival: entry hazards first, then the
// abilities that announce themselves.
func (e *Engine) enterField(st *State, pos int) {
	p := st.At(pos)
	if p == nil || !p.Alive() {
		return
	}

	if n := st.Sides[SideOf(pos)].Spikes; n > 0 && p.Grounded() {
		dmg := p.MaxHP() / (8 - 2*(n-1))
		if dmg < 1 {
			dmg = 1
		}
		p.TakeDamage(dmg)
		st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: p.HP, Cause: "spikes"})
		e.checkFaint(st, pos)
		if !p.Alive() {
			return
		}
	}

	if p.Ability == AbilityIntimidate {
		if foe := Across(pos); st.At(foe).Alive() {
			st.emit(EventAbility{Mon: st.Ref(pos), Ability: AbilityIntimidate})
			e.tryStatDown(st, pos, foe, StatAtk, -1, true)
		}
	}
}
