package battle

import "github.com/nanakusa/frontier/resource"

// uproarActive reports whether anyone on the field is mid-uproar.
func uproarActive(st *State) bool {
	for pos := 0; pos < MaxPositions; pos++ {
		if p := st.At(pos); p.Alive() && p.Volatile.Uproar() > 0 {
			return true
		}
	}
	return false
}

// runCancelers walks the pre-move obstruction chain in its fixed
// order. Returns false when the battler loses its action; all counter
// bookkeeping for the checks happens here.
func (e *Engine) runCancelers(st *State, userPos int, mv *resource.Move) bool {
	user := st.At(userPos)
	timers := st.Timers[userPos]
	ref := st.Ref(userPos)

	// Sleep.
	if user.Status.SleepTurns() > 0 {
		if uproarActive(st) {
			user.Status.SetSleepTurns(0)
			st.emit(EventCure{Target: ref, Status: "sleep", Cause: "uproar"})
		} else if user.Status.DecSleep() {
			user.Volatile &^= VolNightmare
			st.emit(EventCure{Target: ref, Status: "sleep"})
		} else {
			st.emit(EventSkipped{Pos: userPos, Name: user.Name, Reason: "sleep"})
			return false
		}
	}

	// Freeze: one-in-five thaw each attempt, and the self-thawing
	// moves always break out.
	if user.Status.Has(StatusFreeze) {
		thaws := mv != nil && (mv.ID == MoveFlameWheel || mv.ID == MoveSacredFire)
		if thaws || st.RNG.Percent(20) {
			user.Status &^= StatusFreeze
			st.emit(EventCure{Target: ref, Status: "freeze"})
		} else {
			st.emit(EventSkipped{Pos: userPos, Name: user.Name, Reason: "freeze"})
			return false
		}
	}

	// Truant loafs every other attempt.
	if user.Ability == AbilityTruant {
		timers.TruantCount++
		if timers.TruantCount%2 == 0 {
			st.emit(EventSkipped{Pos: userPos, Name: user.Name, Reason: "truant"})
			return false
		}
	}

	// Recharging from the previous turn's blast.
	if timers.RechargeTimer > 0 {
		timers.RechargeTimer--
		st.emit(EventSkipped{Pos: userPos, Name: user.Name, Reason: "recharge"})
		return false
	}

	// Flinch.
	if user.Volatile.Has(VolFlinched) {
		st.emit(EventSkipped{Pos: userPos, Name: user.Name, Reason: "flinch"})
		return false
	}

	// Disable.
	if mv != nil && timers.DisabledMove == mv.ID && timers.DisableTimer > 0 {
		st.emit(EventFailed{User: ref, Reason: "move is disabled"})
		return false
	}

	// Taunt blocks status moves.
	if mv != nil && timers.TauntTimer > 0 && mv.Power == 0 {
		st.emit(EventFailed{User: ref, Reason: "taunted"})
		return false
	}

	// Imprison: a foe that sealed this move blocks it.
	if mv != nil && e.imprisonBlocks(st, userPos, mv.ID) {
		st.emit(EventFailed{User: ref, Reason: "sealed"})
		return false
	}

	// Confusion: tick, maybe snap out, maybe hit self.
	if n := user.Volatile.Confusion(); n > 0 {
		user.Volatile.SetConfusion(n - 1)
		if user.Volatile.Confusion() == 0 {
			st.emit(EventVolatile{Target: ref, Condition: "confusion", Ended: true})
		} else {
			st.emit(EventVolatile{Target: ref, Condition: "confusion"})
			if st.RNG.Next()&1 == 0 {
				e.confusionSelfHit(st, userPos)
				return false
			}
		}
	}

	// Full paralysis, one in four.
	if user.Status.Has(StatusParalysis) && int(st.RNG.Next()&0xFF) < 64 {
		st.emit(EventSkipped{Pos: userPos, Name: user.Name, Reason: "paralysis"})
		return false
	}

	// Infatuation, coin flip while the beloved is still out.
	if user.Volatile.Has(VolInfatuationMask) {
		held := false
		for pos := 0; pos < MaxPositions; pos++ {
			if user.Volatile.InfatuatedWith(pos) && st.At(pos).Alive() {
				held = true
				break
			}
		}
		if !held {
			user.Volatile &^= VolInfatuationMask
		} else if st.RNG.Next()&1 == 0 {
			st.emit(EventSkipped{Pos: userPos, Name: user.Name, Reason: "attract"})
			return false
		}
	}

	return true
}

// imprisonBlocks reports whether an opposing battler has sealed the
// given move.
func (e *Engine) imprisonBlocks(st *State, userPos, moveID int) bool {
	for _, foePos := range st.FoePositions(userPos) {
		foe := st.At(foePos)
		if foe.Special.Has(SpImprisoned) && foe.MoveSlotIndex(moveID) >= 0 {
			return true
		}
	}
	return false
}

// confusionSelfHit applies the 40 power typeless physical self-strike.
func (e *Engine) confusionSelfHit(st *State, pos int) {
	p := st.At(pos)
	atk := stagedStat(p.Stats[StatAtk], p.Stages[StatAtk])
	def := stagedStat(p.Stats[StatDef], p.Stages[StatDef])
	if def < 1 {
		def = 1
	}
	dmg := atk*40*(2*p.Level/5+2)/def/50 + 2
	dmg = e.rollVariance(st, dmg)

	// Self-inflicted, so the substitute does not soak it.
	p.TakeDamage(dmg)
	st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: p.HP, Cause: "confusion"})
	e.checkFaint(st, pos)
}
