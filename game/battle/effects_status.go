package battle

import "github.com/nanakusa/frontier/resource"

// statusImmune returns the reason a major status cannot take, or empty
// when it can. The self flag marks self-inflicted conditions (Rest),
// which skip the foe-facing protections.
func (e *Engine) statusImmune(st *State, userPos, targetPos int, status Status, self bool) string {
	target := st.At(targetPos)

	if target.Status.Has(StatusAny) {
		return "already_statused"
	}
	if !self {
		if target.Volatile.Has(VolSubstitute) {
			return "substitute"
		}
		if st.Sides[SideOf(targetPos)].SafeguardTimer > 0 {
			return "safeguard"
		}
	}

	switch status {
	case StatusPoison, StatusToxic:
		if target.HasType(resource.TypePoison) || target.HasType(resource.TypeSteel) {
			return "type"
		}
		if target.Ability == AbilityImmunity {
			return AbilityImmunity
		}
	case StatusBurn:
		if target.HasType(resource.TypeFire) {
			return "type"
		}
		if target.Ability == AbilityWaterVeil {
			return AbilityWaterVeil
		}
	case StatusParalysis:
		if target.HasType(resource.TypeElectric) {
			return "type"
		}
		if target.Ability == AbilityLimber {
			return AbilityLimber
		}
	case StatusFreeze:
		if target.HasType(resource.TypeIce) {
			return "type"
		}
		if st.Weather == WeatherSun {
			return "sunlight"
		}
		if target.Ability == AbilityMagmaArmor {
			return AbilityMagmaArmor
		}
	case StatusSleepMask:
		if target.Ability == AbilityInsomnia || target.Ability == AbilityVitalSpirit {
			return target.Ability
		}
		if uproarActive(st) {
			return "uproar"
		}
	}
	return ""
}

// tryInflictStatus applies a major status if nothing prevents it.
// loud controls whether a block is reported (status moves announce
// their failure, riders stay quiet).
func (e *Engine) tryInflictStatus(st *State, userPos, targetPos int, status Status, loud bool) bool {
	target := st.At(targetPos)
	if !target.Alive() {
		return false
	}
	self := userPos == targetPos
	if reason := e.statusImmune(st, userPos, targetPos, status, self); reason != "" {
		if loud {
			e.reportStatusBlock(st, targetPos, reason)
		}
		return false
	}

	switch status {
	case StatusSleepMask:
		target.Status.SetSleepTurns(2 + st.RNG.Intn(4))
		st.emit(EventStatus{Target: st.Ref(targetPos), Status: "sleep"})
	case StatusToxic:
		target.Status |= StatusToxic
		target.Status.SetToxicCounter(0)
		st.emit(EventStatus{Target: st.Ref(targetPos), Status: "toxic"})
	default:
		target.Status |= status
		st.emit(EventStatus{Target: st.Ref(targetPos), Status: statusLabel(target.Status)})
	}
	return true
}

func (e *Engine) reportStatusBlock(st *State, targetPos int, reason string) {
	switch reason {
	case AbilityImmunity, AbilityWaterVeil, AbilityLimber, AbilityMagmaArmor,
		AbilityInsomnia, AbilityVitalSpirit:
		st.emit(EventAbility{Mon: st.Ref(targetPos), Ability: reason, Note: "blocked"})
	default:
		st.emit(EventFailed{User: st.Ref(targetPos), Reason: reason})
	}
}

// tryFlinch marks the target to lose its action, unless Inner Focus
// holds it steady.
func (e *Engine) tryFlinch(st *State, targetPos int) bool {
	target := st.At(targetPos)
	if !target.Alive() || target.Ability == AbilityInnerFocus {
		return false
	}
	target.Volatile |= VolFlinched
	return true
}

// tryConfuse starts a 2..5 turn confusion.
func (e *Engine) tryConfuse(st *State, targetPos int, loud bool) bool {
	target := st.At(targetPos)
	if !target.Alive() {
		return false
	}
	if target.Ability == AbilityOwnTempo {
		if loud {
			st.emit(EventAbility{Mon: st.Ref(targetPos), Ability: AbilityOwnTempo, Note: "blocked"})
		}
		return false
	}
	if target.Volatile.Confusion() > 0 {
		if loud {
			st.emit(EventFailed{User: st.Ref(targetPos), Reason: "already_confused"})
		}
		return false
	}
	turns := 2 + st.RNG.Intn(4)
	target.Volatile.SetConfusion(turns)
	st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "confusion", Count: turns})
	return true
}

// tryStatDown lowers a target's stage, honoring Mist and the guarding
// abilities. loud reports blocks; riders pass false.
func (e *Engine) tryStatDown(st *State, userPos, targetPos int, stat, delta int, loud bool) bool {
	target := st.At(targetPos)
	if !target.Alive() {
		return false
	}
	if userPos != targetPos {
		if target.Volatile.Has(VolSubstitute) {
			if loud {
				st.emit(EventStatChange{Target: st.Ref(targetPos), Stat: StatName(stat), Delta: delta, Blocked: "substitute"})
			}
			return false
		}
		if st.Sides[SideOf(targetPos)].MistTimer > 0 {
			if loud {
				st.emit(EventStatChange{Target: st.Ref(targetPos), Stat: StatName(stat), Delta: delta, Blocked: "mist"})
			}
			return false
		}
		blocked := ""
		switch target.Ability {
		case AbilityClearBody, AbilityWhiteSmoke:
			blocked = target.Ability
		case AbilityHyperCutter:
			if stat == StatAtk {
				blocked = target.Ability
			}
		case AbilityKeenEye:
			if stat == StatAccuracy {
				blocked = target.Ability
			}
		}
		if blocked != "" {
			if loud {
				st.emit(EventAbility{Mon: st.Ref(targetPos), Ability: blocked, Note: "blocked"})
			}
			return false
		}
	}
	if !target.ApplyStage(stat, delta) {
		if loud {
			st.emit(EventStatChange{Target: st.Ref(targetPos), Stat: StatName(stat), Delta: delta, Blocked: "limit"})
		}
		return false
	}
	st.emit(EventStatChange{Target: st.Ref(targetPos), Stat: StatName(stat), Delta: delta})
	return true
}

// raiseStat bumps the user's own stage and reports the result.
func (e *Engine) raiseStat(st *State, pos, stat, delta int) bool {
	p := st.At(pos)
	if !p.Alive() || !p.ApplyStage(stat, delta) {
		st.emit(EventStatChange{Target: st.Ref(pos), Stat: StatName(stat), Delta: delta, Blocked: "limit"})
		return false
	}
	st.emit(EventStatChange{Target: st.Ref(pos), Stat: StatName(stat), Delta: delta})
	return true
}

// tryAttract infatuates the target with the user when genders oppose.
func (e *Engine) tryAttract(st *State, userPos, targetPos int) bool {
	user := st.At(userPos)
	target := st.At(targetPos)
	if !target.Alive() {
		return false
	}
	if target.Ability == AbilityOblivious {
		st.emit(EventAbility{Mon: st.Ref(targetPos), Ability: AbilityOblivious, Note: "blocked"})
		return false
	}
	opposed := (user.Gender == GenderMale && target.Gender == GenderFemale) ||
		(user.Gender == GenderFemale && target.Gender == GenderMale)
	if !opposed || target.Volatile.Has(VolInfatuationMask) {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return false
	}
	target.Volatile.SetInfatuatedWith(userPos)
	st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "attract"})
	return true
}

// tryLeechSeed plants the seed on a non-Grass target.
func (e *Engine) tryLeechSeed(st *State, userPos, targetPos int) bool {
	target := st.At(targetPos)
	if !target.Alive() {
		return false
	}
	if target.HasType(resource.TypeGrass) {
		st.emit(EventImmune{Target: st.Ref(targetPos)})
		return false
	}
	if target.Special.Has(SpLeechSeed) || target.Volatile.Has(VolSubstitute) {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return false
	}
	target.Special.SetLeechSeed(userPos)
	st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "leech_seed"})
	return true
}

// tryYawn makes the target drowsy; it falls asleep at the end of the
// next turn.
func (e *Engine) tryYawn(st *State, userPos, targetPos int) bool {
	target := st.At(targetPos)
	if !target.Alive() {
		return false
	}
	if reason := e.statusImmune(st, userPos, targetPos, StatusSleepMask, false); reason != "" {
		e.reportStatusBlock(st, targetPos, reason)
		return false
	}
	if target.Special.YawnTurns() > 0 {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return false
	}
	target.Special.SetYawnTurns(2)
	st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "yawn"})
	return true
}

// tryDisable shuts off the target's last move for 2..5 turns.
func (e *Engine) tryDisable(st *State, userPos, targetPos int) bool {
	target := st.At(targetPos)
	timers := st.Timers[targetPos]
	if !target.Alive() || target.LastMove == 0 || timers.DisableTimer > 0 ||
		target.MoveSlotIndex(target.LastMove) < 0 {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return false
	}
	timers.DisabledMove = target.LastMove
	timers.DisableTimer = 2 + st.RNG.Intn(4)
	st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "disable", Count: timers.DisableTimer})
	return true
}

// tryEncore locks the target into repeating its last move for 3..7
// turns.
func (e *Engine) tryEncore(st *State, userPos, targetPos int) bool {
	target := st.At(targetPos)
	timers := st.Timers[targetPos]
	slot := -1
	if target.Alive() && target.LastMove != 0 {
		slot = target.MoveSlotIndex(target.LastMove)
	}
	if slot < 0 || target.Moves[slot].PP == 0 || timers.EncoreTimer > 0 {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return false
	}
	timers.EncoredMove = target.LastMove
	timers.EncoredSlot = slot
	timers.EncoreTimer = 3 + st.RNG.Intn(5)
	st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "encore", Count: timers.EncoreTimer})
	return true
}

// tryCurse covers both faces of the move: Ghosts pay half their HP to
// curse the target, everyone else trades Speed for Attack and Defense.
func (e *Engine) tryCurse(st *State, userPos, targetPos int) {
	user := st.At(userPos)
	if user.HasType(resource.TypeGhost) {
		target := st.At(targetPos)
		if !target.Alive() || target.Volatile.Has(VolCursed) {
			st.emit(EventFailed{User: st.Ref(userPos)})
			return
		}
		cost := user.MaxHP() / 2
		if cost < 1 {
			cost = 1
		}
		user.TakeDamage(cost)
		st.emit(EventDamage{Target: st.Ref(userPos), Amount: cost, HPLeft: user.HP, Cause: "curse"})
		target.Volatile |= VolCursed
		st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "curse"})
		e.checkFaint(st, userPos)
		return
	}
	e.tryStatDown(st, userPos, userPos, StatSpeed, -1, true)
	e.raiseStat(st, userPos, StatAtk, 1)
	e.raiseStat(st, userPos, StatDef, 1)
}

// tryPerishSong starts the three-turn count on every battler that can
// hear it.
func (e *Engine) tryPerishSong(st *State, userPos int) {
	affected := 0
	for pos := 0; pos < MaxPositions; pos++ {
		p := st.At(pos)
		if !p.Alive() || p.Special.Has(SpPerishSong) {
			continue
		}
		if p.Ability == AbilitySoundproof {
			st.emit(EventAbility{Mon: st.Ref(pos), Ability: AbilitySoundproof, Note: "blocked"})
			continue
		}
		p.Special |= SpPerishSong
		st.Timers[pos].PerishTimer = 3
		affected++
	}
	if affected == 0 {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return
	}
	st.emit(EventVolatile{Target: st.Ref(userPos), Condition: "perish_song", Count: 3})
}
