package battle

import "github.com/nanakusa/frontier/resource"

// tryRestoreHalf is the plain Recover family: half the user's max HP.
func (e *Engine) tryRestoreHalf(st *State, pos int) {
	p := st.At(pos)
	if p.HP >= p.MaxHP() {
		st.emit(EventFailed{User: st.Ref(pos), Reason: "hp_full"})
		return
	}
	e.healBy(st, pos, p.MaxHP()/2, "recover")
}

// tryWeatherHeal scales the Morning Sun family with the sky: two
// thirds under sun, a quarter under any other weather, half otherwise.
func (e *Engine) tryWeatherHeal(st *State, pos int) {
	p := st.At(pos)
	if p.HP >= p.MaxHP() {
		st.emit(EventFailed{User: st.Ref(pos), Reason: "hp_full"})
		return
	}
	amount := p.MaxHP() / 2
	switch st.Weather {
	case WeatherSun:
		amount = p.MaxHP() * 2 / 3
	case WeatherRain, WeatherSandstorm, WeatherHail:
		amount = p.MaxHP() / 4
	}
	e.healBy(st, pos, amount, "recover")
}

// tryRest trades a full heal for two turns of sleep.
func (e *Engine) tryRest(st *State, pos int) {
	p := st.At(pos)
	switch {
	case p.HP >= p.MaxHP():
		st.emit(EventFailed{User: st.Ref(pos), Reason: "hp_full"})
		return
	case p.Ability == AbilityInsomnia || p.Ability == AbilityVitalSpirit:
		st.emit(EventAbility{Mon: st.Ref(pos), Ability: p.Ability, Note: "blocked"})
		return
	case uproarActive(st):
		st.emit(EventFailed{User: st.Ref(pos), Reason: "uproar"})
		return
	}
	p.Status = 0
	p.Status.SetSleepTurns(3)
	st.emit(EventStatus{Target: st.Ref(pos), Status: "sleep"})
	e.healBy(st, pos, p.MaxHP(), "rest")
}

// tryWish books a half max HP heal for the slot two turns out. The heal
// lands on whoever occupies the slot then.
func (e *Engine) tryWish(st *State, pos int) {
	pending := st.Pending[pos]
	if pending.WishTimer > 0 {
		st.emit(EventFailed{User: st.Ref(pos)})
		return
	}
	heal := st.At(pos).MaxHP() / 2
	if heal < 1 {
		heal = 1
	}
	pending.WishTimer = 2
	pending.WishHeal = heal
	st.emit(EventVolatile{Target: st.Ref(pos), Condition: "wish"})
}

// tryIngrain roots the user: leftover healing each turn, no escaping,
// no being phazed.
func (e *Engine) tryIngrain(st *State, pos int) {
	p := st.At(pos)
	if p.Special.Has(SpRooted) {
		st.emit(EventFailed{User: st.Ref(pos)})
		return
	}
	p.Special |= SpRooted
	st.emit(EventVolatile{Target: st.Ref(pos), Condition: "ingrain"})
}

// tryPainSplit averages the two battlers' HP.
func (e *Engine) tryPainSplit(st *State, userPos, targetPos int) {
	user := st.At(userPos)
	target := st.At(targetPos)
	if !target.Alive() || target.Volatile.Has(VolSubstitute) {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return
	}
	avg := (user.HP + target.HP) / 2
	if avg < 1 {
		avg = 1
	}
	for _, pos := range [2]int{userPos, targetPos} {
		p := st.At(pos)
		switch {
		case p.HP > avg:
			lost := p.HP - avg
			p.HP = avg
			st.emit(EventDamage{Target: st.Ref(pos), Amount: lost, HPLeft: p.HP, Cause: "pain_split"})
		case p.HP < avg:
			e.healBy(st, pos, avg-p.HP, "pain_split")
		}
	}
}

// tryRefresh cures the user's own poison, burn or paralysis.
func (e *Engine) tryRefresh(st *State, pos int) {
	p := st.At(pos)
	if !p.Status.Has(StatusPoisonAny | StatusBurn | StatusParalysis) {
		st.emit(EventFailed{User: st.Ref(pos)})
		return
	}
	cured := statusLabel(p.Status)
	p.Status = 0
	st.emit(EventCure{Target: st.Ref(pos), Status: cured})
}

// tryHealBell cures the whole party. The chime is sound, so Soundproof
// active battlers keep their status; Aromatherapy has no such gap.
func (e *Engine) tryHealBell(st *State, pos int, mv *resource.Move) {
	side := SideOf(pos)
	for i, p := range st.Parties[side] {
		if p == nil || p.Status == 0 {
			continue
		}
		if mv.IsSound() && st.onField(side, i) && p.Ability == AbilitySoundproof {
			st.emit(EventAbility{Mon: MonRef{Pos: -1, Side: side, Name: p.Name}, Ability: AbilitySoundproof, Note: "blocked"})
			continue
		}
		cured := statusLabel(p.Status)
		p.Status = 0
		st.emit(EventCure{Target: MonRef{Pos: -1, Side: side, Name: p.Name}, Status: cured})
	}
}

// tryBellyDrum pays half the user's max HP for a maxed Attack stage.
func (e *Engine) tryBellyDrum(st *State, pos int) {
	p := st.At(pos)
	cost := p.MaxHP() / 2
	if p.HP <= cost || p.Stages[StatAtk] >= StageMax {
		st.emit(EventFailed{User: st.Ref(pos)})
		return
	}
	p.TakeDamage(cost)
	st.emit(EventDamage{Target: st.Ref(pos), Amount: cost, HPLeft: p.HP, Cause: "belly_drum"})
	p.Stages[StatAtk] = StageMax
	st.emit(EventStatChange{Target: st.Ref(pos), Stat: StatName(StatAtk), Delta: StageMax - StageNeutral})
}

// tryPsychUp copies the target's stages onto the user.
func (e *Engine) tryPsychUp(st *State, userPos, targetPos int) {
	target := st.At(targetPos)
	if !target.Alive() {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return
	}
	st.At(userPos).Stages = target.Stages
	st.emit(EventVolatile{Target: st.Ref(userPos), Condition: "psych_up"})
}

// tryCharge stores power for next turn's Electric move and doubles it.
func (e *Engine) tryCharge(st *State, pos int) {
	p := st.At(pos)
	p.Special |= SpCharged
	st.Timers[pos].ChargeTimer = 2
	st.emit(EventVolatile{Target: st.Ref(pos), Condition: "charge"})
}

// castFutureSight books typeless damage against the target slot two
// turns out. The amount is fixed now from the caster's and target's
// current special stats; it hits whoever holds the slot when it lands.
func (e *Engine) castFutureSight(st *State, userPos, targetPos int, mv *resource.Move) {
	pending := st.Pending[targetPos]
	if pending.FutureTimer > 0 {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return
	}
	user := st.At(userPos)
	target := st.At(targetPos)
	if !target.Alive() {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return
	}
	atk := stagedStat(user.Stats[StatSpAtk], user.Stages[StatSpAtk])
	def := stagedStat(target.Stats[StatSpDef], target.Stages[StatSpDef])
	if def < 1 {
		def = 1
	}
	dmg := atk*mv.Power*(2*user.Level/5+2)/def/50 + 2
	dmg = e.rollVariance(st, dmg)

	pending.FutureTimer = 3
	pending.FutureAttacker = userPos
	pending.FutureMove = mv.ID
	pending.FutureDamage = dmg
	st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "future_sight"})
}
