package battle

import "github.com/nanakusa/frontier/resource"

// isStatusEffect reports whether the effect runs on the status path,
// with no immediate damage phase.
func isStatusEffect(effect string) bool {
	switch effect {
	case EffectSleep, EffectToxic, EffectPoison, EffectParalyze, EffectWillOWisp,
		EffectConfuse, EffectSwagger, EffectFlatter, EffectAttract,
		EffectLeechSeed, EffectYawn, EffectNightmare, EffectCurse, EffectSpite,
		EffectDisable, EffectEncore, EffectTaunt, EffectTorment, EffectImprison,
		EffectMeanLook, EffectForesight, EffectLockOn, EffectPerishSong,
		EffectDestinyBond, EffectGrudge,
		EffectAtkUp, EffectAtkUp2, EffectDefUp, EffectDefUp2, EffectSpeedUp2,
		EffectSpAtkUp, EffectSpAtkUp2, EffectSpDefUp2, EffectEvasionUp,
		EffectMinimize, EffectDefenseCurl, EffectFocusEnergy, EffectDragonDance,
		EffectCalmMind, EffectBulkUp, EffectBellyDrum, EffectCharge,
		EffectMudSport, EffectWaterSport,
		EffectAtkDown, EffectAtkDown2, EffectDefDown, EffectDefDown2,
		EffectSpeedDown, EffectSpeedDown2, EffectSpDefDown2, EffectAccDown,
		EffectEvasionDown, EffectHaze, EffectPsychUp,
		EffectReflect, EffectLightScreen, EffectMist, EffectSafeguard,
		EffectSpikes, EffectRainDance, EffectSunnyDay, EffectSandstorm, EffectHail,
		EffectRestoreHP, EffectRest, EffectWeatherHeal, EffectWish, EffectIngrain,
		EffectPainSplit, EffectRefresh, EffectHealBell,
		EffectForceSwitch, EffectBatonPass,
		EffectSubstitute, EffectProtect, EffectEndure,
		EffectTrick, EffectFutureSight:
		return true
	}
	return false
}

// runStatusMove handles the non-damaging path. Moves aimed at a foe
// still face the shield and the accuracy roll; self and field moves go
// straight through.
func (e *Engine) runStatusMove(ctx *moveCtx) bool {
	if !isStatusEffect(ctx.mv.Effect) {
		return false
	}
	st, pos, targetPos, mv := ctx.st, ctx.userPos, ctx.targetPos, ctx.mv

	aimed := targetPos != pos &&
		mv.Target != resource.TargetFoesAndAlly &&
		mv.Target != resource.TargetBoth &&
		mv.Target != resource.TargetOpponentsField
	if aimed {
		if !st.At(targetPos).Alive() {
			st.emit(EventFailed{User: st.Ref(pos)})
			return true
		}
		if st.Flags[targetPos].Protected && mv.Flags&resource.FlagProtectAffected != 0 {
			st.emit(EventProtected{Target: st.Ref(targetPos)})
			return true
		}
		if mv.Accuracy > 0 && !e.accuracyCheck(st, pos, targetPos, mv) {
			st.emit(EventMiss{User: st.Ref(pos), Target: st.Ref(targetPos)})
			return true
		}
	}
	e.applyStatusEffect(ctx)
	return true
}

// applyStatusEffect dispatches one status effect to its handler.
func (e *Engine) applyStatusEffect(ctx *moveCtx) {
	st, pos, targetPos, mv := ctx.st, ctx.userPos, ctx.targetPos, ctx.mv
	user := st.At(pos)
	target := st.At(targetPos)
	timers := st.Timers[pos]
	behindSub := targetPos != pos && target.Volatile.Has(VolSubstitute)

	switch mv.Effect {

	// Major status.
	case EffectSleep:
		e.tryInflictStatus(st, pos, targetPos, StatusSleepMask, true)
	case EffectToxic:
		e.tryInflictStatus(st, pos, targetPos, StatusToxic, true)
	case EffectPoison:
		e.tryInflictStatus(st, pos, targetPos, StatusPoison, true)
	case EffectParalyze:
		e.tryInflictStatus(st, pos, targetPos, StatusParalysis, true)
	case EffectWillOWisp:
		e.tryInflictStatus(st, pos, targetPos, StatusBurn, true)

	// Volatile conditions.
	case EffectConfuse:
		if behindSub {
			st.emit(EventFailed{User: st.Ref(pos), Reason: "substitute"})
			return
		}
		e.tryConfuse(st, targetPos, true)
	case EffectSwagger, EffectFlatter:
		if behindSub {
			st.emit(EventFailed{User: st.Ref(pos), Reason: "substitute"})
			return
		}
		if mv.Effect == EffectSwagger {
			e.raiseStat(st, targetPos, StatAtk, 2)
		} else {
			e.raiseStat(st, targetPos, StatSpAtk, 1)
		}
		e.tryConfuse(st, targetPos, true)
	case EffectAttract:
		e.tryAttract(st, pos, targetPos)
	case EffectLeechSeed:
		e.tryLeechSeed(st, pos, targetPos)
	case EffectYawn:
		e.tryYawn(st, pos, targetPos)
	case EffectNightmare:
		if behindSub || target.Status.SleepTurns() == 0 || target.Volatile.Has(VolNightmare) {
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		target.Volatile |= VolNightmare
		st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "nightmare"})
	case EffectCurse:
		e.tryCurse(st, pos, targetPos)
	case EffectSpite:
		slot := target.MoveSlotIndex(target.LastMove)
		if target.LastMove == 0 || slot < 0 || target.Moves[slot].PP == 0 {
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		cut := 2 + st.RNG.Intn(4)
		if cut > target.Moves[slot].PP {
			cut = target.Moves[slot].PP
		}
		target.Moves[slot].PP -= cut
		st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "spite", Count: cut})
	case EffectDisable:
		e.tryDisable(st, pos, targetPos)
	case EffectEncore:
		e.tryEncore(st, pos, targetPos)
	case EffectTaunt:
		if st.Timers[targetPos].TauntTimer > 0 {
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		st.Timers[targetPos].TauntTimer = 2 + st.RNG.Intn(4)
		st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "taunt"})
	case EffectTorment:
		if target.Volatile.Has(VolTorment) {
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		target.Volatile |= VolTorment
		st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "torment"})
	case EffectImprison:
		if user.Special.Has(SpImprisoned) {
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		user.Special |= SpImprisoned
		st.emit(EventVolatile{Target: st.Ref(pos), Condition: "imprison"})
	case EffectMeanLook:
		if target.Volatile.Has(VolEscapePrevented) {
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		target.Volatile |= VolEscapePrevented
		st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "trapped"})
	case EffectForesight:
		if target.Volatile.Has(VolForesight) {
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		target.Volatile |= VolForesight
		st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "foresight"})
	case EffectLockOn:
		timers.LockOnTarget = targetPos
		user.Special.SetAlwaysHits(2)
		st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "lock_on"})
	case EffectPerishSong:
		e.tryPerishSong(st, pos)
	case EffectDestinyBond:
		user.Volatile |= VolDestinyBond
		st.emit(EventVolatile{Target: st.Ref(pos), Condition: "destiny_bond"})
	case EffectGrudge:
		user.Special |= SpGrudge
		st.emit(EventVolatile{Target: st.Ref(pos), Condition: "grudge"})

	// Stages on self.
	case EffectAtkUp:
		e.raiseStat(st, pos, StatAtk, 1)
	case EffectAtkUp2:
		e.raiseStat(st, pos, StatAtk, 2)
	case EffectDefUp:
		e.raiseStat(st, pos, StatDef, 1)
	case EffectDefUp2:
		e.raiseStat(st, pos, StatDef, 2)
	case EffectSpeedUp2:
		e.raiseStat(st, pos, StatSpeed, 2)
	case EffectSpAtkUp:
		e.raiseStat(st, pos, StatSpAtk, 1)
	case EffectSpAtkUp2:
		e.raiseStat(st, pos, StatSpAtk, 2)
	case EffectSpDefUp2:
		e.raiseStat(st, pos, StatSpDef, 2)
	case EffectEvasionUp:
		e.raiseStat(st, pos, StatEvasion, 1)
	case EffectMinimize:
		e.raiseStat(st, pos, StatEvasion, 1)
		user.Special |= SpMinimized
	case EffectDefenseCurl:
		e.raiseStat(st, pos, StatDef, 1)
		user.Volatile |= VolDefenseCurl
	case EffectFocusEnergy:
		if user.Volatile.Has(VolFocusEnergy) {
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		user.Volatile |= VolFocusEnergy
		st.emit(EventVolatile{Target: st.Ref(pos), Condition: "focus_energy"})
	case EffectDragonDance:
		e.raiseStat(st, pos, StatAtk, 1)
		e.raiseStat(st, pos, StatSpeed, 1)
	case EffectCalmMind:
		e.raiseStat(st, pos, StatSpAtk, 1)
		e.raiseStat(st, pos, StatSpDef, 1)
	case EffectBulkUp:
		e.raiseStat(st, pos, StatAtk, 1)
		e.raiseStat(st, pos, StatDef, 1)
	case EffectBellyDrum:
		e.tryBellyDrum(st, pos)
	case EffectCharge:
		e.tryCharge(st, pos)
	case EffectMudSport:
		if e.sportActive(st, SpMudSport) {
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		user.Special |= SpMudSport
		st.emit(EventVolatile{Target: st.Ref(pos), Condition: "mud_sport"})
	case EffectWaterSport:
		if e.sportActive(st, SpWaterSport) {
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		user.Special |= SpWaterSport
		st.emit(EventVolatile{Target: st.Ref(pos), Condition: "water_sport"})

	// Stages on the target.
	case EffectAtkDown:
		e.tryStatDown(st, pos, targetPos, StatAtk, -1, true)
	case EffectAtkDown2:
		e.tryStatDown(st, pos, targetPos, StatAtk, -2, true)
	case EffectDefDown:
		e.tryStatDown(st, pos, targetPos, StatDef, -1, true)
	case EffectDefDown2:
		e.tryStatDown(st, pos, targetPos, StatDef, -2, true)
	case EffectSpeedDown:
		e.tryStatDown(st, pos, targetPos, StatSpeed, -1, true)
	case EffectSpeedDown2:
		e.tryStatDown(st, pos, targetPos, StatSpeed, -2, true)
	case EffectSpDefDown2:
		e.tryStatDown(st, pos, targetPos, StatSpDef, -2, true)
	case EffectAccDown:
		e.tryStatDown(st, pos, targetPos, StatAccuracy, -1, true)
	case EffectEvasionDown:
		e.tryStatDown(st, pos, targetPos, StatEvasion, -1, true)
	case EffectHaze:
		e.haze(st)
	case EffectPsychUp:
		e.tryPsychUp(st, pos, targetPos)

	// Team and field.
	case EffectReflect:
		e.trySideTimer(st, pos, "reflect")
	case EffectLightScreen:
		e.trySideTimer(st, pos, "light_screen")
	case EffectMist:
		e.trySideTimer(st, pos, "mist")
	case EffectSafeguard:
		e.trySideTimer(st, pos, "safeguard")
	case EffectSpikes:
		e.trySpikes(st, pos)
	case EffectRainDance:
		e.setWeather(st, pos, WeatherRain)
	case EffectSunnyDay:
		e.setWeather(st, pos, WeatherSun)
	case EffectSandstorm:
		e.setWeather(st, pos, WeatherSandstorm)
	case EffectHail:
		e.setWeather(st, pos, WeatherHail)

	// Healing.
	case EffectRestoreHP:
		e.tryRestoreHalf(st, pos)
	case EffectRest:
		e.tryRest(st, pos)
	case EffectWeatherHeal:
		e.tryWeatherHeal(st, pos)
	case EffectWish:
		e.tryWish(st, pos)
	case EffectIngrain:
		e.tryIngrain(st, pos)
	case EffectPainSplit:
		e.tryPainSplit(st, pos, targetPos)
	case EffectRefresh:
		e.tryRefresh(st, pos)
	case EffectHealBell:
		e.tryHealBell(st, pos, mv)

	// Switching.
	case EffectForceSwitch:
		if behindSub {
			st.emit(EventFailed{User: st.Ref(pos), Reason: "substitute"})
			return
		}
		e.forceSwitch(st, pos, targetPos)
	case EffectBatonPass:
		side := SideOf(pos)
		idx := ctx.switchTo
		if idx < 0 || idx >= len(st.Parties[side]) ||
			!st.Parties[side][idx].Alive() || st.onField(side, idx) {
			idx = st.firstAble(side)
		}
		if idx < 0 {
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		e.batonPass(st, pos, idx)

	// Turn-scoped shields.
	case EffectSubstitute:
		if user.Volatile.Has(VolSubstitute) {
			st.emit(EventFailed{User: st.Ref(pos), Reason: "already"})
			return
		}
		cost := user.MaxHP() / 4
		if cost < 1 {
			cost = 1
		}
		if user.HP <= cost {
			st.emit(EventFailed{User: st.Ref(pos), Reason: "hp_low"})
			return
		}
		user.TakeDamage(cost)
		st.emit(EventDamage{Target: st.Ref(pos), Amount: cost, HPLeft: user.HP, Cause: "substitute"})
		user.Volatile |= VolSubstitute
		timers.SubstituteHP = cost
		st.emit(EventVolatile{Target: st.Ref(pos), Condition: "substitute"})
	case EffectProtect, EffectEndure:
		flags := st.Flags[pos]
		idx := timers.ProtectUses
		if idx >= len(protectOdds) {
			idx = len(protectOdds) - 1
		}
		if flags.NotFirstStrike || int(st.RNG.Next()) > protectOdds[idx] {
			timers.ProtectUses = 0
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		timers.ProtectUses++
		if mv.Effect == EffectProtect {
			flags.Protected = true
			st.emit(EventVolatile{Target: st.Ref(pos), Condition: "protect"})
		} else {
			flags.Endured = true
			st.emit(EventVolatile{Target: st.Ref(pos), Condition: "endure"})
		}

	// Item juggling.
	case EffectTrick:
		if behindSub || (user.ItemID == 0 && target.ItemID == 0) {
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		if target.Ability == AbilityStickyHold {
			st.emit(EventAbility{Mon: st.Ref(targetPos), Ability: AbilityStickyHold, Note: "blocked"})
			return
		}
		user.ItemID, target.ItemID = target.ItemID, user.ItemID
		user.ChoiceMove, target.ChoiceMove = 0, 0
		st.emit(EventItem{Holder: st.Ref(pos), Item: e.itemName(user.ItemID), Note: "swapped"})
		st.emit(EventItem{Holder: st.Ref(targetPos), Item: e.itemName(target.ItemID), Note: "swapped"})

	case EffectFutureSight:
		e.castFutureSight(st, pos, targetPos, mv)

	default:
		st.emit(EventFailed{User: st.Ref(pos)})
	}
}
