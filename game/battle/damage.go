package battle

import "github.com/nanakusa/frontier/resource"

// Moves of the types up to Steel use Attack and Defense; the rest use
// the special stats.
func physicalType(t resource.Type) bool { return t <= resource.TypeSteel }

// statStageRatio scales a combat stat for its stage: stage 6 is 10/10,
// the ends are quarter and quadruple.
var statStageRatio = [13][2]int{
	{10, 40}, {10, 35}, {10, 30}, {10, 25}, {10, 20}, {10, 15},
	{10, 10},
	{15, 10}, {20, 10}, {25, 10}, {30, 10}, {35, 10}, {40, 10},
}

// accStageRatio scales move accuracy for the combined accuracy and
// evasion stage.
var accStageRatio = [13][2]int{
	{33, 100}, {36, 100}, {43, 100}, {50, 100}, {60, 100}, {75, 100},
	{100, 100},
	{133, 100}, {166, 100}, {200, 100}, {250, 100}, {266, 100}, {300, 100},
}

func stagedStat(base, stage int) int {
	if stage < StageMin {
		stage = StageMin
	}
	if stage > StageMax {
		stage = StageMax
	}
	return base * statStageRatio[stage][0] / statStageRatio[stage][1]
}

// critChanceDenom maps the accumulated crit stage to the 1-in-N odds.
var critChanceDenom = [5]int{16, 8, 4, 3, 2}

// critRoll decides whether the hit is critical. Crit stages stack from
// Focus Energy, a high-crit move effect and the held item.
func (e *Engine) critRoll(st *State, userPos int, target *Pokemon, mv *resource.Move) bool {
	user := st.At(userPos)
	if critImmune(target.Ability) {
		return false
	}
	stage := 0
	if user.Volatile.Has(VolFocusEnergy) {
		stage += 2
	}
	if mv.Effect == EffectHighCritical || mv.Effect == EffectHighCriticalPoisonHit {
		stage++
	}
	stage += e.critItemBonus(user)
	if stage >= len(critChanceDenom) {
		stage = len(critChanceDenom) - 1
	}
	return st.RNG.Intn(critChanceDenom[stage]) == 0
}

// calcDamage runs the core damage formula for one hit and returns the
// pre-variance amount. power overrides the move's listed power when
// positive.
func (e *Engine) calcDamage(st *State, userPos, targetPos int, mv *resource.Move, power int, crit bool) int {
	user := st.At(userPos)
	target := st.At(targetPos)
	if power <= 0 {
		power = mv.Power
	}

	physical := physicalType(mv.Type)

	var atk, def int
	var atkStage, defStage int
	if physical {
		atk, def = user.Stats[StatAtk], target.Stats[StatDef]
		atkStage, defStage = user.Stages[StatAtk], target.Stages[StatDef]
	} else {
		atk, def = user.Stats[StatSpAtk], target.Stats[StatSpDef]
		atkStage, defStage = user.Stages[StatSpAtk], target.Stages[StatSpDef]
	}

	// Attacker side modifiers on the raw stat.
	if physical {
		switch user.Ability {
		case AbilityHugePower, AbilityPurePower:
			atk *= 2
		case AbilityHustle:
			atk = atk * 150 / 100
		case AbilityGuts:
			if user.Status.Has(StatusAny) {
				atk = atk * 150 / 100
			}
		}
		if effect, _ := e.holdEffect(user); effect == HoldChoiceBand {
			atk = atk * 150 / 100
		}
	} else if user.Ability == AbilityFlashFire && mv.Type == resource.TypeFire &&
		st.Timers[userPos].FlashFired {
		atk = atk * 150 / 100
	}

	// Defender side modifiers on the raw stat.
	if physical && target.Ability == AbilityMarvelScale && target.Status.Has(StatusAny) {
		def = def * 150 / 100
	}
	if mv.Effect == EffectExplosion {
		def /= 2
		if def == 0 {
			def = 1
		}
	}

	// Held item and field power boosts.
	if boost := e.typeBoostPercent(user, mv.Type); boost > 0 {
		power = power * (100 + boost) / 100
	}
	if mv.Type == resource.TypeElectric && e.sportActive(st, SpMudSport) {
		power /= 2
	}
	if mv.Type == resource.TypeFire && e.sportActive(st, SpWaterSport) {
		power /= 2
	}
	if user.Special.Has(SpCharged) && mv.Type == resource.TypeElectric {
		power *= 2
	}

	// Crits ignore the attacker's unfavorable stages and the
	// defender's favorable ones.
	if crit {
		if atkStage > StageNeutral {
			atk = stagedStat(atk, atkStage)
		}
		if defStage < StageNeutral {
			def = stagedStat(def, defStage)
		}
	} else {
		atk = stagedStat(atk, atkStage)
		def = stagedStat(def, defStage)
	}
	if def < 1 {
		def = 1
	}

	dmg := atk * power * (2*user.Level/5 + 2) / def / 50

	if physical && user.Status.Has(StatusBurn) && user.Ability != AbilityGuts {
		dmg /= 2
	}

	// Screens do not soften crits.
	if !crit {
		side := st.Sides[SideOf(targetPos)]
		if physical && side.ReflectTimer > 0 {
			dmg /= 2
		}
		if !physical && side.LightScreenTimer > 0 {
			dmg /= 2
		}
	}

	switch st.Weather {
	case WeatherRain:
		switch mv.Type {
		case resource.TypeWater:
			dmg = dmg * 150 / 100
		case resource.TypeFire:
			dmg /= 2
		}
	case WeatherSun:
		switch mv.Type {
		case resource.TypeFire:
			dmg = dmg * 150 / 100
		case resource.TypeWater:
			dmg /= 2
		}
	}

	dmg += 2
	if crit {
		dmg *= 2
	}
	if user.HasType(mv.Type) {
		dmg = dmg * 15 / 10
	}
	return dmg
}

// rollVariance applies the 85..100 percent damage spread, never
// reducing a real hit below one.
func (e *Engine) rollVariance(st *State, dmg int) int {
	if dmg <= 0 {
		return dmg
	}
	dmg = dmg * (85 + st.RNG.Intn(16)) / 100
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}

// sportActive reports whether any fielded battler keeps the given
// sport condition up.
func (e *Engine) sportActive(st *State, bit Special) bool {
	for pos := 0; pos < MaxPositions; pos++ {
		if p := st.At(pos); p.Alive() && p.Special.Has(bit) {
			return true
		}
	}
	return false
}
