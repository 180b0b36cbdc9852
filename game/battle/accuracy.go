package battle

import "github.com/nanakusa/frontier/resource"

// vanishPierce reports whether the move reaches a target in the given
// semi-invulnerable stage, and whether it lands doubled.
func vanishPierce(moveID int, vanish Special) (hits, double bool) {
	switch {
	case vanish.Has(SpOnAir):
		switch moveID {
		case MoveGust, MoveTwister:
			return true, true
		case MoveThunder, MoveSkyUppercut:
			return true, false
		}
	case vanish.Has(SpUnderground):
		switch moveID {
		case MoveEarthquake, MoveMagnitude:
			return true, true
		}
	case vanish.Has(SpUnderwater):
		switch moveID {
		case MoveSurf, MoveWhirlpool:
			return true, true
		}
	}
	return false, false
}

// accuracyCheck rolls whether the move lands. The caller has already
// dealt with Protect; this covers sure hits, semi-invulnerability,
// stages and the ability and weather modifiers.
func (e *Engine) accuracyCheck(st *State, userPos, targetPos int, mv *resource.Move) bool {
	user := st.At(userPos)
	target := st.At(targetPos)

	if target.Special.Has(SpSemiInvulnerable) {
		hits, _ := vanishPierce(mv.ID, target.Special)
		if !hits {
			return false
		}
		if mv.ID == MoveThunder && st.Weather != WeatherRain {
			return false
		}
	}

	if st.Timers[userPos].LockOnTarget == targetPos && user.Special.AlwaysHits() > 0 {
		return true
	}
	if mv.Accuracy == 0 || mv.Effect == EffectAlwaysHit || mv.Effect == EffectVitalThrow {
		return true
	}
	if mv.ID == MoveThunder && st.Weather == WeatherRain {
		return true
	}

	calc := mv.Accuracy
	if mv.ID == MoveThunder && st.Weather == WeatherSun {
		calc = 50
	}

	// Foresight on the target cancels its evasion boosts.
	evaStage := target.Stages[StatEvasion]
	if target.Volatile.Has(VolForesight) && evaStage > StageNeutral {
		evaStage = StageNeutral
	}
	stage := StageNeutral + (user.Stages[StatAccuracy] - StageNeutral) - (evaStage - StageNeutral)
	if stage < StageMin {
		stage = StageMin
	}
	if stage > StageMax {
		stage = StageMax
	}
	calc = calc * accStageRatio[stage][0] / accStageRatio[stage][1]

	if user.Ability == AbilityCompoundEyes {
		calc = calc * 130 / 100
	}
	if user.Ability == AbilityHustle && physicalType(mv.Type) && mv.Power > 0 {
		calc = calc * 80 / 100
	}
	if target.Ability == AbilitySandVeil && st.Weather == WeatherSandstorm {
		calc = calc * 80 / 100
	}

	if calc > 100 {
		calc = 100
	}
	if calc < 1 {
		calc = 1
	}
	return st.RNG.Intn(100)+1 <= calc
}
