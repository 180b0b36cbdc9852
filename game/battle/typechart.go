package battle

import "github.com/nanakusa/frontier/resource"

// typeMultiplier returns the combined chart multiplier (x10) for an
// attack of type mt against the target's one or two types. Foresight
// lifts the Ghost immunities to Normal and Fighting.
func (e *Engine) typeMultiplier(mt resource.Type, target *Pokemon) int {
	if mt == resource.TypeNone {
		return resource.EffectNeutral
	}
	mult := resource.EffectNeutral
	seen := resource.TypeNone
	for _, dt := range target.Types {
		if dt == resource.TypeNone || dt == seen {
			continue
		}
		seen = dt
		m := e.res.Effectiveness(mt, dt)
		if m == resource.EffectNone && dt == resource.TypeGhost &&
			target.Volatile.Has(VolForesight) &&
			(mt == resource.TypeNormal || mt == resource.TypeFighting) {
			m = resource.EffectNeutral
		}
		mult = mult * m / 10
	}
	return mult
}

// abilityBlocksMove checks the target's ability against an incoming
// damaging move. Returns the blocking ability name, or empty when the
// move goes through.
func (e *Engine) abilityBlocksMove(st *State, targetPos int, mv *resource.Move, typeMult int) string {
	target := st.At(targetPos)
	switch target.Ability {
	case AbilityLevitate:
		if mv.Type == resource.TypeGround {
			return AbilityLevitate
		}
	case AbilityFlashFire:
		if mv.Type == resource.TypeFire {
			st.Timers[targetPos].FlashFired = true
			return AbilityFlashFire
		}
	case AbilityVoltAbsorb:
		if mv.Type == resource.TypeElectric {
			e.healBy(st, targetPos, target.MaxHP()/4, "volt_absorb")
			return AbilityVoltAbsorb
		}
	case AbilityWaterAbsorb:
		if mv.Type == resource.TypeWater {
			e.healBy(st, targetPos, target.MaxHP()/4, "water_absorb")
			return AbilityWaterAbsorb
		}
	case AbilityWonderGuard:
		if typeMult <= resource.EffectNeutral && mv.Power > 0 {
			return AbilityWonderGuard
		}
	case AbilitySoundproof:
		if mv.IsSound() {
			return AbilitySoundproof
		}
	}
	return ""
}

// healBy restores HP and logs it when anything actually healed.
func (e *Engine) healBy(st *State, pos int, amount int, cause string) int {
	p := st.At(pos)
	if p == nil {
		return 0
	}
	healed := p.Heal(amount)
	if healed > 0 {
		st.emit(EventHeal{Target: st.Ref(pos), Amount: healed, HPLeft: p.HP, Cause: cause})
	}
	return healed
}
