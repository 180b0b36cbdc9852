package battle

import "github.com/nanakusa/frontier/resource"

// The move effect vocabulary. Every move in the data names exactly one
// of these; the engine dispatches on them with closed switches, so an
// unknown effect falls through to a plain hit or a failed status move
// rather than invented behavior.
const (
	EffectHit = "hit"

	// Damaging moves with riders.
	EffectPoisonHit              = "poison_hit"
	EffectBurnHit                = "burn_hit"
	EffectFreezeHit              = "freeze_hit"
	EffectParalyzeHit            = "paralyze_hit"
	EffectFlinchHit              = "flinch_hit"
	EffectConfuseHit             = "confuse_hit"
	EffectTriAttack              = "tri_attack"
	EffectPoisonDoubleHit        = "poison_double_hit"
	EffectHighCritical           = "high_critical"
	EffectHighCriticalPoisonHit  = "high_critical_poison_hit"
	EffectAtkDownHit             = "atk_down_hit"
	EffectDefDownHit             = "def_down_hit"
	EffectSpeedDownHit           = "speed_down_hit"
	EffectSpAtkDownHit           = "spatk_down_hit"
	EffectSpDefDownHit           = "spdef_down_hit"
	EffectAccDownHit             = "acc_down_hit"
	EffectAllStatsUpHit          = "all_stats_up_hit"
	EffectDrainHit               = "drain_hit"
	EffectDreamEater             = "dream_eater"
	EffectRecoilQuarter          = "recoil_quarter"
	EffectRecoilThird            = "recoil_third"
	EffectCrashHit               = "crash_hit"
	EffectTwoHits                = "two_hits"
	EffectMultiHit               = "multi_hit"
	EffectTripleKick             = "triple_kick"
	EffectRampage                = "rampage"
	EffectWrap                   = "wrap"
	EffectRechargeHit            = "recharge_hit"
	EffectRage                   = "rage"
	EffectFacade                 = "facade"
	EffectFocusPunch             = "focus_punch"
	EffectFakeOut                = "fake_out"
	EffectExplosion              = "explosion"
	EffectUproar                 = "uproar"
	EffectBrickBreak             = "brick_break"
	EffectRapidSpin              = "rapid_spin"
	EffectAlwaysHit              = "always_hit"
	EffectVitalThrow             = "vital_throw"
	EffectThief                  = "thief"
	EffectKnockOff               = "knock_off"

	// Fixed and computed damage.
	EffectEndeavor    = "endeavor"
	EffectSuperFang   = "super_fang"
	EffectDragonRage  = "dragon_rage"
	EffectSonicBoom   = "sonic_boom"
	EffectLevelDamage = "level_damage"
	EffectPsywave     = "psywave"
	EffectCounter     = "counter"
	EffectMirrorCoat  = "mirror_coat"
	EffectBide        = "bide"
	EffectOHKO        = "ohko"
	EffectFutureSight = "future_sight"

	// Two-turn moves.
	EffectChargeAttack = "charge_attack"
	EffectSolarBeam    = "solar_beam"
	EffectSkullBash    = "skull_bash"
	EffectFly          = "fly"
	EffectDig          = "dig"
	EffectDive         = "dive"

	// Escalating power.
	EffectRollout       = "rollout"
	EffectFuryCutter    = "fury_cutter"
	EffectLowKick       = "low_kick"
	EffectMagnitude     = "magnitude"
	EffectFlail         = "flail"
	EffectHPScaledPower = "hp_scaled_power"

	// Pure status: conditions.
	EffectSleep       = "sleep"
	EffectToxic       = "toxic"
	EffectPoison      = "poison"
	EffectParalyze    = "paralyze"
	EffectWillOWisp   = "will_o_wisp"
	EffectConfuse     = "confuse"
	EffectSwagger     = "swagger"
	EffectFlatter     = "flatter"
	EffectAttract     = "attract"
	EffectLeechSeed   = "leech_seed"
	EffectYawn        = "yawn"
	EffectNightmare   = "nightmare"
	EffectCurse       = "curse"
	EffectSpite       = "spite"
	EffectDisable     = "disable"
	EffectEncore      = "encore"
	EffectTaunt       = "taunt"
	EffectTorment     = "torment"
	EffectImprison    = "imprison"
	EffectMeanLook    = "mean_look"
	EffectForesight   = "foresight"
	EffectLockOn      = "lock_on"
	EffectPerishSong  = "perish_song"
	EffectDestinyBond = "destiny_bond"
	EffectGrudge      = "grudge"

	// Pure status: stages on self.
	EffectAtkUp       = "atk_up"
	EffectAtkUp2      = "atk_up_2"
	EffectDefUp       = "def_up"
	EffectDefUp2      = "def_up_2"
	EffectSpeedUp2    = "speed_up_2"
	EffectSpAtkUp     = "spatk_up"
	EffectSpAtkUp2    = "spatk_up_2"
	EffectSpDefUp2    = "spdef_up_2"
	EffectEvasionUp   = "evasion_up"
	EffectMinimize    = "minimize"
	EffectDefenseCurl = "defense_curl"
	EffectFocusEnergy = "focus_energy"
	EffectDragonDance = "dragon_dance"
	EffectCalmMind    = "calm_mind"
	EffectBulkUp      = "bulk_up"
	EffectBellyDrum   = "belly_drum"
	EffectCharge      = "charge"
	EffectMudSport    = "mud_sport"
	EffectWaterSport  = "water_sport"

	// Pure status: stages on the target.
	EffectAtkDown     = "atk_down"
	EffectAtkDown2    = "atk_down_2"
	EffectDefDown     = "def_down"
	EffectDefDown2    = "def_down_2"
	EffectSpeedDown   = "speed_down"
	EffectSpeedDown2  = "speed_down_2"
	EffectSpDefDown2  = "spdef_down_2"
	EffectAccDown     = "acc_down"
	EffectEvasionDown = "evasion_down"
	EffectHaze        = "haze"
	EffectPsychUp     = "psych_up"

	// Team and field.
	EffectReflect     = "reflect"
	EffectLightScreen = "light_screen"
	EffectMist        = "mist"
	EffectSafeguard   = "safeguard"
	EffectSpikes      = "spikes"
	EffectRainDance   = "rain_dance"
	EffectSunnyDay    = "sunny_day"
	EffectSandstorm   = "sandstorm"
	EffectHail        = "hail"

	// Healing and HP juggling.
	EffectRestoreHP   = "restore_hp"
	EffectRest        = "rest"
	EffectWeatherHeal = "weather_heal"
	EffectWish        = "wish"
	EffectIngrain     = "ingrain"
	EffectPainSplit   = "pain_split"
	EffectRefresh     = "refresh"
	EffectHealBell    = "heal_bell"

	// Switching.
	EffectForceSwitch = "force_switch"
	EffectBatonPass   = "baton_pass"

	// Turn-scoped shields.
	EffectSubstitute = "substitute"
	EffectProtect    = "protect"
	EffectEndure     = "endure"

	// Item juggling.
	EffectTrick = "trick"
)

// rollEffectChance decides whether an on-hit rider fires. Shield Dust
// blocks riders aimed at the holder; Serene Grace doubles the user's
// odds.
func (e *Engine) rollEffectChance(st *State, userPos, targetPos int, chance int, targetsFoe bool) bool {
	if chance <= 0 {
		return false
	}
	if targetsFoe {
		if t := st.At(targetPos); t != nil && t.Ability == AbilityShieldDust {
			return false
		}
	}
	if u := st.At(userPos); u != nil && u.Ability == AbilitySereneGrace {
		chance *= 2
	}
	return st.RNG.Percent(chance)
}

// applyHitRider runs a damaging move's secondary effect after the
// damage has landed. hitSub means the substitute soaked the hit, which
// shields the occupant from target-side riders.
func (e *Engine) applyHitRider(st *State, userPos, targetPos int, mv *resource.Move, dealt int, hitSub bool) {
	user := st.At(userPos)
	target := st.At(targetPos)

	// Riders on the user fire regardless of a substitute.
	switch mv.Effect {
	case EffectAllStatsUpHit:
		if e.rollEffectChance(st, userPos, targetPos, mv.Chance, false) {
			for _, stat := range []int{StatAtk, StatDef, StatSpeed, StatSpAtk, StatSpDef} {
				if user.Alive() && user.ApplyStage(stat, 1) {
					st.emit(EventStatChange{Target: st.Ref(userPos), Stat: StatName(stat), Delta: 1})
				}
			}
		}
		return
	}

	if hitSub || !target.Alive() {
		return
	}

	switch mv.Effect {
	case EffectPoisonHit, EffectPoisonDoubleHit, EffectHighCriticalPoisonHit:
		if e.rollEffectChance(st, userPos, targetPos, mv.Chance, true) {
			e.tryInflictStatus(st, userPos, targetPos, StatusPoison, false)
		}
	case EffectBurnHit:
		if e.rollEffectChance(st, userPos, targetPos, mv.Chance, true) {
			e.tryInflictStatus(st, userPos, targetPos, StatusBurn, false)
		}
	case EffectFreezeHit:
		if e.rollEffectChance(st, userPos, targetPos, mv.Chance, true) {
			e.tryInflictStatus(st, userPos, targetPos, StatusFreeze, false)
		}
	case EffectParalyzeHit:
		if e.rollEffectChance(st, userPos, targetPos, mv.Chance, true) {
			e.tryInflictStatus(st, userPos, targetPos, StatusParalysis, false)
		}
	case EffectTriAttack:
		if e.rollEffectChance(st, userPos, targetPos, mv.Chance, true) {
			switch st.RNG.Intn(3) {
			case 0:
				e.tryInflictStatus(st, userPos, targetPos, StatusParalysis, false)
			case 1:
				e.tryInflictStatus(st, userPos, targetPos, StatusBurn, false)
			default:
				e.tryInflictStatus(st, userPos, targetPos, StatusFreeze, false)
			}
		}
	case EffectFlinchHit, EffectFakeOut:
		if e.rollEffectChance(st, userPos, targetPos, mv.Chance, true) {
			e.tryFlinch(st, targetPos)
		}
	case EffectConfuseHit:
		if e.rollEffectChance(st, userPos, targetPos, mv.Chance, true) {
			e.tryConfuse(st, targetPos, false)
		}
	case EffectAtkDownHit:
		e.riderStatDown(st, userPos, targetPos, mv, StatAtk)
	case EffectDefDownHit:
		e.riderStatDown(st, userPos, targetPos, mv, StatDef)
	case EffectSpeedDownHit:
		e.riderStatDown(st, userPos, targetPos, mv, StatSpeed)
	case EffectSpAtkDownHit:
		e.riderStatDown(st, userPos, targetPos, mv, StatSpAtk)
	case EffectSpDefDownHit:
		e.riderStatDown(st, userPos, targetPos, mv, StatSpDef)
	case EffectAccDownHit:
		e.riderStatDown(st, userPos, targetPos, mv, StatAccuracy)
	case EffectWrap:
		if target.Volatile.Wrapped() == 0 {
			turns := 2 + st.RNG.Intn(4)
			target.Volatile.SetWrapped(turns)
			st.Timers[targetPos].WrapMove = mv.ID
			st.Timers[targetPos].WrapSource = userPos
			st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "wrap", Count: turns})
		}
	case EffectThief:
		e.stealItem(st, userPos, targetPos)
	case EffectKnockOff:
		e.knockOffItem(st, userPos, targetPos)
	}

	// A flinch rider from the held item applies to any plain contact
	// damage the move dealt.
	if dealt > 0 && target.Alive() && mv.Flags&resource.FlagKingsRock != 0 {
		if effect, param := e.holdEffect(user); effect == HoldKingsRock {
			if st.RNG.Percent(param) {
				e.tryFlinch(st, targetPos)
			}
		}
	}
}

// riderStatDown lowers one target stat by a chance roll, respecting
// the stage drop protections.
func (e *Engine) riderStatDown(st *State, userPos, targetPos int, mv *resource.Move, stat int) {
	if e.rollEffectChance(st, userPos, targetPos, mv.Chance, true) {
		e.tryStatDown(st, userPos, targetPos, stat, -1, false)
	}
}
