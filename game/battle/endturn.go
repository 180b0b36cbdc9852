package battle

import "github.com/nanakusa/frontier/resource"

// endTurn runs the between-turns residuals in their fixed order: side
// timers, wishes, weather, then every battler's own conditions, then
// the delayed attacks and the perish count.
func (e *Engine) endTurn(st *State) {
	for side := 0; side < NumSides; side++ {
		e.tickSideTimers(st, side)
	}
	for pos := 0; pos < MaxPositions; pos++ {
		e.tickWish(st, pos)
	}
	if st.Over() {
		return
	}

	e.tickWeather(st)
	if st.Over() {
		return
	}

	for pos := 0; pos < MaxPositions; pos++ {
		if st.At(pos).Alive() {
			e.tickBattler(st, pos)
		}
		if st.Over() {
			return
		}
	}

	for pos := 0; pos < MaxPositions; pos++ {
		e.tickFutureSight(st, pos)
		if st.Over() {
			return
		}
	}

	for pos := 0; pos < MaxPositions; pos++ {
		e.tickPerishSong(st, pos)
		if st.Over() {
			return
		}
	}

	for pos := 0; pos < MaxPositions; pos++ {
		if p := st.At(pos); p != nil {
			p.Volatile &^= VolFlinched
		}
		if t := st.Timers[pos]; t != nil && t.FirstTurn > 0 {
			t.FirstTurn--
		}
	}
}

func (e *Engine) tickSideTimers(st *State, side int) {
	s := st.Sides[side]
	tick := func(timer *int, condition string) {
		if *timer == 0 {
			return
		}
		*timer--
		if *timer == 0 {
			st.emit(EventSideCondition{Side: side, Condition: condition, Ended: true})
		}
	}
	tick(&s.ReflectTimer, "reflect")
	tick(&s.LightScreenTimer, "light_screen")
	tick(&s.MistTimer, "mist")
	tick(&s.SafeguardTimer, "safeguard")
}

func (e *Engine) tickWish(st *State, pos int) {
	d := st.Pending[pos]
	if d.WishTimer == 0 {
		return
	}
	d.WishTimer--
	if d.WishTimer > 0 {
		return
	}
	if p := st.At(pos); p.Alive() && p.HP < p.MaxHP() {
		e.healBy(st, pos, d.WishHeal, "wish")
	}
	d.WishHeal = 0
}

// tickWeather advances the weather clock and applies sandstorm and
// hail chip. Vanished battlers are out of the storm's reach.
func (e *Engine) tickWeather(st *State) {
	if st.Weather == WeatherNone {
		return
	}
	st.WeatherTimer--
	if st.WeatherTimer <= 0 {
		st.emit(EventWeather{Weather: st.Weather.String(), Phase: "end"})
		st.Weather = WeatherNone
		return
	}
	st.emit(EventWeather{Weather: st.Weather.String(), Phase: "continue"})

	if st.Weather != WeatherSandstorm && st.Weather != WeatherHail {
		return
	}
	for pos := 0; pos < MaxPositions; pos++ {
		p := st.At(pos)
		if !p.Alive() || p.Special.Has(SpUnderground|SpUnderwater) {
			continue
		}
		if st.Weather == WeatherSandstorm &&
			(p.HasType(resource.TypeRock) || p.HasType(resource.TypeGround) || p.HasType(resource.TypeSteel)) {
			continue
		}
		if st.Weather == WeatherHail && p.HasType(resource.TypeIce) {
			continue
		}
		dmg := p.MaxHP() / 16
		if dmg < 1 {
			dmg = 1
		}
		p.TakeDamage(dmg)
		st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: p.HP, Cause: st.Weather.String()})
		e.checkFaint(st, pos)
	}
}

// tickBattler runs one battler's residuals in order: roots and
// abilities, the held item, then everything draining or counting down.
func (e *Engine) tickBattler(st *State, pos int) {
	p := st.At(pos)
	timers := st.Timers[pos]

	if p.Special.Has(SpRooted) && p.HP < p.MaxHP() {
		heal := p.MaxHP() / 16
		if heal < 1 {
			heal = 1
		}
		e.healBy(st, pos, heal, "ingrain")
	}

	switch p.Ability {
	case AbilitySpeedBoost:
		if timers.FirstTurn == 0 {
			st.emit(EventAbility{Mon: st.Ref(pos), Ability: AbilitySpeedBoost})
			e.raiseStat(st, pos, StatSpeed, 1)
		}
	case AbilityShedSkin:
		if p.Status.Has(StatusAny) && st.RNG.Intn(3) == 0 {
			st.emit(EventAbility{Mon: st.Ref(pos), Ability: AbilityShedSkin})
			p.Status = 0
			st.emit(EventCure{Target: st.Ref(pos), Status: "all", Cause: "ability"})
		}
	case AbilityRainDish:
		if st.Weather == WeatherRain && p.HP < p.MaxHP() {
			heal := p.MaxHP() / 16
			if heal < 1 {
				heal = 1
			}
			st.emit(EventAbility{Mon: st.Ref(pos), Ability: AbilityRainDish})
			e.healBy(st, pos, heal, "rain_dish")
		}
	}

	if effect, _ := e.holdEffect(p); effect == HoldLeftovers && p.HP < p.MaxHP() {
		heal := p.MaxHP() / 16
		if heal < 1 {
			heal = 1
		}
		st.emit(EventItem{Holder: st.Ref(pos), Item: e.itemName(p.ItemID)})
		e.healBy(st, pos, heal, "leftovers")
	}

	if p.Special.Has(SpLeechSeed) {
		src := p.Special.LeechSeedSource()
		if seeder := st.At(src); seeder.Alive() {
			dmg := p.MaxHP() / 8
			if dmg < 1 {
				dmg = 1
			}
			dmg = p.TakeDamage(dmg)
			st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: p.HP, Cause: "leech_seed"})
			if p.Ability == AbilityLiquidOoze {
				st.emit(EventAbility{Mon: st.Ref(pos), Ability: AbilityLiquidOoze})
				seeder.TakeDamage(dmg)
				st.emit(EventDamage{Target: st.Ref(src), Amount: dmg, HPLeft: seeder.HP, Cause: "liquid_ooze"})
				e.checkFaint(st, src)
			} else if seeder.HP < seeder.MaxHP() {
				e.healBy(st, src, dmg, "leech_seed")
			}
			e.checkFaint(st, pos)
			if !p.Alive() {
				return
			}
		}
	}

	switch {
	case p.Status.Has(StatusToxic):
		n := p.Status.ToxicCounter() + 1
		p.Status.SetToxicCounter(n)
		dmg := p.MaxHP() / 16 * n
		if dmg < 1 {
			dmg = 1
		}
		p.TakeDamage(dmg)
		st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: p.HP, Cause: "toxic"})
		e.checkFaint(st, pos)
	case p.Status.Has(StatusPoison):
		dmg := p.MaxHP() / 8
		if dmg < 1 {
			dmg = 1
		}
		p.TakeDamage(dmg)
		st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: p.HP, Cause: "poison"})
		e.checkFaint(st, pos)
	case p.Status.Has(StatusBurn):
		dmg := p.MaxHP() / 8
		if dmg < 1 {
			dmg = 1
		}
		p.TakeDamage(dmg)
		st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: p.HP, Cause: "burn"})
		e.checkFaint(st, pos)
	}
	if !p.Alive() {
		return
	}

	if p.Volatile.Has(VolNightmare) {
		if p.Status.SleepTurns() > 0 {
			dmg := p.MaxHP() / 4
			if dmg < 1 {
				dmg = 1
			}
			p.TakeDamage(dmg)
			st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: p.HP, Cause: "nightmare"})
			e.checkFaint(st, pos)
			if !p.Alive() {
				return
			}
		} else {
			p.Volatile &^= VolNightmare
			st.emit(EventVolatile{Target: st.Ref(pos), Condition: "nightmare", Ended: true})
		}
	}

	if p.Volatile.Has(VolCursed) {
		dmg := p.MaxHP() / 4
		if dmg < 1 {
			dmg = 1
		}
		p.TakeDamage(dmg)
		st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: p.HP, Cause: "curse"})
		e.checkFaint(st, pos)
		if !p.Alive() {
			return
		}
	}

	if n := p.Volatile.Wrapped(); n > 0 {
		p.Volatile.SetWrapped(n - 1)
		if n-1 == 0 {
			st.emit(EventVolatile{Target: st.Ref(pos), Condition: "wrap", Ended: true})
			timers.WrapMove = 0
			timers.WrapSource = -1
		} else {
			dmg := p.MaxHP() / 16
			if dmg < 1 {
				dmg = 1
			}
			p.TakeDamage(dmg)
			st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: p.HP, Cause: "wrap"})
			e.checkFaint(st, pos)
			if !p.Alive() {
				return
			}
		}
	}

	if n := p.Volatile.Uproar(); n > 0 {
		p.Volatile.SetUproar(n - 1)
		if n-1 == 0 {
			e.breakLock(st, pos)
			st.emit(EventVolatile{Target: st.Ref(pos), Condition: "uproar", Ended: true})
		}
	}

	if timers.DisableTimer > 0 {
		timers.DisableTimer--
		if timers.DisableTimer == 0 {
			timers.DisabledMove = 0
			st.emit(EventVolatile{Target: st.Ref(pos), Condition: "disable", Ended: true})
		}
	}

	if timers.EncoreTimer > 0 {
		timers.EncoreTimer--
		ranDry := timers.EncoredSlot >= 0 && timers.EncoredSlot < len(p.Moves) &&
			p.Moves[timers.EncoredSlot].PP == 0
		if timers.EncoreTimer == 0 || ranDry {
			timers.EncoreTimer = 0
			timers.EncoredMove, timers.EncoredSlot = 0, 0
			st.emit(EventVolatile{Target: st.Ref(pos), Condition: "encore", Ended: true})
		}
	}

	if n := p.Special.AlwaysHits(); n > 0 {
		p.Special.SetAlwaysHits(n - 1)
		if n-1 == 0 {
			timers.LockOnTarget = -1
		}
	}

	if timers.ChargeTimer > 0 {
		timers.ChargeTimer--
		if timers.ChargeTimer == 0 {
			p.Special &^= SpCharged
		}
	}

	if timers.TauntTimer > 0 {
		timers.TauntTimer--
		if timers.TauntTimer == 0 {
			st.emit(EventVolatile{Target: st.Ref(pos), Condition: "taunt", Ended: true})
		}
	}

	if n := p.Special.YawnTurns(); n > 0 {
		p.Special.SetYawnTurns(n - 1)
		if n-1 == 0 {
			e.tryInflictStatus(st, pos, pos, StatusSleepMask, false)
		}
	}

	e.checkHPItems(st, pos)
}

// tickFutureSight fires a stored attack on whoever holds the slot when
// the clock runs out.
func (e *Engine) tickFutureSight(st *State, pos int) {
	d := st.Pending[pos]
	if d.FutureTimer == 0 {
		return
	}
	d.FutureTimer--
	if d.FutureTimer > 0 {
		return
	}

	p := st.At(pos)
	if !p.Alive() {
		d.FutureDamage = 0
		return
	}
	st.emit(EventVolatile{Target: st.Ref(pos), Condition: "future_sight_hit", Count: d.FutureMove})
	dmg := d.FutureDamage
	if dmg < 1 {
		dmg = 1
	}
	if p.Volatile.Has(VolSubstitute) {
		e.damageSubstitute(st, pos, dmg)
	} else {
		dmg = p.TakeDamage(dmg)
		st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: p.HP, Cause: "future_sight"})
		e.checkFaint(st, pos)
	}
	d.FutureDamage = 0
}

// tickPerishSong counts the doomed battlers down and drops them at
// zero.
func (e *Engine) tickPerishSong(st *State, pos int) {
	p := st.At(pos)
	if p == nil || !p.Alive() || !p.Special.Has(SpPerishSong) {
		return
	}
	timers := st.Timers[pos]
	timers.PerishTimer--
	st.emit(EventVolatile{Target: st.Ref(pos), Condition: "perish_song", Count: timers.PerishTimer})
	if timers.PerishTimer <= 0 {
		p.TakeDamage(p.HP)
		e.checkFaint(st, pos)
	}
}
