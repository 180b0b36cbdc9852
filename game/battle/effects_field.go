package battle

// setWeather starts a five turn weather spell. Fails when the same
// weather already holds the field.
func (e *Engine) setWeather(st *State, userPos int, w Weather) bool {
	if st.Weather == w {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return false
	}
	st.Weather = w
	st.WeatherTimer = 5
	st.emit(EventWeather{Weather: w.String(), Phase: "start"})
	return true
}

// trySideTimer arms one of the timed side conditions (Reflect, Light
// Screen, Mist, Safeguard) on the user's side for five turns.
func (e *Engine) trySideTimer(st *State, userPos int, condition string) bool {
	side := st.Sides[SideOf(userPos)]
	var timer *int
	switch condition {
	case "reflect":
		timer = &side.ReflectTimer
	case "light_screen":
		timer = &side.LightScreenTimer
	case "mist":
		timer = &side.MistTimer
	case "safeguard":
		timer = &side.SafeguardTimer
	default:
		return false
	}
	if *timer > 0 {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return false
	}
	*timer = 5
	st.emit(EventSideCondition{Side: SideOf(userPos), Condition: condition})
	return true
}

// trySpikes lays a layer on the opposing side, up to three.
func (e *Engine) trySpikes(st *State, userPos int) bool {
	foeSide := 1 - SideOf(userPos)
	side := st.Sides[foeSide]
	if side.Spikes >= 3 {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return false
	}
	side.Spikes++
	st.emit(EventSideCondition{Side: foeSide, Condition: "spikes", Layers: side.Spikes})
	return true
}

// haze wipes every active battler's stages back to neutral.
func (e *Engine) haze(st *State) {
	for pos := 0; pos < MaxPositions; pos++ {
		if p := st.At(pos); p.Alive() {
			p.ResetStages()
		}
	}
	st.emit(EventVolatile{Target: MonRef{Pos: -1, Side: -1}, Condition: "haze"})
}

// forceSwitch drags a random able reserve onto the target's slot. Roar
// and Whirlwind fail against Suction Cups and rooted battlers, and when
// the bench is empty.
func (e *Engine) forceSwitch(st *State, userPos, targetPos int) {
	target := st.At(targetPos)
	if !target.Alive() {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return
	}
	if target.Ability == AbilitySuctionCups {
		st.emit(EventAbility{Mon: st.Ref(targetPos), Ability: AbilitySuctionCups, Note: "blocked"})
		return
	}
	if target.Special.Has(SpRooted) {
		st.emit(EventFailed{User: st.Ref(userPos), Reason: "rooted"})
		return
	}
	side := SideOf(targetPos)
	var bench []int
	for i, p := range st.Parties[side] {
		if p.Alive() && !st.onField(side, i) {
			bench = append(bench, i)
		}
	}
	if len(bench) == 0 {
		st.emit(EventFailed{User: st.Ref(userPos)})
		return
	}
	pick := bench[st.RNG.Intn(len(bench))]
	e.performSwitch(st, targetPos, pick, true)
}

// rapidSpinClear frees the user from the trapping effects it can spin
// away: binding moves, Leech Seed and its side's Spikes.
func (e *Engine) rapidSpinClear(st *State, userPos int) {
	user := st.At(userPos)
	if !user.Alive() {
		return
	}
	if user.Volatile.Wrapped() > 0 {
		user.Volatile.SetWrapped(0)
		st.Timers[userPos].WrapMove = 0
		st.Timers[userPos].WrapSource = -1
		st.emit(EventVolatile{Target: st.Ref(userPos), Condition: "wrap", Ended: true})
	}
	if user.Special.Has(SpLeechSeed) {
		user.Special &^= SpLeechSeed | SpLeechSeedSource
		st.emit(EventVolatile{Target: st.Ref(userPos), Condition: "leech_seed", Ended: true})
	}
	side := st.Sides[SideOf(userPos)]
	if side.Spikes > 0 {
		side.Spikes = 0
		st.emit(EventSideCondition{Side: SideOf(userPos), Condition: "spikes", Ended: true})
	}
}

// shatterScreens removes Reflect and Light Screen from the defending
// side before Brick Break's damage lands.
func (e *Engine) shatterScreens(st *State, targetPos int) {
	side := st.Sides[SideOf(targetPos)]
	if side.ReflectTimer > 0 {
		side.ReflectTimer = 0
		st.emit(EventSideCondition{Side: SideOf(targetPos), Condition: "reflect", Ended: true})
	}
	if side.LightScreenTimer > 0 {
		side.LightScreenTimer = 0
		st.emit(EventSideCondition{Side: SideOf(targetPos), Condition: "light_screen", Ended: true})
	}
}
