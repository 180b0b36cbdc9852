package battle

import "github.com/nanakusa/frontier/resource"

// protectOdds[n] is the success ceiling for the nth consecutive shield
// use, compared against one raw RNG word.
var protectOdds = [...]int{0xFFFF, 0x7FFF, 0x3FFF, 0x1FFF, 0x0FFF, 0x07FF, 0x03FF}

// moveCtx carries one move execution through the pipeline.
type moveCtx struct {
	st        *State
	userPos   int
	targetPos int
	mv        *resource.Move
	slot      int // move slot spent, -1 for Struggle
	switchTo  int // requested Baton Pass recipient, -1 for none
}

// executeAction runs one ordered action. Switches and forfeits resolve
// directly; moves go through the full pipeline.
func (e *Engine) executeAction(st *State, act Action) {
	if st.Over() || !st.At(act.Pos).Alive() {
		return
	}
	switch act.Type {
	case ActionSwitch:
		e.performSwitch(st, act.Pos, act.SwitchTo, false)
	case ActionForfeit:
		if SideOf(act.Pos) == 0 {
			st.Outcome = OutcomeLoss
		} else {
			st.Outcome = OutcomeWin
		}
	case ActionMove:
		e.useMove(st, act)
	}
}

// selectMove resolves which move actually comes out: a multi-turn lock
// wins, then an Encore, then the chosen slot. No usable slot means
// Struggle.
func (e *Engine) selectMove(st *State, pos int, act Action) (*resource.Move, int) {
	user := st.At(pos)
	timers := st.Timers[pos]
	if timers.LockedMove != 0 {
		return e.res.MoveByID(timers.LockedMove), timers.LockedSlot
	}
	if timers.EncoreTimer > 0 {
		return e.res.MoveByID(timers.EncoredMove), timers.EncoredSlot
	}
	if act.MoveSlot < 0 || act.MoveSlot >= len(user.Moves) {
		return e.res.MoveByID(MoveStruggle), -1
	}
	ms := user.Moves[act.MoveSlot]
	if ms.ID == 0 || ms.PP <= 0 {
		return e.res.MoveByID(MoveStruggle), -1
	}
	return e.res.MoveByID(ms.ID), act.MoveSlot
}

func targetsFoe(mv *resource.Move) bool {
	return mv.Target != resource.TargetUser && mv.Target != resource.TargetOpponentsField
}

// resolveTarget picks the position a move lands on. Singles: the foe
// sits straight across.
func (e *Engine) resolveTarget(st *State, userPos, requested int, mv *resource.Move) int {
	if mv.Target == resource.TargetUser {
		return userPos
	}
	if requested >= 0 && requested < MaxPositions &&
		SideOf(requested) != SideOf(userPos) && st.At(requested).Alive() {
		return requested
	}
	return Across(userPos)
}

// useMove runs one move action end to end: obstruction chain, PP,
// bookkeeping, then the status or damage path.
func (e *Engine) useMove(st *State, act Action) {
	pos := act.Pos
	user := st.At(pos)
	timers := st.Timers[pos]
	flags := st.Flags[pos]

	// Destiny Bond and Grudge hold until the user's next action.
	user.Volatile &^= VolDestinyBond
	user.Special &^= SpGrudge

	mv, slot := e.selectMove(st, pos, act)
	if mv == nil {
		st.emit(EventFailed{User: st.Ref(pos)})
		return
	}
	continuing := timers.LockedMove != 0

	if !e.runCancelers(st, pos, mv) {
		timers.ProtectUses = 0
		timers.Charging = false
		user.Special &^= SpSemiInvulnerable
		e.breakLock(st, pos)
		return
	}

	// Focus Punch only fires if nothing hit the user first.
	if mv.Effect == EffectFocusPunch && flags.PhysicalDmg+flags.SpecialDmg > 0 {
		timers.ProtectUses = 0
		st.emit(EventFailed{User: st.Ref(pos), Reason: "lost_focus"})
		return
	}

	// Fake Out is only good straight off the switch-in.
	if mv.Effect == EffectFakeOut && timers.FirstTurn == 0 {
		timers.ProtectUses = 0
		st.emit(EventFailed{User: st.Ref(pos)})
		return
	}

	// PP comes off once per multi-turn sequence; Pressure doubles the
	// cost.
	if !continuing && slot >= 0 {
		cost := 1
		if foe := st.At(Across(pos)); foe.Alive() && foe.Ability == AbilityPressure && targetsFoe(mv) {
			cost = 2
		}
		user.Moves[slot].PP -= cost
		if user.Moves[slot].PP < 0 {
			user.Moves[slot].PP = 0
		}
	}

	user.LastMove = mv.ID
	if effect, _ := e.holdEffect(user); effect == HoldChoiceBand && user.ChoiceMove == 0 {
		user.ChoiceMove = mv.ID
	}
	if mv.Effect != EffectFuryCutter {
		timers.FuryCounter = 0
	}
	if mv.Effect != EffectProtect && mv.Effect != EffectEndure {
		timers.ProtectUses = 0
	}
	if mv.Effect != EffectRage {
		user.Volatile &^= VolRage
	}

	targetPos := e.resolveTarget(st, pos, act.Target, mv)
	st.emit(EventMoveUsed{User: st.Ref(pos), MoveID: mv.ID, MoveName: mv.Name, Target: targetPos})

	ctx := &moveCtx{st: st, userPos: pos, targetPos: targetPos, mv: mv, slot: slot, switchTo: act.SwitchTo}
	if e.runStatusMove(ctx) {
		return
	}
	e.damageMove(ctx)

	// Rampages tick on every executed attempt, hit or miss, and end in
	// confused fatigue.
	if mv.Effect == EffectRampage && timers.LockedMove != 0 {
		n := user.Volatile.Rampage() - 1
		if n < 0 {
			n = 0
		}
		user.Volatile.SetRampage(n)
		if n == 0 {
			e.breakLock(st, pos)
			if user.Alive() {
				st.emit(EventVolatile{Target: st.Ref(pos), Condition: "fatigue"})
				e.tryConfuse(st, pos, false)
			}
		}
	}
}

// breakLock drops any multi-turn move lock and its counters.
func (e *Engine) breakLock(st *State, pos int) {
	timers := st.Timers[pos]
	timers.LockedMove = 0
	timers.LockedSlot = 0
	timers.RolloutCount = 0
	if p := st.At(pos); p != nil {
		p.Volatile &^= VolMultipleTurns
		p.Volatile.SetRampage(0)
		p.Volatile.SetBide(0)
		p.Volatile.SetUproar(0)
	}
}

// damageMove is the attack path: charge turns, locks, the shields,
// immunity, accuracy, then the hits.
func (e *Engine) damageMove(ctx *moveCtx) {
	st, pos, targetPos, mv := ctx.st, ctx.userPos, ctx.targetPos, ctx.mv
	user := st.At(pos)
	timers := st.Timers[pos]

	// Two-turn moves spend the first turn in the air, underground or
	// gathering light.
	if twoTurnEffect(mv.Effect) {
		if timers.Charging {
			timers.Charging = false
			user.Special &^= SpSemiInvulnerable
			e.breakLock(st, pos)
		} else if !(mv.Effect == EffectSolarBeam && st.Weather == WeatherSun) {
			e.beginCharge(ctx)
			return
		}
	}

	switch mv.Effect {
	case EffectBide:
		e.runBide(ctx)
		return
	case EffectCounter, EffectMirrorCoat:
		e.runCounter(ctx)
		return
	}

	e.beginLockIfNeeded(ctx)

	target := st.At(targetPos)
	if !target.Alive() {
		st.emit(EventFailed{User: st.Ref(pos)})
		e.breakLock(st, pos)
		return
	}

	if mv.Effect == EffectDreamEater && target.Status.SleepTurns() == 0 {
		st.emit(EventFailed{User: st.Ref(pos)})
		return
	}

	if st.Flags[targetPos].Protected && mv.Flags&resource.FlagProtectAffected != 0 {
		st.emit(EventProtected{Target: st.Ref(targetPos)})
		if mv.Effect == EffectRollout {
			e.breakLock(st, pos)
		}
		if mv.Effect == EffectFuryCutter {
			timers.FuryCounter = 0
		}
		return
	}

	// Brick Break shatters the screens before any damage math.
	if mv.Effect == EffectBrickBreak {
		e.shatterScreens(st, targetPos)
	}

	eff := e.typeMultiplier(mv.Type, target)
	if by := e.abilityBlocksMove(st, targetPos, mv, eff); by != "" {
		st.emit(EventImmune{Target: st.Ref(targetPos), By: by})
		return
	}
	if eff == resource.EffectNone {
		st.emit(EventImmune{Target: st.Ref(targetPos)})
		e.applyCrash(ctx)
		return
	}

	if mv.Effect == EffectOHKO {
		e.runOHKO(ctx)
		return
	}

	if !e.accuracyCheck(st, pos, targetPos, mv) {
		st.emit(EventMiss{User: st.Ref(pos), Target: st.Ref(targetPos)})
		e.applyCrash(ctx)
		if mv.Effect == EffectRollout {
			e.breakLock(st, pos)
		}
		if mv.Effect == EffectFuryCutter {
			timers.FuryCounter = 0
		}
		return
	}

	if dmg, ok := e.fixedDamage(ctx); ok {
		if dmg <= 0 {
			st.emit(EventFailed{User: st.Ref(pos)})
			return
		}
		dealt, hitSub := e.dealHit(st, pos, targetPos, mv, dmg, false, 0)
		e.afterHits(ctx, dealt, hitSub)
		return
	}

	e.runDamageHits(ctx, eff)
}

func twoTurnEffect(effect string) bool {
	switch effect {
	case EffectChargeAttack, EffectSolarBeam, EffectSkullBash, EffectFly, EffectDig, EffectDive:
		return true
	}
	return false
}

// beginCharge starts a two-turn move. The vanishing moves leave the
// field; Skull Bash braces.
func (e *Engine) beginCharge(ctx *moveCtx) {
	st, pos, mv := ctx.st, ctx.userPos, ctx.mv
	user := st.At(pos)
	timers := st.Timers[pos]
	timers.Charging = true
	timers.LockedMove = mv.ID
	timers.LockedSlot = ctx.slot
	user.Volatile |= VolMultipleTurns

	condition := "charging"
	switch mv.Effect {
	case EffectFly:
		user.Special |= SpOnAir
		condition = "fly"
	case EffectDig:
		user.Special |= SpUnderground
		condition = "dig"
	case EffectDive:
		user.Special |= SpUnderwater
		condition = "dive"
	}
	st.emit(EventVolatile{Target: st.Ref(pos), Condition: condition})
	if mv.Effect == EffectSkullBash {
		e.raiseStat(st, pos, StatDef, 1)
	}
}

// beginLockIfNeeded arms the self-sustaining multi-turn moves on their
// first use.
func (e *Engine) beginLockIfNeeded(ctx *moveCtx) {
	st, pos, mv := ctx.st, ctx.userPos, ctx.mv
	user := st.At(pos)
	timers := st.Timers[pos]

	switch mv.Effect {
	case EffectRampage:
		if user.Volatile.Rampage() == 0 {
			user.Volatile.SetRampage(2 + st.RNG.Intn(2))
			user.Volatile |= VolMultipleTurns
			timers.LockedMove, timers.LockedSlot = mv.ID, ctx.slot
		}
	case EffectUproar:
		if user.Volatile.Uproar() == 0 {
			user.Volatile.SetUproar(2 + st.RNG.Intn(4))
			user.Volatile |= VolMultipleTurns
			timers.LockedMove, timers.LockedSlot = mv.ID, ctx.slot
			st.emit(EventVolatile{Target: st.Ref(pos), Condition: "uproar"})
		}
	case EffectRollout:
		if timers.LockedMove == 0 {
			timers.LockedMove, timers.LockedSlot = mv.ID, ctx.slot
			timers.RolloutCount = 0
			user.Volatile |= VolMultipleTurns
		}
	}
}

// runBide stores energy for two turns, then throws back double
// everything taken.
func (e *Engine) runBide(ctx *moveCtx) {
	st, pos := ctx.st, ctx.userPos
	user := st.At(pos)
	timers := st.Timers[pos]

	if user.Volatile.Bide() == 0 {
		user.Volatile.SetBide(2)
		user.Volatile |= VolMultipleTurns
		timers.LockedMove, timers.LockedSlot = ctx.mv.ID, ctx.slot
		timers.BideDamage, timers.BideSource = 0, -1
		st.emit(EventVolatile{Target: st.Ref(pos), Condition: "bide"})
		return
	}

	n := user.Volatile.Bide() - 1
	user.Volatile.SetBide(n)
	if n > 0 {
		st.emit(EventVolatile{Target: st.Ref(pos), Condition: "bide"})
		return
	}

	dmg, src := timers.BideDamage*2, timers.BideSource
	e.breakLock(st, pos)
	if dmg == 0 || src < 0 || !st.At(src).Alive() {
		st.emit(EventFailed{User: st.Ref(pos)})
		return
	}
	if st.Flags[src].Protected {
		st.emit(EventProtected{Target: st.Ref(src)})
		return
	}
	ctx.targetPos = src
	dealt, hitSub := e.dealHit(st, pos, src, ctx.mv, dmg, false, 0)
	e.afterHits(ctx, dealt, hitSub)
}

// runCounter bounces back double the stored physical or special damage
// at whoever dealt it.
func (e *Engine) runCounter(ctx *moveCtx) {
	st, pos, mv := ctx.st, ctx.userPos, ctx.mv
	flags := st.Flags[pos]

	dmg, src := flags.PhysicalDmg, flags.PhysicalSource
	if mv.Effect == EffectMirrorCoat {
		dmg, src = flags.SpecialDmg, flags.SpecialSource
	}
	if dmg == 0 || src < 0 || !st.At(src).Alive() {
		st.emit(EventFailed{User: st.Ref(pos)})
		return
	}
	if st.Flags[src].Protected && mv.Flags&resource.FlagProtectAffected != 0 {
		st.emit(EventProtected{Target: st.Ref(src)})
		return
	}
	if !e.accuracyCheck(st, pos, src, mv) {
		st.emit(EventMiss{User: st.Ref(pos), Target: st.Ref(src)})
		return
	}
	ctx.targetPos = src
	dealt, hitSub := e.dealHit(st, pos, src, mv, dmg*2, false, 0)
	e.afterHits(ctx, dealt, hitSub)
}

// runOHKO handles the level-gated one-hit knockouts.
func (e *Engine) runOHKO(ctx *moveCtx) {
	st, pos, targetPos := ctx.st, ctx.userPos, ctx.targetPos
	user := st.At(pos)
	target := st.At(targetPos)

	if target.Level > user.Level {
		st.emit(EventFailed{User: st.Ref(pos)})
		return
	}
	if target.Ability == AbilitySturdy {
		st.emit(EventImmune{Target: st.Ref(targetPos), By: AbilitySturdy})
		return
	}
	sureHit := st.Timers[pos].LockOnTarget == targetPos && user.Special.AlwaysHits() > 0
	if !sureHit {
		acc := user.Level - target.Level + 30
		if st.RNG.Intn(100)+1 > acc {
			st.emit(EventMiss{User: st.Ref(pos), Target: st.Ref(targetPos)})
			return
		}
	}
	dealt, hitSub := e.dealHit(st, pos, targetPos, ctx.mv, target.HP, false, 0)
	if !hitSub {
		st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "one_hit_ko"})
	}
	e.afterHits(ctx, dealt, hitSub)
}

// fixedDamage returns the flat damage for the fixed-amount family, or
// ok=false for ordinary moves. A non-positive amount means the move
// fails.
func (e *Engine) fixedDamage(ctx *moveCtx) (int, bool) {
	st := ctx.st
	user := st.At(ctx.userPos)
	target := st.At(ctx.targetPos)

	switch ctx.mv.Effect {
	case EffectDragonRage:
		return 40, true
	case EffectSonicBoom:
		return 20, true
	case EffectLevelDamage:
		return user.Level, true
	case EffectPsywave:
		dmg := user.Level * (10*st.RNG.Intn(11) + 50) / 100
		if dmg < 1 {
			dmg = 1
		}
		return dmg, true
	case EffectSuperFang:
		dmg := target.HP / 2
		if dmg < 1 {
			dmg = 1
		}
		return dmg, true
	case EffectEndeavor:
		return target.HP - user.HP, true
	}
	return 0, false
}

// runDamageHits rolls crits and variance per hit and applies the whole
// volley, riders included.
func (e *Engine) runDamageHits(ctx *moveCtx, eff int) {
	st, pos, targetPos, mv := ctx.st, ctx.userPos, ctx.targetPos, ctx.mv
	target := st.At(targetPos)

	hits := 1
	switch mv.Effect {
	case EffectTwoHits, EffectPoisonDoubleHit:
		hits = 2
	case EffectTripleKick:
		hits = 3
	case EffectMultiHit:
		switch r := st.RNG.Intn(100); {
		case r < 37:
			hits = 2
		case r < 75:
			hits = 3
		case r < 87:
			hits = 4
		default:
			hits = 5
		}
	}

	total, landed := 0, 0
	lastSub := false
	for i := 0; i < hits; i++ {
		if target.HP == 0 {
			break
		}
		crit := e.critRoll(st, pos, target, mv)
		dmg := e.calcDamage(st, pos, targetPos, mv, e.movePower(ctx, i), crit)
		dmg = dmg * eff / 10
		if target.Special.Has(SpSemiInvulnerable) {
			if _, double := vanishPierce(mv.ID, target.Special); double {
				dmg *= 2
			}
		}
		dmg = e.rollVariance(st, dmg)
		if dmg < 1 {
			dmg = 1
		}
		dealt, hitSub := e.dealHit(st, pos, targetPos, mv, dmg, crit, eff)
		total += dealt
		landed++
		lastSub = hitSub
		e.applyHitRider(st, pos, targetPos, mv, dealt, hitSub)
	}
	if hits > 1 {
		st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "hits", Count: landed})
	}
	e.afterHits(ctx, total, lastSub)
}

// movePower resolves the per-use power for the moves that scale.
func (e *Engine) movePower(ctx *moveCtx, hit int) int {
	st, mv := ctx.st, ctx.mv
	user := st.At(ctx.userPos)
	timers := st.Timers[ctx.userPos]

	switch mv.Effect {
	case EffectTripleKick:
		return mv.Power * (hit + 1)
	case EffectRollout:
		p := mv.Power << uint(timers.RolloutCount)
		if user.Volatile.Has(VolDefenseCurl) {
			p *= 2
		}
		return p
	case EffectFuryCutter:
		p := mv.Power << uint(timers.FuryCounter)
		if p > 160 {
			p = 160
		}
		return p
	case EffectLowKick:
		sp := e.res.SpeciesByID(st.At(ctx.targetPos).SpeciesID)
		if sp == nil {
			return mv.Power
		}
		switch w := sp.Weight; { // hectograms
		case w < 100:
			return 20
		case w < 250:
			return 40
		case w < 500:
			return 60
		case w < 1000:
			return 80
		case w < 2000:
			return 100
		default:
			return 120
		}
	case EffectFlail:
		switch r := 48 * user.HP / user.MaxHP(); {
		case r <= 1:
			return 200
		case r <= 4:
			return 150
		case r <= 9:
			return 100
		case r <= 16:
			return 80
		case r <= 32:
			return 40
		default:
			return 20
		}
	case EffectHPScaledPower:
		p := mv.Power * user.HP / user.MaxHP()
		if p < 1 {
			p = 1
		}
		return p
	case EffectMagnitude:
		var mag, p int
		switch r := st.RNG.Intn(100); {
		case r < 5:
			mag, p = 4, 10
		case r < 15:
			mag, p = 5, 30
		case r < 35:
			mag, p = 6, 50
		case r < 65:
			mag, p = 7, 70
		case r < 85:
			mag, p = 8, 90
		case r < 95:
			mag, p = 9, 110
		default:
			mag, p = 10, 150
		}
		st.emit(EventVolatile{Target: st.Ref(ctx.userPos), Condition: "magnitude", Count: mag})
		return p
	case EffectFacade:
		if user.Status.Has(StatusPoisonAny | StatusBurn | StatusParalysis) {
			return mv.Power * 2
		}
	}
	return mv.Power
}

// dealHit lands one computed hit: the substitute soaks it, otherwise
// Endure and Focus Band may leave a sliver, and the damage ledgers for
// Counter, Bide, Rage and Shell Bell are updated.
func (e *Engine) dealHit(st *State, userPos, targetPos int, mv *resource.Move, dmg int, crit bool, eff int) (int, bool) {
	target := st.At(targetPos)
	if target.Volatile.Has(VolSubstitute) {
		return e.damageSubstitute(st, targetPos, dmg), true
	}

	flags := st.Flags[targetPos]
	endured := false
	if dmg >= target.HP {
		if flags.Endured {
			dmg = target.HP - 1
			endured = true
		} else if effect, param := e.holdEffect(target); effect == HoldFocusBand && st.RNG.Percent(param) {
			dmg = target.HP - 1
			flags.FocusBanded = true
		}
	}

	dealt := target.TakeDamage(dmg)
	st.emit(EventDamage{
		Target: st.Ref(targetPos), Amount: dealt, HPLeft: target.HP,
		Cause: "move", Crit: crit, Effectiveness: eff,
	})
	switch {
	case endured:
		st.emit(EventVolatile{Target: st.Ref(targetPos), Condition: "endure"})
	case flags.FocusBanded:
		st.emit(EventItem{Holder: st.Ref(targetPos), Item: e.itemName(target.ItemID), Note: "hung_on"})
		flags.FocusBanded = false
	}

	if physicalType(mv.Type) {
		flags.PhysicalDmg, flags.PhysicalSource = dealt, userPos
	} else {
		flags.SpecialDmg, flags.SpecialSource = dealt, userPos
	}
	if target.Volatile.Bide() > 0 {
		st.Timers[targetPos].BideDamage += dealt
		st.Timers[targetPos].BideSource = userPos
	}
	if target.Volatile.Has(VolRage) && dealt > 0 && target.ApplyStage(StatAtk, 1) {
		st.emit(EventStatChange{Target: st.Ref(targetPos), Stat: StatName(StatAtk), Delta: 1})
	}
	st.Flags[userPos].ShellBellDmg += dealt
	return dealt, false
}

// afterHits settles everything that hangs off a completed volley:
// drains, recoil, the self-destruct, the takedown exchanges and the
// reactive items.
func (e *Engine) afterHits(ctx *moveCtx, total int, hitSub bool) {
	st, pos, targetPos, mv := ctx.st, ctx.userPos, ctx.targetPos, ctx.mv
	user := st.At(pos)
	target := st.At(targetPos)
	timers := st.Timers[pos]

	hadDBond := target.Volatile.Has(VolDestinyBond)
	hadGrudge := target.Special.Has(SpGrudge)

	switch mv.Effect {
	case EffectDrainHit, EffectDreamEater:
		if total > 0 && user.Alive() {
			amount := total / 2
			if amount < 1 {
				amount = 1
			}
			if target.Ability == AbilityLiquidOoze {
				st.emit(EventAbility{Mon: st.Ref(targetPos), Ability: AbilityLiquidOoze})
				user.TakeDamage(amount)
				st.emit(EventDamage{Target: st.Ref(pos), Amount: amount, HPLeft: user.HP, Cause: "liquid_ooze"})
			} else {
				e.healBy(st, pos, amount, "drain")
			}
		}
	case EffectRecoilQuarter:
		e.applyRecoil(st, pos, total, 4, mv.ID == MoveStruggle)
	case EffectRecoilThird:
		e.applyRecoil(st, pos, total, 3, false)
	case EffectRechargeHit:
		if total > 0 {
			timers.RechargeTimer = 1
			user.Volatile |= VolRecharge
		}
	case EffectRage:
		user.Volatile |= VolRage
	case EffectRapidSpin:
		e.rapidSpinClear(st, pos)
	case EffectExplosion:
		user.TakeDamage(user.HP)
	case EffectRollout:
		timers.RolloutCount++
		if timers.RolloutCount >= 5 {
			e.breakLock(st, pos)
		}
	case EffectFuryCutter:
		if timers.FuryCounter < 5 {
			timers.FuryCounter++
		}
	}

	// A takedown drags the attacker along; a grudge drains the move.
	if target.HP == 0 && !hitSub {
		if hadDBond && user.HP > 0 {
			lost := user.TakeDamage(user.HP)
			st.emit(EventDamage{Target: st.Ref(pos), Amount: lost, HPLeft: 0, Cause: "destiny_bond"})
		}
		if hadGrudge && ctx.slot >= 0 {
			user.Moves[ctx.slot].PP = 0
			st.emit(EventVolatile{Target: st.Ref(pos), Condition: "grudge"})
		}
	}

	e.checkFaint(st, targetPos)
	e.checkFaint(st, pos)
	e.checkHPItems(st, targetPos)
	e.checkHPItems(st, pos)

	if effect, _ := e.holdEffect(user); effect == HoldShellBell &&
		user.Alive() && st.Flags[pos].ShellBellDmg > 0 && user.HP < user.MaxHP() {
		heal := st.Flags[pos].ShellBellDmg / 8
		if heal < 1 {
			heal = 1
		}
		st.emit(EventItem{Holder: st.Ref(pos), Item: e.itemName(user.ItemID)})
		e.healBy(st, pos, heal, "shell_bell")
	}
	st.Flags[pos].ShellBellDmg = 0
}

func (e *Engine) applyRecoil(st *State, pos, total, divisor int, always bool) {
	user := st.At(pos)
	if total <= 0 || !user.Alive() {
		return
	}
	if !always && user.Ability == AbilityRockHead {
		return
	}
	dmg := total / divisor
	if dmg < 1 {
		dmg = 1
	}
	user.TakeDamage(dmg)
	st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: user.HP, Cause: "recoil"})
}

// applyCrash hurts a jump kicker that missed: half the damage the kick
// would have dealt.
func (e *Engine) applyCrash(ctx *moveCtx) {
	if ctx.mv.Effect != EffectCrashHit {
		return
	}
	st, pos := ctx.st, ctx.userPos
	user := st.At(pos)
	dmg := e.calcDamage(st, pos, ctx.targetPos, ctx.mv, 0, false) / 2
	if dmg < 1 {
		dmg = 1
	}
	user.TakeDamage(dmg)
	st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: user.HP, Cause: "crash"})
	e.checkFaint(st, pos)
}

// damageSubstitute routes a hit into the target's substitute and
// reports what the doll absorbed.
func (e *Engine) damageSubstitute(st *State, pos, dmg int) int {
	timers := st.Timers[pos]
	if dmg > timers.SubstituteHP {
		dmg = timers.SubstituteHP
	}
	timers.SubstituteHP -= dmg
	st.emit(EventDamage{Target: st.Ref(pos), Amount: dmg, HPLeft: st.At(pos).HP, Cause: "move", Substitute: true})
	if timers.SubstituteHP == 0 {
		st.At(pos).Volatile &^= VolSubstitute
		st.emit(EventVolatile{Target: st.Ref(pos), Condition: "substitute", Ended: true})
	}
	return dmg
}

// checkFaint settles a battler at zero HP: announce once, clear the
// fallen battler's state and recheck the battle result.
func (e *Engine) checkFaint(st *State, pos int) {
	p := st.At(pos)
	if p == nil || p.HP > 0 || st.fainted[pos] {
		return
	}
	st.fainted[pos] = true
	p.Status = 0
	p.Volatile = 0
	p.Special = 0
	p.ChoiceMove = 0
	p.ResetStages()
	st.emit(EventFaint{Target: st.Ref(pos)})
	e.checkOutcome(st)
}

// checkOutcome decides the battle once either bench runs dry.
func (e *Engine) checkOutcome(st *State) {
	if st.Outcome != OutcomeNone {
		return
	}
	a, b := st.ableCount(0), st.ableCount(1)
	switch {
	case a == 0 && b == 0:
		st.Outcome = OutcomeDraw
	case b == 0:
		st.Outcome = OutcomeWin
	case a == 0:
		st.Outcome = OutcomeLoss
	}
}
