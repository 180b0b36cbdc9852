package battle

import "github.com/nanakusa/frontier/resource"

// Hold effect names, matching the item data files. HoldParam carries
// the effect's argument: the boost percent, the proc chance, the type
// index for type boosters or the restore amount for berries.
const (
	HoldNone          = ""
	HoldChoiceBand    = "choice_band"
	HoldCureAttract   = "cure_attract"
	HoldCureBurn      = "cure_burn"
	HoldCureConfusion = "cure_confusion"
	HoldCureFreeze    = "cure_freeze"
	HoldCureParalysis = "cure_paralysis"
	HoldCurePoison    = "cure_poison"
	HoldCureSleep     = "cure_sleep"
	HoldCureStatus    = "cure_status"
	HoldFocusBand     = "focus_band"
	HoldKingsRock     = "kings_rock"
	HoldLeftovers     = "leftovers"
	HoldLuckyPunch    = "lucky_punch"
	HoldPinchRaise    = "pinch_raise"
	HoldQuickClaw     = "quick_claw"
	HoldRestoreHP     = "restore_hp"
	HoldScopeLens     = "scope_lens"
	HoldShellBell     = "shell_bell"
	HoldStick         = "stick"
	HoldTypeBoost     = "type_boost"
)

// Species gates for the oddball crit items.
const (
	speciesChansey   = 113
	speciesFarfetchd = 83
)

// holdEffect resolves a battler's held item to its passive effect.
// Returns the empty effect when nothing is held or the item is not in
// the data.
func (e *Engine) holdEffect(p *Pokemon) (string, int) {
	if p == nil || p.ItemID == 0 {
		return HoldNone, 0
	}
	item := e.res.ItemByID(p.ItemID)
	if item == nil {
		return HoldNone, 0
	}
	return item.HoldEffect, item.HoldParam
}

func (e *Engine) itemName(id int) string {
	if item := e.res.ItemByID(id); item != nil {
		return item.Name
	}
	return "???"
}

// critItemBonus returns the crit stages granted by the held item.
func (e *Engine) critItemBonus(p *Pokemon) int {
	effect, _ := e.holdEffect(p)
	switch effect {
	case HoldScopeLens:
		return 1
	case HoldLuckyPunch:
		if p.SpeciesID == speciesChansey {
			return 2
		}
	case HoldStick:
		if p.SpeciesID == speciesFarfetchd {
			return 2
		}
	}
	return 0
}

// checkHPItems fires the holder's berry effects that react to its
// current HP and status. Called after the battler takes damage and
// again during the end-turn item passes.
func (e *Engine) checkHPItems(st *State, pos int) {
	p := st.At(pos)
	if !p.Alive() {
		return
	}
	effect, param := e.holdEffect(p)
	switch effect {
	case HoldRestoreHP:
		if p.HP <= p.MaxHP()/2 {
			healed := p.Heal(param)
			if healed > 0 {
				st.emit(EventItem{Holder: st.Ref(pos), Item: e.itemName(p.ItemID)})
				st.emit(EventHeal{Target: st.Ref(pos), Amount: healed, HPLeft: p.HP, Cause: "berry"})
				p.ItemID = 0
			}
		}
	case HoldPinchRaise:
		if p.HP <= p.MaxHP()/4 && p.ApplyStage(param, 1) {
			st.emit(EventItem{Holder: st.Ref(pos), Item: e.itemName(p.ItemID)})
			st.emit(EventStatChange{Target: st.Ref(pos), Stat: StatName(param), Delta: 1})
			p.ItemID = 0
		}
	case HoldCureSleep:
		if p.Status.SleepTurns() > 0 {
			e.cureWithItem(st, pos, p, StatusSleepMask, "sleep")
		}
	case HoldCurePoison:
		if p.Status.Has(StatusPoisonAny) {
			e.cureWithItem(st, pos, p, StatusPoisonAny|StatusToxicMask, "poison")
		}
	case HoldCureBurn:
		if p.Status.Has(StatusBurn) {
			e.cureWithItem(st, pos, p, StatusBurn, "burn")
		}
	case HoldCureFreeze:
		if p.Status.Has(StatusFreeze) {
			e.cureWithItem(st, pos, p, StatusFreeze, "freeze")
		}
	case HoldCureParalysis:
		if p.Status.Has(StatusParalysis) {
			e.cureWithItem(st, pos, p, StatusParalysis, "paralysis")
		}
	case HoldCureConfusion:
		if p.Volatile.Confusion() > 0 {
			st.emit(EventItem{Holder: st.Ref(pos), Item: e.itemName(p.ItemID)})
			p.Volatile.SetConfusion(0)
			st.emit(EventVolatile{Target: st.Ref(pos), Condition: "confusion", Ended: true})
			p.ItemID = 0
		}
	case HoldCureAttract:
		if p.Volatile.Has(VolInfatuationMask) {
			st.emit(EventItem{Holder: st.Ref(pos), Item: e.itemName(p.ItemID)})
			p.Volatile &^= VolInfatuationMask
			st.emit(EventVolatile{Target: st.Ref(pos), Condition: "attract", Ended: true})
			p.ItemID = 0
		}
	case HoldCureStatus:
		cured := p.Status.Has(StatusAny) || p.Volatile.Confusion() > 0
		if cured {
			st.emit(EventItem{Holder: st.Ref(pos), Item: e.itemName(p.ItemID)})
			if label := statusLabel(p.Status); label != "" {
				st.emit(EventCure{Target: st.Ref(pos), Status: label, Cause: "item"})
			}
			p.Status = 0
			if p.Volatile.Confusion() > 0 {
				p.Volatile.SetConfusion(0)
				st.emit(EventVolatile{Target: st.Ref(pos), Condition: "confusion", Ended: true})
			}
			p.ItemID = 0
		}
	}
}

func (e *Engine) cureWithItem(st *State, pos int, p *Pokemon, mask Status, label string) {
	st.emit(EventItem{Holder: st.Ref(pos), Item: e.itemName(p.ItemID)})
	p.Status &^= mask
	st.emit(EventCure{Target: st.Ref(pos), Status: label, Cause: "item"})
	p.ItemID = 0
}

// typeBoostPercent returns the held item's power bonus for a move of
// the given type. Type boosters carry the type index in HoldParam and
// always grant ten percent.
func (e *Engine) typeBoostPercent(p *Pokemon, t resource.Type) int {
	effect, param := e.holdEffect(p)
	if effect == HoldTypeBoost && resource.Type(param) == t {
		return 10
	}
	return 0
}

// stealItem moves the target's held item to an empty-handed user.
func (e *Engine) stealItem(st *State, userPos, targetPos int) {
	user := st.At(userPos)
	target := st.At(targetPos)
	if user.ItemID != 0 || target.ItemID == 0 {
		return
	}
	if idx := st.ActiveIndex[targetPos]; idx >= 0 && st.KnockedOff[SideOf(targetPos)]&(1<<uint(idx)) != 0 {
		return
	}
	if target.Ability == AbilityStickyHold {
		st.emit(EventAbility{Mon: st.Ref(targetPos), Ability: AbilityStickyHold, Note: "blocked"})
		return
	}
	user.ItemID, target.ItemID = target.ItemID, 0
	target.ChoiceMove = 0
	st.emit(EventItem{Holder: st.Ref(userPos), Item: e.itemName(user.ItemID), Note: "stolen"})
}

// knockOffItem disables the target's held item for the rest of the
// battle.
func (e *Engine) knockOffItem(st *State, userPos, targetPos int) {
	target := st.At(targetPos)
	if target.ItemID == 0 {
		return
	}
	if target.Ability == AbilityStickyHold {
		st.emit(EventAbility{Mon: st.Ref(targetPos), Ability: AbilityStickyHold, Note: "blocked"})
		return
	}
	st.emit(EventItem{Holder: st.Ref(targetPos), Item: e.itemName(target.ItemID), Note: "knocked_off"})
	target.ItemID = 0
	target.ChoiceMove = 0
	if idx := st.ActiveIndex[targetPos]; idx >= 0 {
		st.KnockedOff[SideOf(targetPos)] |= 1 << uint(idx)
	}
}
