package battle

// BattleEvent is one entry in the battle log. Concrete event structs
// report their wire name via EventType; the WS layer forwards them as
// tagged JSON packets and the replay store persists the whole slice.
type BattleEvent interface {
	EventType() string
}

// MonRef identifies a battler in event payloads.
type MonRef struct {
	Pos  int    `json:"pos"`
	Side int    `json:"side"`
	Name string `json:"name"`
}

// MonSnapshot is a full snapshot of a battler's visible state.
type MonSnapshot struct {
	Pos       int    `json:"pos"`
	Side      int    `json:"side"`
	PartySlot int    `json:"party_slot"`
	Name      string `json:"name"`
	SpeciesID int    `json:"species_id"`
	Level     int    `json:"level"`
	Gender    int    `json:"gender"`
	HP        int    `json:"hp"`
	MaxHP     int    `json:"max_hp"`
	Status    string `json:"status,omitempty"`
}

// Ref builds a MonRef for the battler at pos.
func (st *State) Ref(pos int) MonRef {
	ref := MonRef{Pos: pos, Side: SideOf(pos)}
	if p := st.At(pos); p != nil {
		ref.Name = p.Name
	}
	return ref
}

// Snapshot builds a MonSnapshot for the battler at pos.
func (st *State) Snapshot(pos int) MonSnapshot {
	snap := MonSnapshot{Pos: pos, Side: SideOf(pos), PartySlot: -1}
	p := st.At(pos)
	if p == nil {
		return snap
	}
	snap.PartySlot = st.ActiveIndex[pos]
	snap.Name = p.Name
	snap.SpeciesID = p.SpeciesID
	snap.Level = p.Level
	snap.Gender = int(p.Gender)
	snap.HP = p.HP
	snap.MaxHP = p.MaxHP()
	snap.Status = statusLabel(p.Status)
	return snap
}

func statusLabel(s Status) string {
	switch {
	case s.SleepTurns() > 0:
		return "sleep"
	case s.Has(StatusToxic):
		return "toxic"
	case s.Has(StatusPoison):
		return "poison"
	case s.Has(StatusBurn):
		return "burn"
	case s.Has(StatusFreeze):
		return "freeze"
	case s.Has(StatusParalysis):
		return "paralysis"
	}
	return ""
}

// --- Concrete event types ---

type EventBattleStart struct {
	Seed  uint32         `json:"seed"`
	Leads [2]MonSnapshot `json:"leads"`
}

func (EventBattleStart) EventType() string { return "battle_start" }

type EventTurnStart struct {
	Turn  int      `json:"turn"`
	Order []MonRef `json:"order"`
}

func (EventTurnStart) EventType() string { return "turn_start" }

type EventSwitch struct {
	Pos    int         `json:"pos"`
	Out    string      `json:"out,omitempty"`
	In     MonSnapshot `json:"in"`
	Forced bool        `json:"forced,omitempty"`
}

func (EventSwitch) EventType() string { return "switch" }

type EventMoveUsed struct {
	User     MonRef `json:"user"`
	MoveID   int    `json:"move_id"`
	MoveName string `json:"move_name"`
	Target   int    `json:"target"`
}

func (EventMoveUsed) EventType() string { return "move_used" }

// EventDamage reports HP loss from any source. Effectiveness is the
// chart product times ten (20 = double, 5 = half), zero when the cause
// is not a typed hit.
type EventDamage struct {
	Target        MonRef `json:"target"`
	Amount        int    `json:"amount"`
	HPLeft        int    `json:"hp_left"`
	Cause         string `json:"cause"`
	Crit          bool   `json:"crit,omitempty"`
	Effectiveness int    `json:"effectiveness,omitempty"`
	Substitute    bool   `json:"substitute,omitempty"`
}

func (EventDamage) EventType() string { return "damage" }

type EventHeal struct {
	Target MonRef `json:"target"`
	Amount int    `json:"amount"`
	HPLeft int    `json:"hp_left"`
	Cause  string `json:"cause"`
}

func (EventHeal) EventType() string { return "heal" }

type EventMiss struct {
	User   MonRef `json:"user"`
	Target MonRef `json:"target"`
}

func (EventMiss) EventType() string { return "miss" }

// EventImmune reports a hit with no effect on the target. By names the
// ability responsible when one blocked it.
type EventImmune struct {
	Target MonRef `json:"target"`
	By     string `json:"by,omitempty"`
}

func (EventImmune) EventType() string { return "immune" }

type EventFailed struct {
	User   MonRef `json:"user"`
	Reason string `json:"reason,omitempty"`
}

func (EventFailed) EventType() string { return "failed" }

type EventProtected struct {
	Target MonRef `json:"target"`
}

func (EventProtected) EventType() string { return "protected" }

// EventSkipped reports a battler losing its action to the canceler
// chain: sleep, freeze, flinch, paralysis, confusion and the rest.
type EventSkipped struct {
	Pos    int    `json:"pos"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func (EventSkipped) EventType() string { return "skipped" }

type EventStatus struct {
	Target MonRef `json:"target"`
	Status string `json:"status"`
}

func (EventStatus) EventType() string { return "status" }

type EventCure struct {
	Target MonRef `json:"target"`
	Status string `json:"status"`
	Cause  string `json:"cause,omitempty"`
}

func (EventCure) EventType() string { return "cure" }

// EventVolatile reports a volatile condition starting or ending:
// confusion, substitute, taunt, encore, perish count and so on.
type EventVolatile struct {
	Target    MonRef `json:"target"`
	Condition string `json:"condition"`
	Ended     bool   `json:"ended,omitempty"`
	Count     int    `json:"count,omitempty"`
}

func (EventVolatile) EventType() string { return "volatile" }

// EventStatChange reports a stage moving. Blocked names what stopped
// it when nothing moved.
type EventStatChange struct {
	Target  MonRef `json:"target"`
	Stat    string `json:"stat"`
	Delta   int    `json:"delta"`
	Blocked string `json:"blocked,omitempty"`
}

func (EventStatChange) EventType() string { return "stat_change" }

type EventWeather struct {
	Weather string `json:"weather"`
	Phase   string `json:"phase"` // start, active, end
}

func (EventWeather) EventType() string { return "weather" }

type EventSideCondition struct {
	Side      int    `json:"side"`
	Condition string `json:"condition"`
	Ended     bool   `json:"ended,omitempty"`
	Layers    int    `json:"layers,omitempty"`
}

func (EventSideCondition) EventType() string { return "side_condition" }

type EventItem struct {
	Holder MonRef `json:"holder"`
	Item   string `json:"item"`
	Note   string `json:"note,omitempty"`
}

func (EventItem) EventType() string { return "item" }

type EventAbility struct {
	Mon     MonRef `json:"mon"`
	Ability string `json:"ability"`
	Note    string `json:"note,omitempty"`
}

func (EventAbility) EventType() string { return "ability" }

type EventFaint struct {
	Target MonRef `json:"target"`
}

func (EventFaint) EventType() string { return "faint" }

// EventNeedReplacement suspends the turn until the named positions get
// a switch-in.
type EventNeedReplacement struct {
	Positions []int `json:"positions"`
}

func (EventNeedReplacement) EventType() string { return "need_replacement" }

type EventTurnEnd struct {
	Turn int `json:"turn"`
}

func (EventTurnEnd) EventType() string { return "turn_end" }

type EventBattleEnd struct {
	Outcome string `json:"outcome"`
	Turns   int    `json:"turns"`
}

func (EventBattleEnd) EventType() string { return "battle_end" }

// EventInputRequest asks the listed positions to choose an action. It is
// emitted by the live Instance, never recorded in the replay log. With
// Replace set the expected answer is a party index, not a move.
type EventInputRequest struct {
	Positions []int `json:"positions"`
	Replace   bool  `json:"replace,omitempty"`
}

func (EventInputRequest) EventType() string { return "input_request" }
