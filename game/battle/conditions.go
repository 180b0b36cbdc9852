package battle

// BattlerTimers holds the slot-bound counters that outlive a single
// turn but not a switch. A fresh battler entering the slot gets a fresh
// struct (Baton Pass hands over the marked fields).
type BattlerTimers struct {
	DisabledMove int
	DisableTimer int

	EncoredMove int
	EncoredSlot int
	EncoreTimer int

	// ProtectUses counts consecutive successful Protect/Endure uses;
	// each one halves the next success threshold.
	ProtectUses int

	PerishTimer   int
	ChargeTimer   int
	TauntTimer    int
	RechargeTimer int

	// LockedMove and LockedSlot pin the forced move during rampages,
	// uproars, bide and the two-turn moves; Charging marks the stored
	// first half of a two-turn move.
	LockedMove int
	LockedSlot int
	Charging   bool

	// WrapMove remembers which trapping move is draining the battler.
	WrapMove   int
	WrapSource int

	// BideDamage accumulates damage taken while storing energy, with
	// the last attacker for the release target.
	BideDamage int
	BideSource int

	SubstituteHP int

	// FirstTurn starts at 2 on entry so "first turn out" checks stay
	// true through the entry turn (Fake Out timing).
	FirstTurn    int
	TruantCount  int
	LockOnTarget int

	// RolloutCount and FuryCounter track the escalating power moves.
	RolloutCount int
	FuryCounter  int

	// FlashFired marks a Flash Fire absorb boosting the holder's own
	// Fire moves for the rest of its stay.
	FlashFired bool
}

// NewBattlerTimers returns timers initialized for a battler that just
// entered the field.
func NewBattlerTimers() *BattlerTimers {
	return &BattlerTimers{FirstTurn: 2, LockOnTarget: -1, WrapSource: -1, BideSource: -1}
}

// batonPassed carries over the pieces Baton Pass preserves.
func (bt *BattlerTimers) batonPassed() *BattlerTimers {
	nt := NewBattlerTimers()
	nt.PerishTimer = bt.PerishTimer
	nt.SubstituteHP = bt.SubstituteHP
	nt.LockOnTarget = bt.LockOnTarget
	return nt
}

// TurnFlags holds the per-turn bookkeeping cleared at the start of
// every battler's action collection.
type TurnFlags struct {
	Protected bool
	Endured   bool
	// NotFirstStrike is set once another battler has already acted, so
	// the shields know they would be wasted.
	NotFirstStrike bool
	FocusBanded    bool

	// Damage taken this turn, kept separately by category for Counter
	// and Mirror Coat, with the slot that dealt it.
	PhysicalDmg    int
	PhysicalSource int
	SpecialDmg     int
	SpecialSource  int

	// ShellBellDmg accumulates damage dealt this action for the
	// holder's recovery.
	ShellBellDmg int
}

// reset clears everything that must not leak between turns while
// keeping the struct allocated.
func (tf *TurnFlags) reset() {
	*tf = TurnFlags{PhysicalSource: -1, SpecialSource: -1}
}

// SideState holds the conditions affecting one whole side of the
// field.
type SideState struct {
	ReflectTimer     int
	LightScreenTimer int
	MistTimer        int
	SafeguardTimer   int
	Spikes           int
}

// Delayed holds the effects aimed at a slot rather than its occupant:
// whoever stands there when the counter empties takes the hit or the
// heal.
type Delayed struct {
	FutureTimer    int
	FutureAttacker int
	FutureMove     int
	FutureDamage   int

	WishTimer int
	WishHeal  int
}
