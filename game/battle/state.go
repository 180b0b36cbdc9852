package battle

// Field positions. Even positions belong to side 0, odd to side 1. A
// singles battle uses positions 0 and 1; 2 and 3 stay empty.
const (
	MaxPositions = 4
	NumSides     = 2

	PartySize         = 6
	FacilityPartySize = 3
)

// SideOf returns the side owning a position.
func SideOf(pos int) int { return pos & 1 }

// Across returns the position directly opposite.
func Across(pos int) int { return pos ^ 1 }

// AllyOf returns the partner position on the same side.
func AllyOf(pos int) int { return pos ^ 2 }

type Weather int

const (
	WeatherNone Weather = iota
	WeatherRain
	WeatherSun
	WeatherSandstorm
	WeatherHail
)

func (w Weather) String() string {
	switch w {
	case WeatherRain:
		return "rain"
	case WeatherSun:
		return "sun"
	case WeatherSandstorm:
		return "sandstorm"
	case WeatherHail:
		return "hail"
	}
	return "none"
}

// Outcome is the battle result from side 0's point of view.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLoss
	OutcomeDraw
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	case OutcomeDraw:
		return "draw"
	}
	return "none"
}

// State is the full battle position: everything needed to continue the
// battle lives here, so a seed plus the action transcript reproduces it
// exactly. The engine mutates it; callers treat it as opaque between
// turns.
type State struct {
	Turn int
	RNG  *RNG

	Parties     [NumSides][]*Pokemon
	Active      [MaxPositions]*Pokemon
	ActiveIndex [MaxPositions]int

	Timers  [MaxPositions]*BattlerTimers
	Flags   [MaxPositions]*TurnFlags
	Pending [MaxPositions]*Delayed
	Sides   [NumSides]*SideState

	Weather      Weather
	WeatherTimer int

	// NeedReplacement marks slots whose turn is suspended waiting for
	// a switch-in after a faint.
	NeedReplacement [MaxPositions]bool

	// fainted dedupes the faint announcement for a position until a
	// replacement takes it over.
	fainted [MaxPositions]bool

	// KnockedOff marks party members whose held item is gone for the
	// rest of the battle, bit per party index.
	KnockedOff [NumSides]uint8

	Outcome Outcome

	// Events is the ordered log of everything that happened, complete
	// from battle start. Replaying the same seed and actions yields the
	// identical sequence.
	Events []BattleEvent

	// Transcript records every accepted submission in order. Replay
	// feeds it back into a fresh state with the same seed.
	Transcript []TranscriptEntry
}

// NewState sets up a singles battle between two parties with the given
// seed. The first able member of each party takes the field.
func NewState(seed uint32, sideA, sideB []*Pokemon) *State {
	st := &State{
		RNG:     NewRNG(seed),
		Parties: [NumSides][]*Pokemon{sideA, sideB},
	}
	for pos := 0; pos < MaxPositions; pos++ {
		st.ActiveIndex[pos] = -1
		st.Flags[pos] = &TurnFlags{PhysicalSource: -1, SpecialSource: -1}
		st.Pending[pos] = &Delayed{}
	}
	for side := 0; side < NumSides; side++ {
		st.Sides[side] = &SideState{}
	}
	for side := 0; side < NumSides; side++ {
		if idx := st.firstAble(side); idx >= 0 {
			st.placeAt(side, idx)
			st.Timers[side].FirstTurn = 1
		}
	}
	return st
}

// At returns the battler occupying a position, or nil.
func (st *State) At(pos int) *Pokemon {
	if pos < 0 || pos >= MaxPositions {
		return nil
	}
	return st.Active[pos]
}

// placeAt puts a party member into its side's singles position with
// fresh slot state.
func (st *State) placeAt(side, partyIdx int) {
	pos := side
	st.Active[pos] = st.Parties[side][partyIdx]
	st.ActiveIndex[pos] = partyIdx
	st.Timers[pos] = NewBattlerTimers()
	st.Flags[pos].reset()
	st.fainted[pos] = false
}

// firstAble returns the lowest party index still able to fight and not
// already on the field, or -1.
func (st *State) firstAble(side int) int {
	for i, p := range st.Parties[side] {
		if p.Alive() && !st.onField(side, i) {
			return i
		}
	}
	return -1
}

func (st *State) onField(side, partyIdx int) bool {
	for pos := side; pos < MaxPositions; pos += 2 {
		if st.ActiveIndex[pos] == partyIdx {
			return true
		}
	}
	return false
}

// AbleReserves counts party members that could still be sent out.
func (st *State) AbleReserves(side int) int {
	n := 0
	for i, p := range st.Parties[side] {
		if p.Alive() && !st.onField(side, i) {
			n++
		}
	}
	return n
}

// ableCount counts all living members, fielded or not.
func (st *State) ableCount(side int) int {
	n := 0
	for _, p := range st.Parties[side] {
		if p.Alive() {
			n++
		}
	}
	return n
}

// OccupiedPositions lists positions holding a living battler, in
// position order.
func (st *State) OccupiedPositions() []int {
	var out []int
	for pos := 0; pos < MaxPositions; pos++ {
		if st.Active[pos].Alive() {
			out = append(out, pos)
		}
	}
	return out
}

// FoePositions lists the opposing side's occupied positions.
func (st *State) FoePositions(pos int) []int {
	var out []int
	for p := 1 - SideOf(pos); p < MaxPositions; p += 2 {
		if st.Active[p].Alive() {
			out = append(out, p)
		}
	}
	return out
}

// Over reports whether the battle has been decided.
func (st *State) Over() bool { return st.Outcome != OutcomeNone }

// AwaitingInput reports whether any slot is suspended on a forced
// replacement.
func (st *State) AwaitingInput() bool {
	for _, need := range st.NeedReplacement {
		if need {
			return true
		}
	}
	return false
}

func (st *State) emit(ev BattleEvent) {
	st.Events = append(st.Events, ev)
}
