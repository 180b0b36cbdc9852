package battle

import (
	"github.com/nanakusa/frontier/resource"
)

// Stat indexes. The first six index Pokemon.Stats; accuracy and evasion
// exist only as stages.
const (
	StatHP = iota
	StatAtk
	StatDef
	StatSpeed
	StatSpAtk
	StatSpDef
	StatAccuracy
	StatEvasion
	NumStats
)

// Stages run 0..12 with 6 as neutral.
const (
	StageMin     = 0
	StageNeutral = 6
	StageMax     = 12
)

var statNames = [NumStats]string{
	"HP", "Attack", "Defense", "Speed", "Sp. Atk", "Sp. Def", "accuracy", "evasiveness",
}

// StatName returns the display name for a stat index.
func StatName(stat int) string {
	if stat < 0 || stat >= NumStats {
		return "???"
	}
	return statNames[stat]
}

type Gender int

const (
	GenderGenderless Gender = iota
	GenderMale
	GenderFemale
)

// ---- major status ----

// Status packs the major status condition into one word: the sleep
// turn counter lives in the low three bits and the toxic damage counter
// in bits 8-11, so "any status" checks stay a single mask test.
type Status uint32

const (
	StatusSleepMask   Status = 0x7
	StatusPoison      Status = 1 << 3
	StatusBurn        Status = 1 << 4
	StatusFreeze      Status = 1 << 5
	StatusParalysis   Status = 1 << 6
	StatusToxic       Status = 1 << 7
	statusToxicShift         = 8
	StatusToxicMask   Status = 0xF << statusToxicShift

	StatusPoisonAny Status = StatusPoison | StatusToxic
	StatusAny       Status = StatusSleepMask | StatusPoison | StatusBurn |
		StatusFreeze | StatusParalysis | StatusToxic
)

func (s Status) Has(mask Status) bool { return s&mask != 0 }

// SleepTurns returns the remaining sleep counter (0 = awake).
func (s Status) SleepTurns() int { return int(s & StatusSleepMask) }

func (s *Status) SetSleepTurns(n int) {
	*s = (*s &^ StatusSleepMask) | Status(n&0x7)
}

// DecSleep decrements the sleep counter and reports whether the
// battler woke up.
func (s *Status) DecSleep() bool {
	n := s.SleepTurns()
	if n == 0 {
		return true
	}
	s.SetSleepTurns(n - 1)
	return s.SleepTurns() == 0
}

// ToxicCounter returns the bad-poison turn counter (1..15).
func (s Status) ToxicCounter() int { return int(s&StatusToxicMask) >> statusToxicShift }

func (s *Status) SetToxicCounter(n int) {
	if n > 15 {
		n = 15
	}
	*s = (*s &^ StatusToxicMask) | Status(n)<<statusToxicShift
}

// ---- volatile status ----

// Volatile packs the turn-persistent volatile conditions. Counters
// share the word with flag bits: confusion in bits 0-2, uproar 4-6,
// bide 8-9, rampage 10-11, wrap 13-15 and the infatuation source mask
// in bits 16-19.
type Volatile uint32

const (
	VolConfusionMask   Volatile = 0x7
	VolFlinched        Volatile = 1 << 3
	VolUproarMask      Volatile = 0x7 << 4
	VolBideMask        Volatile = 0x3 << 8
	VolRampageMask     Volatile = 0x3 << 10
	VolMultipleTurns   Volatile = 1 << 12
	VolWrappedMask     Volatile = 0x7 << 13
	VolInfatuationMask Volatile = 0xF << 16
	VolFocusEnergy     Volatile = 1 << 20
	VolTransformed     Volatile = 1 << 21
	VolRecharge        Volatile = 1 << 22
	VolRage            Volatile = 1 << 23
	VolSubstitute      Volatile = 1 << 24
	VolDestinyBond     Volatile = 1 << 25
	VolEscapePrevented Volatile = 1 << 26
	VolNightmare       Volatile = 1 << 27
	VolCursed          Volatile = 1 << 28
	VolForesight       Volatile = 1 << 29
	VolDefenseCurl     Volatile = 1 << 30
	VolTorment         Volatile = 1 << 31
)

func (v Volatile) Has(mask Volatile) bool { return v&mask != 0 }

func (v Volatile) counter(mask Volatile, shift uint) int {
	return int(v&mask) >> shift
}

func (v *Volatile) setCounter(mask Volatile, shift uint, n int) {
	*v = (*v &^ mask) | (Volatile(n) << shift & mask)
}

func (v Volatile) Confusion() int     { return v.counter(VolConfusionMask, 0) }
func (v *Volatile) SetConfusion(n int) { v.setCounter(VolConfusionMask, 0, n) }

func (v Volatile) Uproar() int     { return v.counter(VolUproarMask, 4) }
func (v *Volatile) SetUproar(n int) { v.setCounter(VolUproarMask, 4, n) }

func (v Volatile) Bide() int     { return v.counter(VolBideMask, 8) }
func (v *Volatile) SetBide(n int) { v.setCounter(VolBideMask, 8, n) }

func (v Volatile) Rampage() int     { return v.counter(VolRampageMask, 10) }
func (v *Volatile) SetRampage(n int) { v.setCounter(VolRampageMask, 10, n) }

func (v Volatile) Wrapped() int     { return v.counter(VolWrappedMask, 13) }
func (v *Volatile) SetWrapped(n int) { v.setCounter(VolWrappedMask, 13, n) }

// InfatuatedWith reports infatuation toward the battler at pos.
func (v Volatile) InfatuatedWith(pos int) bool {
	return v&(Volatile(1)<<(16+uint(pos))) != 0
}

func (v *Volatile) SetInfatuatedWith(pos int) {
	*v |= Volatile(1) << (16 + uint(pos))
}

// ---- positional status ----

// Special packs the slot-bound conditions: the leech seed source slot
// in bits 0-1, the two-turn sure-hit counter in bits 3-4 and the yawn
// counter in bits 11-12.
type Special uint32

const (
	SpLeechSeedSource Special = 0x3
	SpLeechSeed       Special = 1 << 2
	SpAlwaysHitsMask  Special = 0x3 << 3
	SpPerishSong      Special = 1 << 5
	SpOnAir           Special = 1 << 6
	SpUnderground     Special = 1 << 7
	SpMinimized       Special = 1 << 8
	SpCharged         Special = 1 << 9
	SpRooted          Special = 1 << 10
	SpYawnMask        Special = 0x3 << 11
	SpImprisoned      Special = 1 << 13
	SpGrudge          Special = 1 << 14
	SpMudSport        Special = 1 << 15
	SpWaterSport      Special = 1 << 16
	SpUnderwater      Special = 1 << 17

	// SpSemiInvulnerable covers all vanishing stages of two-turn moves.
	SpSemiInvulnerable Special = SpOnAir | SpUnderground | SpUnderwater
)

func (s Special) Has(mask Special) bool { return s&mask != 0 }

func (s Special) LeechSeedSource() int { return int(s & SpLeechSeedSource) }

func (s *Special) SetLeechSeed(sourcePos int) {
	*s = (*s &^ SpLeechSeedSource) | SpLeechSeed | Special(sourcePos&0x3)
}

func (s Special) AlwaysHits() int { return int(s&SpAlwaysHitsMask) >> 3 }

func (s *Special) SetAlwaysHits(n int) {
	*s = (*s &^ SpAlwaysHitsMask) | (Special(n) << 3 & SpAlwaysHitsMask)
}

func (s Special) YawnTurns() int { return int(s&SpYawnMask) >> 11 }

func (s *Special) SetYawnTurns(n int) {
	*s = (*s &^ SpYawnMask) | (Special(n) << 11 & SpYawnMask)
}

// ---- the battler ----

// MoveSlot is one known move with its remaining PP.
type MoveSlot struct {
	ID int
	PP int
}

// Pokemon is one battler. Stats, status and PP persist across switches;
// Volatile, Special and Stages are cleared when it leaves the field
// (Baton Pass carries a subset).
type Pokemon struct {
	SpeciesID int
	Name      string
	Level     int
	Gender    Gender
	Types     [2]resource.Type
	Ability   string
	ItemID    int

	Moves [4]MoveSlot
	Stats [6]int // StatHP holds max HP
	HP    int

	Status   Status
	Volatile Volatile
	Special  Special
	Stages   [NumStats]int

	// LastMove is the most recent move this battler selected, for
	// Encore, Disable, Torment and Mirror Move.
	LastMove int
	// ChoiceMove locks move selection while holding a choice item.
	ChoiceMove int
}

// MaxHP returns the battler's full HP.
func (p *Pokemon) MaxHP() int { return p.Stats[StatHP] }

// Alive reports whether the battler can still fight.
func (p *Pokemon) Alive() bool { return p != nil && p.HP > 0 }

// HasType reports whether the battler has the given type.
func (p *Pokemon) HasType(t resource.Type) bool {
	return t != resource.TypeNone && (p.Types[0] == t || p.Types[1] == t)
}

// Grounded reports whether Ground moves and Spikes can reach the
// battler.
func (p *Pokemon) Grounded() bool {
	return !p.HasType(resource.TypeFlying) && p.Ability != AbilityLevitate
}

// TakeDamage subtracts dmg (min 0 HP) and returns the amount actually
// lost.
func (p *Pokemon) TakeDamage(dmg int) int {
	if dmg > p.HP {
		dmg = p.HP
	}
	p.HP -= dmg
	return dmg
}

// Heal restores up to amount HP and returns the amount actually gained.
func (p *Pokemon) Heal(amount int) int {
	missing := p.MaxHP() - p.HP
	if amount > missing {
		amount = missing
	}
	if amount < 0 {
		amount = 0
	}
	p.HP += amount
	return amount
}

// MoveSlotIndex returns the slot index holding moveID, or -1.
func (p *Pokemon) MoveSlotIndex(moveID int) int {
	for i, slot := range p.Moves {
		if slot.ID == moveID && slot.ID != 0 {
			return i
		}
	}
	return -1
}

// HasUsableMove reports whether any move slot still has PP and is not
// ruled out by the given per-slot legality check.
func (p *Pokemon) HasUsableMove(legal func(slot int) bool) bool {
	for i, ms := range p.Moves {
		if ms.ID == 0 || ms.PP <= 0 {
			continue
		}
		if legal == nil || legal(i) {
			return true
		}
	}
	return false
}

// ApplyStage moves one stage by delta, clamped to [StageMin, StageMax].
// Returns false when already at the limit.
func (p *Pokemon) ApplyStage(stat, delta int) bool {
	cur := p.Stages[stat]
	next := cur + delta
	if next > StageMax {
		next = StageMax
	}
	if next < StageMin {
		next = StageMin
	}
	if next == cur {
		return false
	}
	p.Stages[stat] = next
	return true
}

// ResetStages returns all stages to neutral.
func (p *Pokemon) ResetStages() {
	for i := range p.Stages {
		p.Stages[i] = StageNeutral
	}
}

// natures maps a nature name to its boosted and hindered stat index.
// Neutral natures are absent.
var natures = map[string][2]int{
	"Lonely":  {StatAtk, StatDef},
	"Brave":   {StatAtk, StatSpeed},
	"Adamant": {StatAtk, StatSpAtk},
	"Naughty": {StatAtk, StatSpDef},
	"Bold":    {StatDef, StatAtk},
	"Relaxed": {StatDef, StatSpeed},
	"Impish":  {StatDef, StatSpAtk},
	"Lax":     {StatDef, StatSpDef},
	"Timid":   {StatSpeed, StatAtk},
	"Hasty":   {StatSpeed, StatDef},
	"Jolly":   {StatSpeed, StatSpAtk},
	"Naive":   {StatSpeed, StatSpDef},
	"Modest":  {StatSpAtk, StatAtk},
	"Mild":    {StatSpAtk, StatDef},
	"Quiet":   {StatSpAtk, StatSpeed},
	"Rash":    {StatSpAtk, StatSpDef},
	"Calm":    {StatSpDef, StatAtk},
	"Gentle":  {StatSpDef, StatDef},
	"Sassy":   {StatSpDef, StatSpeed},
	"Careful": {StatSpDef, StatSpAtk},
}

// NewPokemon builds a battler from a species, a rental build, a level
// and a flat IV applied to every stat. Ability slot 0 is used unless
// the species' first ability is empty.
func NewPokemon(sp *resource.Species, set *resource.RentalSet, moves []*resource.Move, level, iv int, gender Gender) *Pokemon {
	p := &Pokemon{
		SpeciesID: sp.ID,
		Name:      sp.Name,
		Level:     level,
		Gender:    gender,
		Types:     [2]resource.Type{sp.Type1, sp.Type2},
		Ability:   sp.Abilities[0],
		ItemID:    set.ItemID,
	}
	if p.Ability == "" {
		p.Ability = sp.Abilities[1]
	}
	for i, mv := range moves {
		if i >= 4 || mv == nil {
			continue
		}
		p.Moves[i] = MoveSlot{ID: mv.ID, PP: mv.PP}
	}

	p.Stats[StatHP] = (2*sp.BaseStats[StatHP]+iv+set.EVs[StatHP]/4)*level/100 + level + 10
	for stat := StatAtk; stat <= StatSpDef; stat++ {
		v := (2*sp.BaseStats[stat]+iv+set.EVs[stat]/4)*level/100 + 5
		if n, ok := natures[set.Nature]; ok {
			if n[0] == stat {
				v = v * 110 / 100
			} else if n[1] == stat {
				v = v * 90 / 100
			}
		}
		p.Stats[stat] = v
	}
	p.HP = p.Stats[StatHP]
	p.ResetStages()
	return p
}
