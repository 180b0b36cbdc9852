package resource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ---- Battle Data Structures ----

// Type is an elemental type index into the effectiveness chart.
type Type int

const (
	TypeNone Type = iota - 1
	TypeNormal
	TypeFighting
	TypeFlying
	TypePoison
	TypeGround
	TypeRock
	TypeBug
	TypeGhost
	TypeSteel
	TypeFire
	TypeWater
	TypeGrass
	TypeElectric
	TypePsychic
	TypeIce
	TypeDragon
	TypeDark
)

var typeNames = [...]string{
	"Normal", "Fighting", "Flying", "Poison", "Ground", "Rock", "Bug",
	"Ghost", "Steel", "Fire", "Water", "Grass", "Electric", "Psychic",
	"Ice", "Dragon", "Dark",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "???"
	}
	return typeNames[t]
}

// Effectiveness multipliers, applied as value/10.
const (
	EffectNone     = 0  // no effect
	EffectNotVery  = 5  // half damage
	EffectNeutral  = 10 // normal damage
	EffectSuper    = 20 // double damage
)

// Species holds the static data for one creature species.
// BaseStats order: HP, Atk, Def, Speed, SpAtk, SpDef.
type Species struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Type1       Type      `json:"type1"`
	Type2       Type      `json:"type2"`
	BaseStats   [6]int    `json:"baseStats"`
	Abilities   [2]string `json:"abilities"`
	GenderRatio int       `json:"genderRatio"` // percent female, -1 = genderless
	Weight      int       `json:"weight"`      // hectograms
}

// Move target selectors.
const (
	TargetSelected       = 0
	TargetDepends        = 1
	TargetUserOrSelected = 2
	TargetRandom         = 4
	TargetBoth           = 8
	TargetUser           = 16
	TargetFoesAndAlly    = 32
	TargetOpponentsField = 64
)

// Move flag bits.
const (
	FlagMakesContact    = 1 << 0
	FlagProtectAffected = 1 << 1
	FlagMagicCoat       = 1 << 2
	FlagSnatch          = 1 << 3
	FlagMirrorMove      = 1 << 4
	FlagKingsRock       = 1 << 5
	FlagSound           = 1 << 6
)

// Move holds the battle data for one move. Effect names the behavior
// variant the battle engine dispatches on; Chance is the secondary
// effect percentage for effects that carry one.
type Move struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Effect   string `json:"effect"`
	Power    int    `json:"power"`
	Type     Type   `json:"type"`
	Accuracy int    `json:"accuracy"` // 0 = never misses
	PP       int    `json:"pp"`
	Chance   int    `json:"chance"`
	Target   int    `json:"target"`
	Priority int    `json:"priority"`
	Flags    int    `json:"flags"`
}

// MakesContact reports whether the move has the contact flag.
func (m *Move) MakesContact() bool { return m.Flags&FlagMakesContact != 0 }

// IsSound reports whether the move is sound-based (blocked by Soundproof).
func (m *Move) IsSound() bool { return m.Flags&FlagSound != 0 }

// Item holds one held item. HoldEffect names the passive behavior, with
// HoldParam as its argument (boost percent, flinch chance, type index...).
type Item struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	HoldEffect string `json:"holdEffect"`
	HoldParam  int    `json:"holdParam"`
}

// TypeMatchup is one row of the effectiveness chart. Rows absent from
// the chart default to neutral.
type TypeMatchup struct {
	Attacker   Type `json:"attacker"`
	Defender   Type `json:"defender"`
	Multiplier int  `json:"multiplier"`
}

// RentalSet is one drafting option in the rental facility: a species
// with a fixed build. IVs scale with the player's streak, so they are
// not part of the set.
type RentalSet struct {
	ID        int    `json:"id"`
	SpeciesID int    `json:"speciesId"`
	Moves     [4]int `json:"moves"`
	ItemID    int    `json:"itemId"`
	Nature    string `json:"nature"`
	EVs       [6]int `json:"evs"`
}

// Trainer is a facility opponent: a name, a class line for flavor, and
// the pool of rental sets its team is drawn from.
type Trainer struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Class  string `json:"class"`
	SetIDs []int  `json:"setIds"`
}

// ---- ResourceLoader ----

// ResourceLoader reads and holds all battle data files.
type ResourceLoader struct {
	DataPath string
	Species  []*Species
	Moves    []*Move
	Items    []*Item
	Chart    []*TypeMatchup
	Rentals  []*RentalSet
	Trainers []*Trainer

	// chartIndex maps (attacker, defender) to a multiplier. Built after
	// load; pairs not present default to EffectNeutral.
	chartIndex map[[2]Type]int
}

// NewLoader creates a ResourceLoader for the given data directory.
func NewLoader(dataPath string) *ResourceLoader {
	return &ResourceLoader{DataPath: dataPath}
}

// Load reads all data files and pre-computes derived data.
func (rl *ResourceLoader) Load() error {
	loaders := []func() error{
		rl.loadSpecies,
		rl.loadMoves,
		rl.loadItems,
		rl.loadChart,
		rl.loadRentals,
		rl.loadTrainers,
	}
	for _, fn := range loaders {
		if err := fn(); err != nil {
			return err
		}
	}
	rl.BuildChartIndex()
	return rl.verifyRefs()
}

func (rl *ResourceLoader) path(file string) string {
	return filepath.Join(rl.DataPath, file)
}

func loadJSONArray[T any](path string) ([]*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", path, err)
	}
	var arr []*T
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("resource: parse %s: %w", path, err)
	}
	return arr, nil
}

func (rl *ResourceLoader) loadSpecies() error {
	var err error
	rl.Species, err = loadJSONArray[Species](rl.path("Species.json"))
	return err
}

func (rl *ResourceLoader) loadMoves() error {
	var err error
	rl.Moves, err = loadJSONArray[Move](rl.path("Moves.json"))
	return err
}

func (rl *ResourceLoader) loadItems() error {
	var err error
	rl.Items, err = loadJSONArray[Item](rl.path("Items.json"))
	return err
}

func (rl *ResourceLoader) loadChart() error {
	var err error
	rl.Chart, err = loadJSONArray[TypeMatchup](rl.path("TypeChart.json"))
	return err
}

func (rl *ResourceLoader) loadRentals() error {
	var err error
	rl.Rentals, err = loadJSONArray[RentalSet](rl.path("RentalSets.json"))
	return err
}

func (rl *ResourceLoader) loadTrainers() error {
	var err error
	rl.Trainers, err = loadJSONArray[Trainer](rl.path("Trainers.json"))
	return err
}

// BuildChartIndex (re)builds the effectiveness lookup from Chart.
// Exported so tests constructing a loader literal can index their chart.
func (rl *ResourceLoader) BuildChartIndex() {
	rl.chartIndex = make(map[[2]Type]int, len(rl.Chart))
	for _, row := range rl.Chart {
		if row == nil {
			continue
		}
		rl.chartIndex[[2]Type{row.Attacker, row.Defender}] = row.Multiplier
	}
}

// verifyRefs checks that rental sets and trainers reference data that
// exists. Dangling references are a data bug worth failing load for.
func (rl *ResourceLoader) verifyRefs() error {
	for _, set := range rl.Rentals {
		if set == nil {
			continue
		}
		if rl.SpeciesByID(set.SpeciesID) == nil {
			return fmt.Errorf("resource: rental set %d: unknown species %d", set.ID, set.SpeciesID)
		}
		for _, mv := range set.Moves {
			if mv != 0 && rl.MoveByID(mv) == nil {
				return fmt.Errorf("resource: rental set %d: unknown move %d", set.ID, mv)
			}
		}
		if set.ItemID != 0 && rl.ItemByID(set.ItemID) == nil {
			return fmt.Errorf("resource: rental set %d: unknown item %d", set.ID, set.ItemID)
		}
	}
	for _, tr := range rl.Trainers {
		if tr == nil {
			continue
		}
		for _, id := range tr.SetIDs {
			if rl.RentalByID(id) == nil {
				return fmt.Errorf("resource: trainer %d: unknown rental set %d", tr.ID, id)
			}
		}
	}
	return nil
}

// Effectiveness returns the chart multiplier for one attacking type
// against one defending type, applied as value/10. Unknown pairs and
// typeless attacks are neutral.
func (rl *ResourceLoader) Effectiveness(attacker, defender Type) int {
	if attacker == TypeNone || defender == TypeNone {
		return EffectNeutral
	}
	if rl.chartIndex == nil {
		rl.BuildChartIndex()
	}
	if mult, ok := rl.chartIndex[[2]Type{attacker, defender}]; ok {
		return mult
	}
	return EffectNeutral
}

// SpeciesByID returns the Species with the given ID, or nil.
func (rl *ResourceLoader) SpeciesByID(id int) *Species {
	for _, s := range rl.Species {
		if s != nil && s.ID == id {
			return s
		}
	}
	return nil
}

// MoveByID returns the Move with the given ID, or nil.
func (rl *ResourceLoader) MoveByID(id int) *Move {
	for _, m := range rl.Moves {
		if m != nil && m.ID == id {
			return m
		}
	}
	return nil
}

// ItemByID returns the Item with the given ID, or nil.
func (rl *ResourceLoader) ItemByID(id int) *Item {
	for _, it := range rl.Items {
		if it != nil && it.ID == id {
			return it
		}
	}
	return nil
}

// RentalByID returns the RentalSet with the given ID, or nil.
func (rl *ResourceLoader) RentalByID(id int) *RentalSet {
	for _, r := range rl.Rentals {
		if r != nil && r.ID == id {
			return r
		}
	}
	return nil
}

// TrainerByID returns the Trainer with the given ID, or nil.
func (rl *ResourceLoader) TrainerByID(id int) *Trainer {
	for _, t := range rl.Trainers {
		if t != nil && t.ID == id {
			return t
		}
	}
	return nil
}
