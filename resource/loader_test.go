package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- ResourceLoader construction ----

func TestNewLoader(t *testing.T) {
	rl := NewLoader("/data")
	require.NotNil(t, rl)
	assert.Equal(t, "/data", rl.DataPath)
}

func TestLoader_Load_InvalidPath(t *testing.T) {
	rl := NewLoader("/nonexistent/path")
	err := rl.Load()
	assert.Error(t, err)
}

// ---- ByID lookups ----

func TestLoader_SpeciesByID(t *testing.T) {
	rl := NewLoader("")
	rl.Species = []*Species{nil, {ID: 25, Name: "Pikachu"}, {ID: 68, Name: "Machamp"}}

	s := rl.SpeciesByID(68)
	require.NotNil(t, s)
	assert.Equal(t, "Machamp", s.Name)
	assert.Nil(t, rl.SpeciesByID(999))
}

func TestLoader_MoveByID(t *testing.T) {
	rl := NewLoader("")
	rl.Moves = []*Move{nil, {ID: 1, Name: "Pound"}, {ID: 85, Name: "Thunderbolt"}}

	m := rl.MoveByID(85)
	require.NotNil(t, m)
	assert.Equal(t, "Thunderbolt", m.Name)
	assert.Nil(t, rl.MoveByID(999))
}

func TestLoader_ItemByID(t *testing.T) {
	rl := NewLoader("")
	rl.Items = []*Item{nil, {ID: 1, Name: "Leftovers", HoldEffect: "leftovers"}}

	it := rl.ItemByID(1)
	require.NotNil(t, it)
	assert.Equal(t, "leftovers", it.HoldEffect)
	assert.Nil(t, rl.ItemByID(2))
}

func TestLoader_RentalAndTrainerByID(t *testing.T) {
	rl := NewLoader("")
	rl.Rentals = []*RentalSet{nil, {ID: 7, SpeciesID: 25}}
	rl.Trainers = []*Trainer{nil, {ID: 3, Name: "Tycoon"}}

	r := rl.RentalByID(7)
	require.NotNil(t, r)
	assert.Equal(t, 25, r.SpeciesID)
	assert.Nil(t, rl.RentalByID(8))

	tr := rl.TrainerByID(3)
	require.NotNil(t, tr)
	assert.Equal(t, "Tycoon", tr.Name)
	assert.Nil(t, rl.TrainerByID(4))
}

// ---- Effectiveness ----

func TestEffectiveness_ChartAndDefaults(t *testing.T) {
	rl := NewLoader("")
	rl.Chart = []*TypeMatchup{
		nil,
		{Attacker: TypeWater, Defender: TypeFire, Multiplier: EffectSuper},
		{Attacker: TypeFire, Defender: TypeWater, Multiplier: EffectNotVery},
		{Attacker: TypeNormal, Defender: TypeGhost, Multiplier: EffectNone},
	}
	rl.BuildChartIndex()

	assert.Equal(t, EffectSuper, rl.Effectiveness(TypeWater, TypeFire))
	assert.Equal(t, EffectNotVery, rl.Effectiveness(TypeFire, TypeWater))
	assert.Equal(t, EffectNone, rl.Effectiveness(TypeNormal, TypeGhost))

	// Pairs missing from the chart are neutral.
	assert.Equal(t, EffectNeutral, rl.Effectiveness(TypeWater, TypeGrass))
	// An empty second typing never changes the outcome.
	assert.Equal(t, EffectNeutral, rl.Effectiveness(TypeWater, TypeNone))
	assert.Equal(t, EffectNeutral, rl.Effectiveness(TypeNone, TypeFire))
}

func TestEffectiveness_IndexBuiltLazily(t *testing.T) {
	rl := NewLoader("")
	rl.Chart = []*TypeMatchup{{Attacker: TypeElectric, Defender: TypeWater, Multiplier: EffectSuper}}

	// No explicit BuildChartIndex call.
	assert.Equal(t, EffectSuper, rl.Effectiveness(TypeElectric, TypeWater))
}

// ---- Type and Move helpers ----

func TestTypeString(t *testing.T) {
	assert.Equal(t, "Normal", TypeNormal.String())
	assert.Equal(t, "Dark", TypeDark.String())
	assert.Equal(t, "???", TypeNone.String())
	assert.Equal(t, "???", Type(99).String())
}

func TestMoveFlagHelpers(t *testing.T) {
	contact := &Move{Flags: FlagMakesContact | FlagProtectAffected}
	assert.True(t, contact.MakesContact())
	assert.False(t, contact.IsSound())

	sound := &Move{Flags: FlagSound}
	assert.False(t, sound.MakesContact())
	assert.True(t, sound.IsSound())
}
