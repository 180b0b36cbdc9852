package battle

import (
	"testing"

	"github.com/nanakusa/frontier/resource"
)

// Shared battle data for the package tests: a dozen species, the moves
// the scenarios lean on and the full type chart. Builds mirror the
// rental facility, level 50 with full IVs.

func testChart() []*resource.TypeMatchup {
	super := map[resource.Type][]resource.Type{
		resource.TypeFighting: {resource.TypeNormal, resource.TypeRock, resource.TypeSteel, resource.TypeIce, resource.TypeDark},
		resource.TypeFlying:   {resource.TypeFighting, resource.TypeBug, resource.TypeGrass},
		resource.TypePoison:   {resource.TypeGrass},
		resource.TypeGround:   {resource.TypePoison, resource.TypeRock, resource.TypeSteel, resource.TypeFire, resource.TypeElectric},
		resource.TypeRock:     {resource.TypeFlying, resource.TypeBug, resource.TypeFire, resource.TypeIce},
		resource.TypeBug:      {resource.TypeGrass, resource.TypePsychic, resource.TypeDark},
		resource.TypeGhost:    {resource.TypeGhost, resource.TypePsychic},
		resource.TypeSteel:    {resource.TypeRock, resource.TypeIce},
		resource.TypeFire:     {resource.TypeBug, resource.TypeSteel, resource.TypeGrass, resource.TypeIce},
		resource.TypeWater:    {resource.TypeGround, resource.TypeRock, resource.TypeFire},
		resource.TypeGrass:    {resource.TypeGround, resource.TypeRock, resource.TypeWater},
		resource.TypeElectric: {resource.TypeFlying, resource.TypeWater},
		resource.TypePsychic:  {resource.TypeFighting, resource.TypePoison},
		resource.TypeIce:      {resource.TypeFlying, resource.TypeGround, resource.TypeGrass, resource.TypeDragon},
		resource.TypeDragon:   {resource.TypeDragon},
		resource.TypeDark:     {resource.TypeGhost, resource.TypePsychic},
	}
	notVery := map[resource.Type][]resource.Type{
		resource.TypeNormal:   {resource.TypeRock, resource.TypeSteel},
		resource.TypeFighting: {resource.TypeFlying, resource.TypePoison, resource.TypeBug, resource.TypePsychic},
		resource.TypeFlying:   {resource.TypeRock, resource.TypeSteel, resource.TypeElectric},
		resource.TypePoison:   {resource.TypePoison, resource.TypeGround, resource.TypeRock, resource.TypeGhost},
		resource.TypeGround:   {resource.TypeBug, resource.TypeGrass},
		resource.TypeRock:     {resource.TypeFighting, resource.TypeGround, resource.TypeSteel},
		resource.TypeBug:      {resource.TypeFighting, resource.TypeFlying, resource.TypePoison, resource.TypeGhost, resource.TypeSteel, resource.TypeFire},
		resource.TypeGhost:    {resource.TypeDark},
		resource.TypeSteel:    {resource.TypeSteel, resource.TypeFire, resource.TypeWater, resource.TypeElectric},
		resource.TypeFire:     {resource.TypeRock, resource.TypeFire, resource.TypeWater, resource.TypeDragon},
		resource.TypeWater:    {resource.TypeWater, resource.TypeGrass, resource.TypeDragon},
		resource.TypeGrass:    {resource.TypeFlying, resource.TypePoison, resource.TypeBug, resource.TypeSteel, resource.TypeFire, resource.TypeGrass, resource.TypeDragon},
		resource.TypeElectric: {resource.TypeGrass, resource.TypeElectric, resource.TypeDragon},
		resource.TypePsychic:  {resource.TypeSteel, resource.TypePsychic},
		resource.TypeIce:      {resource.TypeSteel, resource.TypeFire, resource.TypeWater, resource.TypeIce},
		resource.TypeDragon:   {resource.TypeSteel},
		resource.TypeDark:     {resource.TypeFighting, resource.TypeDark, resource.TypeSteel},
	}
	none := map[resource.Type][]resource.Type{
		resource.TypeNormal:   {resource.TypeGhost},
		resource.TypeFighting: {resource.TypeGhost},
		resource.TypeGround:   {resource.TypeFlying},
		resource.TypeGhost:    {resource.TypeNormal},
		resource.TypeElectric: {resource.TypeGround},
		resource.TypePsychic:  {resource.TypeDark},
		resource.TypePoison:   {resource.TypeSteel},
	}

	var rows []*resource.TypeMatchup
	add := func(m map[resource.Type][]resource.Type, mult int) {
		for atk, defs := range m {
			for _, def := range defs {
				rows = append(rows, &resource.TypeMatchup{Attacker: atk, Defender: def, Multiplier: mult})
			}
		}
	}
	add(super, resource.EffectSuper)
	add(notVery, resource.EffectNotVery)
	add(none, resource.EffectNone)
	return rows
}

func testLoader() *resource.ResourceLoader {
	rl := &resource.ResourceLoader{
		Species: []*resource.Species{
			{ID: 25, Name: "Pikachu", Type1: resource.TypeElectric, Type2: resource.TypeNone,
				BaseStats: [6]int{35, 55, 40, 90, 50, 50}, GenderRatio: 50, Weight: 60},
			{ID: 65, Name: "Alakazam", Type1: resource.TypePsychic, Type2: resource.TypeNone,
				BaseStats: [6]int{55, 50, 45, 120, 135, 95}, Abilities: [2]string{AbilityInnerFocus}, GenderRatio: 25, Weight: 480},
			{ID: 68, Name: "Machamp", Type1: resource.TypeFighting, Type2: resource.TypeNone,
				BaseStats: [6]int{90, 130, 80, 55, 65, 85}, Abilities: [2]string{AbilityGuts}, GenderRatio: 25, Weight: 1300},
			{ID: 73, Name: "Tentacruel", Type1: resource.TypeWater, Type2: resource.TypePoison,
				BaseStats: [6]int{80, 70, 65, 100, 80, 120}, Abilities: [2]string{AbilityClearBody, AbilityLiquidOoze}, GenderRatio: 50, Weight: 550},
			{ID: 94, Name: "Gengar", Type1: resource.TypeGhost, Type2: resource.TypePoison,
				BaseStats: [6]int{60, 65, 60, 110, 130, 75}, Abilities: [2]string{AbilityLevitate}, GenderRatio: 50, Weight: 405},
			{ID: 121, Name: "Starmie", Type1: resource.TypeWater, Type2: resource.TypePsychic,
				BaseStats: [6]int{60, 75, 85, 115, 100, 85}, Abilities: [2]string{AbilityNaturalCure}, GenderRatio: -1, Weight: 800},
			{ID: 130, Name: "Gyarados", Type1: resource.TypeWater, Type2: resource.TypeFlying,
				BaseStats: [6]int{95, 125, 79, 81, 60, 100}, Abilities: [2]string{AbilityIntimidate}, GenderRatio: 50, Weight: 2350},
			{ID: 143, Name: "Snorlax", Type1: resource.TypeNormal, Type2: resource.TypeNone,
				BaseStats: [6]int{160, 110, 65, 30, 65, 110}, Abilities: [2]string{AbilityImmunity}, GenderRatio: 13, Weight: 4600},
			{ID: 184, Name: "Azumarill", Type1: resource.TypeWater, Type2: resource.TypeNone,
				BaseStats: [6]int{100, 50, 80, 50, 60, 80}, Abilities: [2]string{AbilityHugePower}, GenderRatio: 50, Weight: 285},
			{ID: 227, Name: "Skarmory", Type1: resource.TypeSteel, Type2: resource.TypeFlying,
				BaseStats: [6]int{65, 80, 140, 70, 40, 70}, Abilities: [2]string{AbilitySturdy, AbilityKeenEye}, GenderRatio: 50, Weight: 505},
			{ID: 260, Name: "Swampert", Type1: resource.TypeWater, Type2: resource.TypeGround,
				BaseStats: [6]int{100, 110, 90, 60, 85, 90}, GenderRatio: 13, Weight: 819},
			{ID: 306, Name: "Aggron", Type1: resource.TypeSteel, Type2: resource.TypeRock,
				BaseStats: [6]int{70, 110, 180, 50, 60, 60}, Abilities: [2]string{AbilitySturdy}, GenderRatio: 50, Weight: 3600},
		},
		Moves: []*resource.Move{
			{ID: 1, Name: "Pound", Effect: EffectHit, Power: 40, Type: resource.TypeNormal, Accuracy: 100, PP: 35,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 7, Name: "Fire Punch", Effect: EffectBurnHit, Power: 75, Type: resource.TypeFire, Accuracy: 100, PP: 15, Chance: 10,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 14, Name: "Swords Dance", Effect: EffectAtkUp2, Type: resource.TypeNormal, PP: 30, Target: resource.TargetUser,
				Flags: resource.FlagSnatch},
			{ID: 19, Name: "Fly", Effect: EffectFly, Power: 70, Type: resource.TypeFlying, Accuracy: 95, PP: 15,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 24, Name: "Double Kick", Effect: EffectTwoHits, Power: 30, Type: resource.TypeFighting, Accuracy: 100, PP: 30,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 32, Name: "Horn Drill", Effect: EffectOHKO, Type: resource.TypeNormal, Accuracy: 30, PP: 5,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagMirrorMove},
			{ID: 38, Name: "Double-Edge", Effect: EffectRecoilThird, Power: 120, Type: resource.TypeNormal, Accuracy: 100, PP: 15,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 45, Name: "Growl", Effect: EffectAtkDown, Type: resource.TypeNormal, Accuracy: 100, PP: 40,
				Flags: resource.FlagProtectAffected | resource.FlagMagicCoat | resource.FlagMirrorMove | resource.FlagSound},
			{ID: 49, Name: "SonicBoom", Effect: EffectSonicBoom, Type: resource.TypeNormal, Accuracy: 90, PP: 20,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 53, Name: "Flamethrower", Effect: EffectBurnHit, Power: 95, Type: resource.TypeFire, Accuracy: 100, PP: 15, Chance: 10,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 57, Name: "Surf", Effect: EffectHit, Power: 95, Type: resource.TypeWater, Accuracy: 100, PP: 15, Target: resource.TargetBoth,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 58, Name: "Ice Beam", Effect: EffectFreezeHit, Power: 95, Type: resource.TypeIce, Accuracy: 100, PP: 10, Chance: 10,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 63, Name: "Hyper Beam", Effect: EffectRechargeHit, Power: 150, Type: resource.TypeNormal, Accuracy: 90, PP: 5,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 68, Name: "Counter", Effect: EffectCounter, Type: resource.TypeFighting, Accuracy: 100, PP: 20, Priority: -5,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected},
			{ID: 69, Name: "Seismic Toss", Effect: EffectLevelDamage, Type: resource.TypeFighting, Accuracy: 100, PP: 20,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagMirrorMove},
			{ID: 73, Name: "Leech Seed", Effect: EffectLeechSeed, Type: resource.TypeGrass, Accuracy: 90, PP: 10,
				Flags: resource.FlagProtectAffected | resource.FlagMagicCoat | resource.FlagMirrorMove},
			{ID: 82, Name: "Dragon Rage", Effect: EffectDragonRage, Type: resource.TypeDragon, Accuracy: 100, PP: 10,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 85, Name: "Thunderbolt", Effect: EffectParalyzeHit, Power: 95, Type: resource.TypeElectric, Accuracy: 100, PP: 15, Chance: 10,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 86, Name: "Thunder Wave", Effect: EffectParalyze, Type: resource.TypeElectric, Accuracy: 100, PP: 20,
				Flags: resource.FlagProtectAffected | resource.FlagMagicCoat | resource.FlagMirrorMove},
			{ID: 89, Name: "Earthquake", Effect: EffectHit, Power: 100, Type: resource.TypeGround, Accuracy: 100, PP: 10,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 91, Name: "Dig", Effect: EffectDig, Power: 60, Type: resource.TypeGround, Accuracy: 100, PP: 10,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 92, Name: "Toxic", Effect: EffectToxic, Type: resource.TypePoison, Accuracy: 85, PP: 10,
				Flags: resource.FlagProtectAffected | resource.FlagMagicCoat | resource.FlagMirrorMove},
			{ID: 94, Name: "Psychic", Effect: EffectSpDefDownHit, Power: 90, Type: resource.TypePsychic, Accuracy: 100, PP: 10, Chance: 10,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 98, Name: "Quick Attack", Effect: EffectHit, Power: 40, Type: resource.TypeNormal, Accuracy: 100, PP: 30, Priority: 1,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 101, Name: "Night Shade", Effect: EffectLevelDamage, Type: resource.TypeGhost, Accuracy: 100, PP: 15,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove},
			{ID: 104, Name: "Double Team", Effect: EffectEvasionUp, Type: resource.TypeNormal, PP: 15, Target: resource.TargetUser,
				Flags: resource.FlagSnatch},
			{ID: 105, Name: "Recover", Effect: EffectRestoreHP, Type: resource.TypeNormal, PP: 20, Target: resource.TargetUser,
				Flags: resource.FlagSnatch},
			{ID: 113, Name: "Light Screen", Effect: EffectLightScreen, Type: resource.TypePsychic, PP: 30, Target: resource.TargetUser,
				Flags: resource.FlagSnatch},
			{ID: 115, Name: "Reflect", Effect: EffectReflect, Type: resource.TypePsychic, PP: 20, Target: resource.TargetUser,
				Flags: resource.FlagSnatch},
			{ID: 116, Name: "Focus Energy", Effect: EffectFocusEnergy, Type: resource.TypeNormal, PP: 30, Target: resource.TargetUser,
				Flags: resource.FlagSnatch},
			{ID: 135, Name: "Softboiled", Effect: EffectRestoreHP, Type: resource.TypeNormal, PP: 10, Target: resource.TargetUser,
				Flags: resource.FlagSnatch},
			{ID: 137, Name: "Glare", Effect: EffectParalyze, Type: resource.TypeNormal, Accuracy: 75, PP: 30,
				Flags: resource.FlagProtectAffected | resource.FlagMagicCoat | resource.FlagMirrorMove},
			{ID: 156, Name: "Rest", Effect: EffectRest, Type: resource.TypePsychic, PP: 10, Target: resource.TargetUser,
				Flags: resource.FlagSnatch},
			{ID: 157, Name: "Rock Slide", Effect: EffectFlinchHit, Power: 75, Type: resource.TypeRock, Accuracy: 90, PP: 10, Chance: 30,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 164, Name: "Substitute", Effect: EffectSubstitute, Type: resource.TypeNormal, PP: 10, Target: resource.TargetUser,
				Flags: resource.FlagSnatch},
			{ID: 165, Name: "Struggle", Effect: EffectRecoilQuarter, Power: 50, Type: resource.TypeNormal, Accuracy: 100, PP: 1,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagKingsRock},
			{ID: 168, Name: "Thief", Effect: EffectThief, Power: 40, Type: resource.TypeDark, Accuracy: 100, PP: 10,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 182, Name: "Protect", Effect: EffectProtect, Type: resource.TypeNormal, PP: 10, Target: resource.TargetUser, Priority: 3},
			{ID: 188, Name: "Sludge Bomb", Effect: EffectPoisonHit, Power: 90, Type: resource.TypePoison, Accuracy: 100, PP: 10, Chance: 30,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 202, Name: "Giga Drain", Effect: EffectDrainHit, Power: 60, Type: resource.TypeGrass, Accuracy: 100, PP: 5,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 219, Name: "Safeguard", Effect: EffectSafeguard, Type: resource.TypeNormal, PP: 25, Target: resource.TargetUser,
				Flags: resource.FlagSnatch},
			{ID: 226, Name: "Baton Pass", Effect: EffectBatonPass, Type: resource.TypeNormal, PP: 40, Target: resource.TargetUser},
			{ID: 240, Name: "Rain Dance", Effect: EffectRainDance, Type: resource.TypeWater, PP: 5, Target: resource.TargetOpponentsField},
			{ID: 241, Name: "Sunny Day", Effect: EffectSunnyDay, Type: resource.TypeFire, PP: 5, Target: resource.TargetOpponentsField},
			{ID: 247, Name: "Shadow Ball", Effect: EffectSpDefDownHit, Power: 80, Type: resource.TypeGhost, Accuracy: 100, PP: 15, Chance: 20,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 252, Name: "Fake Out", Effect: EffectFakeOut, Power: 40, Type: resource.TypeNormal, Accuracy: 100, PP: 10, Chance: 100, Priority: 1,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 269, Name: "Taunt", Effect: EffectTaunt, Type: resource.TypeDark, Accuracy: 100, PP: 20,
				Flags: resource.FlagProtectAffected | resource.FlagMirrorMove},
			{ID: 281, Name: "Yawn", Effect: EffectYawn, Type: resource.TypeNormal, Accuracy: 100, PP: 10,
				Flags: resource.FlagProtectAffected | resource.FlagMagicCoat | resource.FlagMirrorMove},
			{ID: 282, Name: "Knock Off", Effect: EffectKnockOff, Power: 20, Type: resource.TypeDark, Accuracy: 100, PP: 20,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
			{ID: 291, Name: "Dive", Effect: EffectDive, Power: 60, Type: resource.TypeWater, Accuracy: 100, PP: 10,
				Flags: resource.FlagMakesContact | resource.FlagProtectAffected | resource.FlagMirrorMove | resource.FlagKingsRock},
		},
		Items: []*resource.Item{
			{ID: 1, Name: "Leftovers", HoldEffect: HoldLeftovers},
			{ID: 2, Name: "Quick Claw", HoldEffect: HoldQuickClaw, HoldParam: 20},
			{ID: 3, Name: "Choice Band", HoldEffect: HoldChoiceBand},
			{ID: 4, Name: "Focus Band", HoldEffect: HoldFocusBand, HoldParam: 10},
			{ID: 5, Name: "King's Rock", HoldEffect: HoldKingsRock, HoldParam: 10},
			{ID: 6, Name: "Scope Lens", HoldEffect: HoldScopeLens},
			{ID: 7, Name: "Shell Bell", HoldEffect: HoldShellBell},
			{ID: 8, Name: "Sitrus Berry", HoldEffect: HoldRestoreHP, HoldParam: 30},
			{ID: 9, Name: "Lum Berry", HoldEffect: HoldCureStatus},
			{ID: 10, Name: "Cheri Berry", HoldEffect: HoldCureParalysis},
			{ID: 11, Name: "Magnet", HoldEffect: HoldTypeBoost, HoldParam: int(resource.TypeElectric)},
		},
		Chart: testChart(),
	}
	rl.BuildChartIndex()
	return rl
}

// testMon builds a level 50 battler with full IVs, no EVs and a
// neutral nature.
func testMon(rl *resource.ResourceLoader, speciesID int, moveIDs ...int) *Pokemon {
	sp := rl.SpeciesByID(speciesID)
	moves := make([]*resource.Move, 0, len(moveIDs))
	for _, id := range moveIDs {
		moves = append(moves, rl.MoveByID(id))
	}
	return NewPokemon(sp, &resource.RentalSet{Nature: "Hardy"}, moves, 50, 31, GenderMale)
}

// eventTypes flattens an event slice to its wire names.
func eventTypes(events []BattleEvent) []string {
	out := make([]string, len(events))
	for i, evt := range events {
		out[i] = evt.EventType()
	}
	return out
}

func hasEvent(events []BattleEvent, wire string) bool {
	for _, evt := range events {
		if evt.EventType() == wire {
			return true
		}
	}
	return false
}

func moveAction(pos, slot int) Action {
	return Action{Type: ActionMove, Pos: pos, MoveSlot: slot, Target: Across(pos)}
}

func TestStartBattle_LeadsAndSeed(t *testing.T) {
	rl := testLoader()
	e := NewEngine(rl, Config{})

	st := e.StartBattle(77, []*Pokemon{testMon(rl, 143, 1)}, []*Pokemon{testMon(rl, 25, 1)})

	if st.At(0) == nil || st.At(0).Name != "Snorlax" {
		t.Fatalf("side 0 lead = %+v, want Snorlax", st.At(0))
	}
	if st.At(1) == nil || st.At(1).Name != "Pikachu" {
		t.Fatalf("side 1 lead = %+v, want Pikachu", st.At(1))
	}
	if len(st.Events) != 1 {
		t.Fatalf("events after start = %d, want 1", len(st.Events))
	}
	start, ok := st.Events[0].(EventBattleStart)
	if !ok {
		t.Fatalf("first event = %T, want EventBattleStart", st.Events[0])
	}
	if start.Seed != 77 {
		t.Errorf("seed = %d, want 77", start.Seed)
	}
	if start.Leads[0].Name != "Snorlax" || start.Leads[1].Name != "Pikachu" {
		t.Errorf("leads = %v", start.Leads)
	}
}

func TestProcessTurn_BasicExchange(t *testing.T) {
	rl := testLoader()
	e := NewEngine(rl, Config{})

	// Neither Pound can finish the other lead even with a crit and a
	// full roll, so the turn always ends with both still standing.
	st := e.StartBattle(42, []*Pokemon{testMon(rl, 143, 1)}, []*Pokemon{testMon(rl, 260, 1)})
	hpA, hpB := st.At(0).HP, st.At(1).HP

	res, err := e.ProcessTurn(st, []Action{moveAction(0, 0), moveAction(1, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if st.Turn != 1 {
		t.Errorf("turn = %d, want 1", st.Turn)
	}
	if st.At(0).HP >= hpA || st.At(1).HP >= hpB {
		t.Errorf("both sides should have taken damage: %d/%d and %d/%d", st.At(0).HP, hpA, st.At(1).HP, hpB)
	}
	if st.At(0).Moves[0].PP != 34 || st.At(1).Moves[0].PP != 34 {
		t.Errorf("PP = %d and %d, want 34", st.At(0).Moves[0].PP, st.At(1).Moves[0].PP)
	}
	types := eventTypes(res.Events)
	if types[0] != "turn_start" {
		t.Errorf("first event = %s, want turn_start", types[0])
	}
	if types[len(types)-1] != "turn_end" {
		t.Errorf("last event = %s, want turn_end", types[len(types)-1])
	}
	if !hasEvent(res.Events, "move_used") || !hasEvent(res.Events, "damage") {
		t.Errorf("missing move_used/damage in %v", types)
	}
}

func TestProcessTurn_Determinism(t *testing.T) {
	rl := testLoader()

	run := func() (*State, []string) {
		e := NewEngine(rl, Config{})
		st := e.StartBattle(9001,
			[]*Pokemon{testMon(rl, 68, 1, 157, 24), testMon(rl, 121, 57, 85)},
			[]*Pokemon{testMon(rl, 94, 247, 188), testMon(rl, 227, 82, 91)})
		script := [][2]int{{0, 0}, {1, 1}, {0, 1}, {1, 0}, {0, 0}, {1, 1}}
		for _, slots := range script {
			if st.Over() || st.AwaitingInput() {
				break
			}
			if _, err := e.ProcessTurn(st, []Action{moveAction(0, slots[0]), moveAction(1, slots[1])}); err != nil {
				t.Fatal(err)
			}
		}
		return st, eventTypes(st.Events)
	}

	st1, log1 := run()
	st2, log2 := run()

	if len(log1) != len(log2) {
		t.Fatalf("event counts differ: %d vs %d", len(log1), len(log2))
	}
	for i := range log1 {
		if log1[i] != log2[i] {
			t.Fatalf("event %d differs: %s vs %s", i, log1[i], log2[i])
		}
	}
	for pos := 0; pos < MaxPositions; pos++ {
		a, b := st1.At(pos), st2.At(pos)
		if (a == nil) != (b == nil) {
			t.Fatalf("position %d occupancy differs", pos)
		}
		if a != nil && a.HP != b.HP {
			t.Fatalf("position %d HP differs: %d vs %d", pos, a.HP, b.HP)
		}
	}
}

func TestProcessTurn_ValidatesActions(t *testing.T) {
	rl := testLoader()
	e := NewEngine(rl, Config{})

	cases := []struct {
		name    string
		actions []Action
	}{
		{"missing action", []Action{moveAction(0, 0)}},
		{"bad position", []Action{moveAction(0, 0), moveAction(1, 0), {Type: ActionMove, Pos: 9}}},
		{"duplicate position", []Action{moveAction(0, 0), moveAction(0, 0)}},
		{"bad slot", []Action{{Type: ActionMove, Pos: 0, MoveSlot: 3, Target: 1}, moveAction(1, 0)}},
		{"switch to fielded", []Action{{Type: ActionSwitch, Pos: 0, SwitchTo: 0}, moveAction(1, 0)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := e.StartBattle(5, []*Pokemon{testMon(rl, 143, 1)}, []*Pokemon{testMon(rl, 25, 1)})
			if _, err := e.ProcessTurn(st, tc.actions); err == nil {
				t.Error("want validation error, got nil")
			}
			if st.Turn != 0 {
				t.Errorf("turn advanced to %d on invalid input", st.Turn)
			}
		})
	}
}

func TestProcessTurn_Forfeit(t *testing.T) {
	rl := testLoader()
	e := NewEngine(rl, Config{})
	st := e.StartBattle(3, []*Pokemon{testMon(rl, 143, 1)}, []*Pokemon{testMon(rl, 25, 1)})

	res, err := e.ProcessTurn(st, []Action{{Type: ActionForfeit, Pos: 0}, moveAction(1, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeLoss {
		t.Errorf("outcome = %v, want loss", res.Outcome)
	}
	if !st.Over() {
		t.Error("battle should be over")
	}
	if !hasEvent(res.Events, "battle_end") {
		t.Errorf("missing battle_end in %v", eventTypes(res.Events))
	}

	if _, err := e.ProcessTurn(st, []Action{moveAction(0, 0), moveAction(1, 0)}); err != ErrBattleOver {
		t.Errorf("err = %v, want ErrBattleOver", err)
	}
}

func TestReplacement_SuspendsTurn(t *testing.T) {
	rl := testLoader()
	e := NewEngine(rl, Config{})

	// A Seismic Toss user against a 1 HP target with a reserve.
	weak := testMon(rl, 25, 1)
	weak.HP = 1
	st := e.StartBattle(11,
		[]*Pokemon{testMon(rl, 68, 69)},
		[]*Pokemon{weak, testMon(rl, 94, 247)})

	res, err := e.ProcessTurn(st, []Action{moveAction(0, 0), moveAction(1, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeNone {
		t.Fatalf("outcome = %v, want none (reserve remains)", res.Outcome)
	}
	if len(res.AwaitingReplacement) != 1 || res.AwaitingReplacement[0] != 1 {
		t.Fatalf("awaiting = %v, want [1]", res.AwaitingReplacement)
	}
	if !st.AwaitingInput() {
		t.Fatal("state should be awaiting a replacement")
	}

	if _, err := e.ProcessTurn(st, []Action{moveAction(0, 0), moveAction(1, 0)}); err != ErrAwaitingReplacement {
		t.Fatalf("err = %v, want ErrAwaitingReplacement", err)
	}

	// Illegal picks are rejected, the suspension stays.
	if _, err := e.SubmitReplacement(st, 1, 0); err == nil {
		t.Error("fainted party member accepted as replacement")
	}

	res2, err := e.SubmitReplacement(st, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if st.AwaitingInput() {
		t.Error("still awaiting after replacement")
	}
	if st.At(1) == nil || st.At(1).Name != "Gengar" {
		t.Errorf("replacement on field = %v", st.At(1))
	}
	if !hasEvent(res2.Events, "switch") {
		t.Errorf("missing switch event in %v", eventTypes(res2.Events))
	}

	// Play continues normally afterwards.
	if _, err := e.ProcessTurn(st, []Action{moveAction(0, 0), moveAction(1, 0)}); err != nil {
		t.Fatal(err)
	}
}

func TestBattleEnd_LastMonFaints(t *testing.T) {
	rl := testLoader()
	e := NewEngine(rl, Config{})

	weak := testMon(rl, 25, 1)
	weak.HP = 1
	st := e.StartBattle(21, []*Pokemon{testMon(rl, 68, 69)}, []*Pokemon{weak})

	res, err := e.ProcessTurn(st, []Action{moveAction(0, 0), moveAction(1, 0)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeWin {
		t.Fatalf("outcome = %v, want win", res.Outcome)
	}
	if !hasEvent(res.Events, "faint") || !hasEvent(res.Events, "battle_end") {
		t.Errorf("missing faint/battle_end in %v", eventTypes(res.Events))
	}
	if len(res.AwaitingReplacement) != 0 {
		t.Errorf("awaiting = %v on a decided battle", res.AwaitingReplacement)
	}
}
