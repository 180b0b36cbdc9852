package battle

// Ability names, matching the species data files.
const (
	AbilityNone         = ""
	AbilityBattleArmor  = "Battle Armor"
	AbilityChlorophyll  = "Chlorophyll"
	AbilityClearBody    = "Clear Body"
	AbilityCompoundEyes = "Compound Eyes"
	AbilityFlashFire    = "Flash Fire"
	AbilityGuts         = "Guts"
	AbilityHugePower    = "Huge Power"
	AbilityHustle       = "Hustle"
	AbilityHyperCutter  = "Hyper Cutter"
	AbilityImmunity     = "Immunity"
	AbilityInnerFocus   = "Inner Focus"
	AbilityInsomnia     = "Insomnia"
	AbilityIntimidate   = "Intimidate"
	AbilityKeenEye      = "Keen Eye"
	AbilityLevitate     = "Levitate"
	AbilityLimber       = "Limber"
	AbilityLiquidOoze   = "Liquid Ooze"
	AbilityMagmaArmor   = "Magma Armor"
	AbilityMarvelScale  = "Marvel Scale"
	AbilityNaturalCure  = "Natural Cure"
	AbilityOblivious    = "Oblivious"
	AbilityOwnTempo     = "Own Tempo"
	AbilityPressure     = "Pressure"
	AbilityPurePower    = "Pure Power"
	AbilityRainDish     = "Rain Dish"
	AbilityRockHead     = "Rock Head"
	AbilitySandVeil     = "Sand Veil"
	AbilitySereneGrace  = "Serene Grace"
	AbilityShedSkin     = "Shed Skin"
	AbilityShellArmor   = "Shell Armor"
	AbilityShieldDust   = "Shield Dust"
	AbilitySoundproof   = "Soundproof"
	AbilitySpeedBoost   = "Speed Boost"
	AbilityStickyHold   = "Sticky Hold"
	AbilitySturdy       = "Sturdy"
	AbilitySuctionCups  = "Suction Cups"
	AbilitySwiftSwim    = "Swift Swim"
	AbilityTruant       = "Truant"
	AbilityVitalSpirit  = "Vital Spirit"
	AbilityVoltAbsorb   = "Volt Absorb"
	AbilityWaterAbsorb  = "Water Absorb"
	AbilityWaterVeil    = "Water Veil"
	AbilityWhiteSmoke   = "White Smoke"
	AbilityWonderGuard  = "Wonder Guard"
)

// critImmune reports whether the ability blocks critical hits.
func critImmune(ability string) bool {
	return ability == AbilityBattleArmor || ability == AbilityShellArmor
}
