package battle

// Canonical move IDs the engine must recognize by identity rather than
// by effect: the semi-invulnerable piercing pairs, the weather
// interactions and the fallback move. The data files use the same
// numbering.
const (
	MoveGust        = 16
	MoveFly         = 19
	MoveSurf        = 57
	MoveThunder     = 87
	MoveEarthquake  = 89
	MoveDig         = 91
	MoveStruggle    = 165
	MoveFlameWheel  = 172
	MoveSacredFire  = 221
	MoveMagnitude   = 222
	MoveTwister     = 239
	MoveWhirlpool   = 250
	MoveDive        = 291
	MoveSkyUppercut = 327
)
