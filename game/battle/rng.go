package battle

// RNG is the battle's random source: a 16-bit output LCG with a 32-bit
// state, matching the generation the damage and accuracy formulas were
// tuned against. Every roll in a battle goes through the one instance
// owned by the State, so a seed plus an action transcript replays the
// battle exactly.
type RNG struct {
	seed uint32
}

// NewRNG returns a generator starting from the given seed.
func NewRNG(seed uint32) *RNG {
	return &RNG{seed: seed}
}

// Seed returns the current internal state, for replay capture.
func (r *RNG) Seed() uint32 { return r.seed }

// Next advances the state and returns the top 16 bits.
func (r *RNG) Next() uint16 {
	r.seed = r.seed*1664525 + 1013904223
	return uint16(r.seed >> 16)
}

// Percent rolls a pct% chance using the full 16-bit range, so that
// thresholds land on the same values the stat formulas expect.
func (r *RNG) Percent(pct int) bool {
	if pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	return int(r.Next()) < pct*0xFFFF/100
}

// Intn returns a roll in [0, n). n must be positive.
func (r *RNG) Intn(n int) int {
	return int(r.Next()) % n
}

// Range returns a roll in [lo, hi] inclusive.
func (r *RNG) Range(lo, hi int) int {
	return lo + r.Intn(hi-lo+1)
}
