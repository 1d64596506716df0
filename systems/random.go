package systems

// RandomSource supplies the per-agent wobble randomness. Implementations must
// be safe for concurrent use and should depend only on their arguments, so a
// tick gives the same result however the agents are split across workers.
type RandomSource interface {
	// Float32 returns a value in [0, 1) for agent stream at the given step.
	Float32(step uint64, stream uint32) float32
}

// HashSource is a stateless counter-based generator keyed by a seed.
type HashSource struct {
	Seed uint64
}

// NewHashSource returns a HashSource for seed.
func NewHashSource(seed uint64) HashSource { return HashSource{Seed: seed} }

// Float32 implements RandomSource.
func (h HashSource) Float32(step uint64, stream uint32) float32 {
	x := h.Seed ^ (step * 0x9E3779B97F4A7C15) ^ (uint64(stream) * 0xC2B2AE3D27D4EB4F)
	x = mix64(x)
	return float32(x>>40) / float32(1<<24)
}

// mix64 is the splitmix64 finaliser.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}
