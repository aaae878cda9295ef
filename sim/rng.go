package sim

import (
	"hash/fnv"
	"math/rand"
)

// RNG subsystem names. Each subsystem draws from its own deterministic
// stream so that, for example, adding traffic draws cannot perturb node
// placement for the same seed.
const (
	// SubsystemTopology seeds node placement.
	SubsystemTopology = "topology"

	// SubsystemElection seeds cluster-head election draws (LEACH).
	SubsystemElection = "election"

	// SubsystemTraffic seeds source selection and traffic generation
	// (Directed Diffusion, GEAR).
	SubsystemTraffic = "traffic"
)

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem. Two runs with the same master seed MUST observe identical
// draws in every subsystem.
//
// Derivation: masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. A PartitionedRNG belongs to exactly one
// simulation run and is only touched from its event loop.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the deterministically-seeded RNG for the named
// subsystem. The same name always returns the same *rand.Rand instance.
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.seed ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the master seed this PartitionedRNG was created with.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
