package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimulationKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.seed, int64(NewSimulationKey(tt.seed)))
		})
	}
}

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	rng1 := NewPartitionedRNG(NewSimulationKey(42))
	rng2 := NewPartitionedRNG(NewSimulationKey(42))

	name := SubsystemInput("mossy")
	for i := 0; i < 3; i++ {
		assert.Equal(t, rng1.ForSubsystem(name).Float64(), rng2.ForSubsystem(name).Float64(), "draw %d", i)
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// drawing topology must not shift the input streams
	rngA := NewPartitionedRNG(NewSimulationKey(42))
	for i := 0; i < 10; i++ {
		rngA.ForSubsystem(SubsystemTopology).Float64()
	}
	fresh := NewPartitionedRNG(NewSimulationKey(42))

	assert.Equal(t, fresh.ForSubsystem(SubsystemInput("a")).Float64(), rngA.ForSubsystem(SubsystemInput("a")).Float64())
	assert.NotEqual(t,
		NewPartitionedRNG(NewSimulationKey(42)).ForSubsystem(SubsystemInput("a")).Float64(),
		NewPartitionedRNG(NewSimulationKey(42)).ForSubsystem(SubsystemInput("b")).Float64())
}

func TestPartitionedRNG_TopologyUsesMasterSeed(t *testing.T) {
	for _, seed := range []int64{0, 42, math.MinInt64} {
		rng := NewPartitionedRNG(NewSimulationKey(seed))
		direct := rand.New(rand.NewSource(seed))
		for i := 0; i < 5; i++ {
			assert.Equal(t, direct.Float64(), rng.ForSubsystem(SubsystemTopology).Float64())
		}
	}
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	assert.Empty(t, rng.subsystems)
	assert.Same(t, rng.ForSubsystem(SubsystemWeights), rng.ForSubsystem(SubsystemWeights))
	assert.Len(t, rng.subsystems, 1)
	assert.Equal(t, SimulationKey(42), rng.Key())
}
