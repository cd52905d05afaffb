package plasticity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybridsim/hybridsim/sim"
	"github.com/hybridsim/hybridsim/sim/internal/testutil"
)

// buildSynapse wires a single plastic connection 0 -> 1.
func buildSynapse(t *testing.T, rule sim.LearningRule, weight, maxWeight float64) *sim.Interconnection {
	t.Helper()
	b := sim.NewNetworkBuilder()
	_, err := b.AddNeurons(testutil.NewPassiveModel("cells"), 2, false)
	require.NoError(t, err)
	conn, err := b.Connect(sim.ConnectionSpec{Source: 0, Target: 1, Weight: weight, MaxWeight: maxWeight, Delay: 1, Rule: rule})
	require.NoError(t, err)
	_, err = b.Build()
	require.NoError(t, err)
	require.NotNil(t, conn.ConnectionState())
	return conn
}

func TestSTDP_PairingChangesWeight(t *testing.T) {
	rule, err := NewSTDP(STDPConfig{MaxChangeLTP: 0.1, MaxChangeLTD: 0.05, TauLTP: 10, TauLTD: 20})
	require.NoError(t, err)

	t.Run("pre before post potentiates", func(t *testing.T) {
		conn := buildSynapse(t, rule, 0.5, 1)
		rule.ApplyPreSynapticSpike(conn, 1)
		assert.Equal(t, 0.5, conn.Weight, "no postsynaptic trace yet")
		rule.ApplyPostSynapticSpike(conn, 6)
		testutil.AssertFloat64Equal(t, "weight", 0.5+0.1*math.Exp(-5.0/10), conn.Weight, 1e-12)
	})

	t.Run("post before pre depresses", func(t *testing.T) {
		conn := buildSynapse(t, rule, 0.5, 1)
		rule.ApplyPostSynapticSpike(conn, 1)
		assert.Equal(t, 0.5, conn.Weight, "no presynaptic trace yet")
		rule.ApplyPreSynapticSpike(conn, 11)
		testutil.AssertFloat64Equal(t, "weight", 0.5-0.05*math.Exp(-10.0/20), conn.Weight, 1e-12)
	})
}

func TestSTDP_WeightClamped(t *testing.T) {
	rule, err := NewSTDP(STDPConfig{MaxChangeLTP: 5, MaxChangeLTD: 5, TauLTP: 10, TauLTD: 10})
	require.NoError(t, err)

	conn := buildSynapse(t, rule, 0.5, 1)
	rule.ApplyPreSynapticSpike(conn, 0)
	rule.ApplyPostSynapticSpike(conn, 0.1)
	assert.Equal(t, 1.0, conn.Weight)

	rule.ApplyPreSynapticSpike(conn, 0.2)
	assert.Equal(t, 0.0, conn.Weight)
}

func TestSTDP_HookAdvancesStateToSpikeTime(t *testing.T) {
	rule, err := NewSTDP(STDPConfig{TauLTP: 5, TauLTD: 5})
	require.NoError(t, err)
	conn := buildSynapse(t, rule, 0, 0)

	for _, ts := range []float64{0, 5, 10} {
		if ts == 10 {
			conn.AdvanceStateTo(ts)
			testutil.AssertFloat64Equal(t, "trace before third hook",
				math.Exp(-10.0/5)+math.Exp(-5.0/5), conn.ConnectionState().PresynapticActivity(), 1e-12)
		}
		rule.ApplyPreSynapticSpike(conn, ts)
		assert.Equal(t, ts, conn.ConnectionState().LastUpdateTime())
	}
}

func TestNewSTDP_Validation(t *testing.T) {
	_, err := NewSTDP(STDPConfig{TauLTP: 0, TauLTD: 1})
	assert.ErrorIs(t, err, sim.ErrConfiguration)
	_, err = NewSTDP(STDPConfig{TauLTP: 1, TauLTD: math.Inf(1)})
	assert.ErrorIs(t, err, sim.ErrConfiguration)
}

func TestSinRule_TeachingSpikeUsesKernelActivity(t *testing.T) {
	rule, err := NewSinRule(SinConfig{Exponent: 2, Maxpos: 1, APre: 0.01, APost: -0.2})
	require.NoError(t, err)
	conn := buildSynapse(t, rule, 0.5, 1)

	rule.ApplyPreSynapticSpike(conn, 0)
	assert.InDelta(t, 0.51, conn.Weight, 1e-12)

	rule.ApplyPostSynapticSpike(conn, 1)
	activity := conn.ConnectionState().PresynapticActivity()
	assert.InDelta(t, 1.0, activity, 0.01, "teaching spike at the kernel peak")
	assert.InDelta(t, 0.51-0.2*activity, conn.Weight, 1e-12)
}

func TestNewSinRule_RejectsOddExponent(t *testing.T) {
	_, err := NewSinRule(SinConfig{Exponent: 5, Maxpos: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrConfiguration)
	assert.Equal(t, sim.KindConfiguration, sim.KindOf(err))
}
