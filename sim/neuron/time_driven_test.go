package neuron

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybridsim/hybridsim/sim"
	"github.com/hybridsim/hybridsim/sim/internal/testutil"
)

func TestTimeLIF_RestsWithoutInput(t *testing.T) {
	m, err := NewTimeLIF("lif", DefaultTimeLIFConfig())
	require.NoError(t, err)
	b := sim.NewNetworkBuilder()
	_, err = b.AddNeurons(m, 3, false)
	require.NoError(t, err)

	s, rec := runNetwork(t, b, 10)
	assert.Empty(t, rec.Spikes)
	assert.Equal(t, int64(0), s.TotalSpikes())
	for i := 0; i < 3; i++ {
		assert.InDelta(t, -65.0, m.VectorNeuronState().StateVariableAt(i, 0), 1e-12)
		assert.InDelta(t, 10.0, m.VectorNeuronState().LastUpdateTime(i), 1e-9)
	}
}

func TestTimeLIF_ConductanceDecaysInClosedForm(t *testing.T) {
	cfg := DefaultTimeLIFConfig()
	m, err := NewTimeLIF("lif", cfg)
	require.NoError(t, err)
	b := sim.NewNetworkBuilder()
	_, err = b.AddNeurons(m, 2, false)
	require.NoError(t, err)
	exc, err := b.Connect(sim.ConnectionSpec{Source: 0, Target: 1, Weight: 0.05, Delay: 1})
	require.NoError(t, err)
	inh, err := b.Connect(sim.ConnectionSpec{Source: 0, Target: 1, Type: sim.SynapseInhibitory, Weight: 0.02, Delay: 1})
	require.NoError(t, err)
	net, err := b.Build()
	require.NoError(t, err)

	assert.Nil(t, m.ProcessInputSpike(exc, 0.05))
	assert.Nil(t, m.ProcessInputSpike(inh, 0.05))
	spikes, err := m.UpdateState(0.1)
	require.NoError(t, err)
	assert.Empty(t, spikes)

	i := net.NeuronAt(1).StateIndex()
	st := m.VectorNeuronState()
	assert.InDelta(t, 0.05*math.Exp(-0.1/cfg.TauExc), st.StateVariableAt(i, 1), 1e-15)
	assert.InDelta(t, 0.02*math.Exp(-0.1/cfg.TauInh), st.StateVariableAt(i, 2), 1e-15)
	assert.Greater(t, st.StateVariableAt(i, 0), cfg.ELeak, "net excitatory drive depolarises")
	assert.Equal(t, cfg.ELeak, st.StateVariableAt(0, 0), "other neuron untouched")
}

func TestTimeLIF_StrongInputFiresOnStepGrid(t *testing.T) {
	m, err := NewTimeLIF("lif", DefaultTimeLIFConfig())
	require.NoError(t, err)
	b := sim.NewNetworkBuilder()
	_, err = b.AddNeurons(NewInput("in"), 1, false)
	require.NoError(t, err)
	_, err = b.AddNeurons(m, 1, true)
	require.NoError(t, err)
	_, err = b.Connect(sim.ConnectionSpec{Source: 0, Target: 1, Weight: 10, Delay: 0.55})
	require.NoError(t, err)

	src := &testutil.SliceSource{Spikes: []sim.InputSpike{{Time: 0, Neuron: 0}}}
	_, rec := runNetwork(t, b, 20, src)

	var fired []float64
	for _, sp := range rec.Spikes {
		if sp.Neuron == 1 {
			fired = append(fired, sp.Time)
		}
	}
	require.NotEmpty(t, fired)
	assert.InDelta(t, 0.6, fired[0], 1e-9, "first step after the arrival at 0.55")
	for k := 1; k < len(fired); k++ {
		assert.GreaterOrEqual(t, fired[k]-fired[k-1], 1.0-1e-9, "refractory period")
	}
	for _, ft := range fired {
		steps := ft / 0.1
		assert.InDelta(t, math.Round(steps), steps, 1e-6)
	}
}

func TestIzhikevich_BatchMatchesSerial(t *testing.T) {
	spikeTrain := func(method string) []testutil.Spike {
		cfg := DefaultIzhikevichConfig()
		cfg.Bias = 10
		cfg.Method = method
		cfg.Workers = 3
		m, err := NewIzhikevich("rs", cfg)
		require.NoError(t, err)
		b := sim.NewNetworkBuilder()
		_, err = b.AddNeurons(m, 5, false)
		require.NoError(t, err)
		_, rec := runNetwork(t, b, 200)
		return rec.Spikes
	}

	serial := spikeTrain("rk2")
	batch := spikeTrain("batch-rk2")
	require.GreaterOrEqual(t, len(serial), 5*3, "regular spiking under constant drive")
	assert.Equal(t, serial, batch)
}

func TestIzhikevich_ResetIncrementsRecovery(t *testing.T) {
	cfg := DefaultIzhikevichConfig()
	m, err := NewIzhikevich("rs", cfg)
	require.NoError(t, err)
	b := sim.NewNetworkBuilder()
	_, err = b.AddNeurons(m, 1, false)
	require.NoError(t, err)
	_, err = b.Build()
	require.NoError(t, err)

	st := m.VectorNeuronState()
	st.SetStateVariableAt(0, 0, 40)
	uBefore := st.StateVariableAt(0, 1)
	m.reset(0)
	assert.Equal(t, cfg.C, st.StateVariableAt(0, 0))
	assert.Equal(t, uBefore+cfg.D, st.StateVariableAt(0, 1))
}

func TestTimeDriven_UpdateStateRejectsNonAdvancingStep(t *testing.T) {
	m, err := NewTimeLIF("lif", DefaultTimeLIFConfig())
	require.NoError(t, err)
	b := sim.NewNetworkBuilder()
	_, err = b.AddNeurons(m, 1, false)
	require.NoError(t, err)
	_, err = b.Build()
	require.NoError(t, err)

	_, err = m.UpdateState(0.1)
	require.NoError(t, err)
	_, err = m.UpdateState(0.1)
	assert.Error(t, err)
}

func TestNewTimeDrivenModels_Validation(t *testing.T) {
	lif := DefaultTimeLIFConfig()
	lif.Method = "leapfrog"
	_, err := NewTimeLIF("lif", lif)
	assert.ErrorIs(t, err, sim.ErrConfiguration)

	lif = DefaultTimeLIFConfig()
	lif.StepSize = 0
	_, err = NewTimeLIF("lif", lif)
	assert.ErrorIs(t, err, sim.ErrConfiguration)

	izh := DefaultIzhikevichConfig()
	izh.C = 35
	_, err = NewIzhikevich("izh", izh)
	assert.ErrorIs(t, err, sim.ErrConfiguration)
}
