package neuron

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybridsim/hybridsim/sim"
	"github.com/hybridsim/hybridsim/sim/internal/testutil"
)

func tonicConfig() EventLIFConfig {
	cfg := DefaultEventLIFConfig()
	cfg.Bias = 20 // Vinf = -45, 5 mV above threshold
	return cfg
}

func runNetwork(t *testing.T, b *sim.NetworkBuilder, horizon float64, sources ...sim.SpikeSource) (*sim.Simulation, *testutil.SpikeRecorder) {
	t.Helper()
	net, err := b.Build()
	require.NoError(t, err)
	cfg := sim.NewConfig()
	cfg.Horizon = horizon
	s, err := sim.NewSimulation(net, cfg)
	require.NoError(t, err)
	rec := &testutil.SpikeRecorder{}
	require.NoError(t, s.AddSpikeSink(rec))
	for _, src := range sources {
		require.NoError(t, s.AddSpikeSource(src))
	}
	require.NoError(t, s.Build())
	require.NoError(t, s.Run())
	return s, rec
}

func TestEventLIF_TonicFiringFollowsClosedForm(t *testing.T) {
	m, err := NewEventLIF("tonic", tonicConfig())
	require.NoError(t, err)
	b := sim.NewNetworkBuilder()
	_, err = b.AddNeurons(m, 1, false)
	require.NoError(t, err)

	s, rec := runNetwork(t, b, 50)

	// from rest: 10 ln(20/5); after each spike add the 2 ms refractory period
	period := 10 * math.Log(4)
	want := []float64{period, 2*period + 2, 3*period + 4}
	require.Len(t, rec.Spikes, len(want))
	for k, sp := range rec.Spikes {
		testutil.AssertFloat64Equal(t, "spike time", want[k], sp.Time, 1e-12)
	}
	assert.Equal(t, int64(3), s.TotalSpikes())
}

func TestEventLIF_QuiescentNeuronNeverFires(t *testing.T) {
	m, err := NewEventLIF("quiet", DefaultEventLIFConfig())
	require.NoError(t, err)
	b := sim.NewNetworkBuilder()
	_, err = b.AddNeurons(m, 1, false)
	require.NoError(t, err)
	net, err := b.Build()
	require.NoError(t, err)

	s, err := sim.NewSimulation(net, sim.NewConfig())
	require.NoError(t, err)
	require.NoError(t, s.Build())
	assert.Equal(t, 0, s.Queue().Len())

	require.NoError(t, s.Run())
	assert.Equal(t, int64(0), s.TotalSpikes())
	assert.Equal(t, int64(0), s.Updates())
}

func TestEventLIF_SuprathresholdInputFiresImmediately(t *testing.T) {
	lif, err := NewEventLIF("lif", DefaultEventLIFConfig())
	require.NoError(t, err)
	b := sim.NewNetworkBuilder()
	_, err = b.AddNeurons(NewInput("in"), 1, false)
	require.NoError(t, err)
	_, err = b.AddNeurons(lif, 1, false)
	require.NoError(t, err)
	_, err = b.Connect(sim.ConnectionSpec{Source: 0, Target: 1, Weight: 20, Delay: 1})
	require.NoError(t, err)

	src := &testutil.SliceSource{Spikes: []sim.InputSpike{{Time: 0, Neuron: 0}}}
	_, rec := runNetwork(t, b, 100, src)

	assert.Equal(t, []testutil.Spike{{Time: 0, Neuron: 0}, {Time: 1, Neuron: 1}}, rec.Spikes)
}

func TestEventLIF_SubthresholdInputsDecay(t *testing.T) {
	lif, err := NewEventLIF("lif", DefaultEventLIFConfig())
	require.NoError(t, err)
	b := sim.NewNetworkBuilder()
	_, err = b.AddNeurons(NewInput("in"), 1, false)
	require.NoError(t, err)
	_, err = b.AddNeurons(lif, 1, false)
	require.NoError(t, err)
	_, err = b.Connect(sim.ConnectionSpec{Source: 0, Target: 1, Weight: 10, Delay: 1})
	require.NoError(t, err)

	// two 10 mV inputs 1 ms apart sum to 10 + 10 e^-0.1 = 19.05 mV > 15 mV margin
	src := &testutil.SliceSource{Spikes: []sim.InputSpike{{Time: 0, Neuron: 0}, {Time: 1, Neuron: 0}}}
	_, rec := runNetwork(t, b, 100, src)
	require.Len(t, rec.Spikes, 3)
	assert.Equal(t, testutil.Spike{Time: 2, Neuron: 1}, rec.Spikes[2])

	// the same inputs 30 ms apart leave the neuron below threshold
	lif2, err := NewEventLIF("lif", DefaultEventLIFConfig())
	require.NoError(t, err)
	b2 := sim.NewNetworkBuilder()
	_, err = b2.AddNeurons(NewInput("in"), 1, false)
	require.NoError(t, err)
	_, err = b2.AddNeurons(lif2, 1, false)
	require.NoError(t, err)
	_, err = b2.Connect(sim.ConnectionSpec{Source: 0, Target: 1, Weight: 10, Delay: 1})
	require.NoError(t, err)
	src2 := &testutil.SliceSource{Spikes: []sim.InputSpike{{Time: 0, Neuron: 0}, {Time: 30, Neuron: 0}}}
	_, rec2 := runNetwork(t, b2, 100, src2)
	assert.Len(t, rec2.Spikes, 2, "only the input spikes")
	testutil.AssertFloat64Equal(t, "membrane", -65+10+10*math.Exp(-3), lif2.Membrane(0, 31), 1e-12)
}

func TestEventLIF_InputInvalidatesPendingPrediction(t *testing.T) {
	m, err := NewEventLIF("tonic", tonicConfig())
	require.NoError(t, err)
	b := sim.NewNetworkBuilder()
	_, err = b.AddNeurons(m, 2, false)
	require.NoError(t, err)
	conn, err := b.Connect(sim.ConnectionSpec{Source: 0, Target: 1, Type: sim.SynapseInhibitory, Weight: 3, Delay: 1})
	require.NoError(t, err)
	net, err := b.Build()
	require.NoError(t, err)
	target := net.NeuronAt(1)

	first := m.GenerateInitialSpike(target)
	require.NotNil(t, first)
	assert.False(t, m.DiscardSpike(first))

	moved := m.ProcessInputSpike(conn, 5)
	require.NotNil(t, moved)
	assert.Greater(t, moved.Time(), first.Time(), "inhibition delays the firing")
	assert.True(t, m.DiscardSpike(first))
	assert.False(t, m.DiscardSpike(moved))
}

func TestEventLIF_RefractoryIgnoresInput(t *testing.T) {
	cfg := tonicConfig()
	cfg.Refractory = 5
	m, err := NewEventLIF("tonic", cfg)
	require.NoError(t, err)
	b := sim.NewNetworkBuilder()
	_, err = b.AddNeurons(m, 2, false)
	require.NoError(t, err)
	conn, err := b.Connect(sim.ConnectionSpec{Source: 0, Target: 1, Weight: 100, Delay: 1})
	require.NoError(t, err)
	net, err := b.Build()
	require.NoError(t, err)
	n := net.NeuronAt(1)

	s := m.GenerateInitialSpike(n)
	m.VectorNeuronState().NewFiredSpike(n.StateIndex(), s.Time())
	next := m.GenerateNextSpike(s)
	require.NotNil(t, next)

	again := m.ProcessInputSpike(conn, s.Time()+1)
	require.NotNil(t, again)
	assert.Equal(t, next.Time(), again.Time(), "a 100 mV kick during refractoriness has no effect")
	assert.Equal(t, cfg.VReset, m.VectorNeuronState().StateVariableAt(n.StateIndex(), 0))
}

func TestNewEventLIF_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EventLIFConfig)
	}{
		{"zero tau", func(c *EventLIFConfig) { c.TauM = 0 }},
		{"negative refractory", func(c *EventLIFConfig) { c.Refractory = -1 }},
		{"reset above threshold", func(c *EventLIFConfig) { c.VReset = -40 }},
		{"nan bias", func(c *EventLIFConfig) { c.Bias = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEventLIFConfig()
			tt.mutate(&cfg)
			_, err := NewEventLIF("lif", cfg)
			assert.ErrorIs(t, err, sim.ErrConfiguration)
		})
	}
}
