package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybridsim/hybridsim/sim"
	simtest "github.com/hybridsim/hybridsim/sim/internal/testutil"
	"github.com/hybridsim/hybridsim/sim/plasticity"
)

func runWithCollector(t *testing.T, c *Collector) *sim.Simulation {
	t.Helper()
	model := simtest.NewPassiveModel("granule")
	b := sim.NewNetworkBuilder()
	_, err := b.AddNeurons(model, 2, true)
	require.NoError(t, err)
	rule, err := plasticity.NewSTDP(plasticity.STDPConfig{MaxChangeLTP: 0.1, MaxChangeLTD: 0.1, TauLTP: 20, TauLTD: 20})
	require.NoError(t, err)
	_, err = b.Connect(sim.ConnectionSpec{Source: 0, Target: 1, Weight: 0.4, MaxWeight: 1, Delay: 1, Rule: rule})
	require.NoError(t, err)
	net, err := b.Build()
	require.NoError(t, err)

	cfg := sim.NewConfig()
	cfg.Horizon = 20
	cfg.SaveWeightStep = 5
	s, err := sim.NewSimulation(net, cfg)
	require.NoError(t, err)
	require.NoError(t, s.AddSpikeSource(&simtest.SliceSource{Spikes: []sim.InputSpike{
		{Time: 1, Neuron: 0}, {Time: 3, Neuron: 0}, {Time: 8, Neuron: 0},
	}}))
	require.NoError(t, s.AddSpikeSink(c))
	require.NoError(t, s.AddStateSink(c))
	require.NoError(t, s.AddWeightSink(c))
	require.NoError(t, s.Build())
	require.NoError(t, s.Run())
	c.ObserveRun(s)
	return s
}

func TestCollector_CountsActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	s := runWithCollector(t, c)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.spikes.WithLabelValues("granule")))
	// three firings of monitored neuron 0 and three arrivals at neuron 1
	assert.Equal(t, 6.0, testutil.ToFloat64(c.stateSamples))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.weightSnapshots), "saves at 5, 10, 15, 20")
	assert.Equal(t, 0.4, testutil.ToFloat64(c.meanWeight), "no postsynaptic firing, no potentiation")
	assert.Equal(t, float64(s.Updates()), testutil.ToFloat64(c.events))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.propagated))
	assert.Equal(t, 20.0, testutil.ToFloat64(c.simulatedMs))

	n, err := testutil.GatherAndCount(reg, "hybridsim_network_interspike_interval_ms")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollector_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)
	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	runWithCollector(t, c)

	path := filepath.Join(t.TempDir(), "hybridsim.prom")
	require.NoError(t, WriteTextfile(path, reg))
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `hybridsim_network_spikes_total{population="granule"} 3`))

	err = WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"), reg)
	assert.ErrorIs(t, err, sim.ErrConnection)
}
