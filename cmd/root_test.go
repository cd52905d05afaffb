package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybridsim/hybridsim/sim"
	"github.com/hybridsim/hybridsim/sim/output"
)

const experimentYAML = `simulation:
  horizon: 100
  save_weight_step: 25
  seed: 11
populations:
  - name: mossy
    model: input
    count: 10
    monitored: true
  - name: granule
    model: izhikevich
    count: 8
    method: batch-euler
    params:
      bias: 2
  - name: purkinje
    model: event_lif
    count: 1
    monitored: true
projections:
  - from: mossy
    to: granule
    connectivity: random
    probability: 0.5
    weight: 0.3
    delay: 1
  - from: granule
    to: purkinje
    weight: 2
    max_weight: 5
    delay: 1.5
    learning:
      rule: stdp
      a_ltp: 0.05
      a_ltd: 0.06
      tau_ltp: 20
      tau_ltd: 20
inputs:
  - name: drive
    population: mossy
    process: gamma
    cv: 0.5
    rate: 40
`

func writeExperiment(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(experimentYAML), 0o644))
	return path
}

func TestRunExperiment_WritesAllOutputs(t *testing.T) {
	// GIVEN an experiment and every output enabled
	dir := t.TempDir()
	opts := runOptions{
		configPath:      writeExperiment(t),
		spikeLog:        filepath.Join(dir, "spikes.dat"),
		weightsOut:      filepath.Join(dir, "weights.yaml"),
		metricsTextfile: filepath.Join(dir, "hybridsim.prom"),
		summary:         true,
	}

	// WHEN the run completes
	var stdout bytes.Buffer
	require.NoError(t, runExperiment(opts, &stdout))

	// THEN the report and the population table are printed
	assert.Contains(t, stdout.String(), "=== Simulation Metrics ===")
	assert.Contains(t, stdout.String(), "Mean Heap Size")
	assert.Contains(t, stdout.String(), "=== Population Activity ===")
	assert.Contains(t, stdout.String(), "purkinje")

	spikes, err := os.ReadFile(opts.spikeLog)
	require.NoError(t, err)
	assert.NotEmpty(t, spikes)

	f, err := os.Open(opts.weightsOut)
	require.NoError(t, err)
	defer f.Close()
	snaps, err := output.ReadWeightSnapshots(f)
	require.NoError(t, err)
	require.Len(t, snaps, 4, "saves at 25, 50, 75, 100")
	assert.Len(t, snaps[0].Connections, 8)
	assert.NotEmpty(t, snaps[0].Run)
	assert.Equal(t, snaps[0].Run, snaps[3].Run)

	metrics, err := os.ReadFile(opts.metricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "hybridsim_engine_events_processed")
	assert.Contains(t, string(metrics), "hybridsim_network_weight_snapshots_total 4")
	assert.Contains(t, string(metrics), "hybridsim_network_state_samples_total")
	assert.NotContains(t, string(metrics), "hybridsim_network_state_samples_total 0\n", "monitored mossy fibres are sampled")
}

func TestRunExperiment_SeedOverrideIsReproducible(t *testing.T) {
	spikeTrain := func(seed int64) []byte {
		path := filepath.Join(t.TempDir(), "spikes.dat")
		opts := runOptions{configPath: writeExperiment(t), seed: &seed, spikeLog: path}
		require.NoError(t, runExperiment(opts, &bytes.Buffer{}))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, spikeTrain(5), spikeTrain(5))
	assert.NotEqual(t, spikeTrain(5), spikeTrain(6))
}

func TestRunExperiment_Errors(t *testing.T) {
	assert.Error(t, runExperiment(runOptions{}, &bytes.Buffer{}))

	err := runExperiment(runOptions{configPath: filepath.Join(t.TempDir(), "none.yaml")}, &bytes.Buffer{})
	assert.ErrorIs(t, err, sim.ErrConnection)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("populations: []\n"), 0o644))
	err = runExperiment(runOptions{configPath: bad}, &bytes.Buffer{})
	assert.ErrorIs(t, err, sim.ErrConfiguration)
}

func TestPrintInfo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printInfo(runOptions{configPath: writeExperiment(t), workers: 3}, &out))

	s := out.String()
	assert.Contains(t, s, "=== Network ===")
	assert.Contains(t, s, "batch-euler, step 0.1 ms")
	assert.Contains(t, s, "event-driven")
	assert.Contains(t, s, "Neurons              : 19")
	assert.Contains(t, s, "(8 with learning)")
	assert.Contains(t, s, "granule -> purkinje, stdp, delay 1.5 ms")
	assert.Contains(t, s, "Horizon              : 100 ms")
}
