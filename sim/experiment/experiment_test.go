package experiment

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybridsim/hybridsim/sim"
	"github.com/hybridsim/hybridsim/sim/neuron"
)

const cerebellumYAML = `simulation:
  horizon: 200
  save_weight_step: 50
  seed: 7
populations:
  - name: mossy
    model: input
    count: 20
  - name: granule
    model: time_lif
    count: 30
    method: batch-rk2
    workers: 2
    params:
      threshold: -52
  - name: purkinje
    model: event_lif
    count: 2
    monitored: true
    params:
      bias: 10
projections:
  - from: mossy
    to: granule
    connectivity: random
    probability: 0.2
    weight: 0.5
    weight_spread: 0.1
    delay: 1
  - from: granule
    to: purkinje
    weight: 1
    max_weight: 4
    delay: 2
    learning:
      rule: sin
      exponent: 2
      maxpos: 100
      a_pre: 0.01
      a_post: -0.05
inputs:
  - name: background
    population: mossy
    process: poisson
    rate: 50
`

const cerebellumTOML = `[simulation]
horizon = 200.0
save_weight_step = 50.0
seed = 7

[[populations]]
name = "mossy"
model = "input"
count = 20

[[populations]]
name = "granule"
model = "time_lif"
count = 30
method = "batch-rk2"
workers = 2
params = { threshold = -52.0 }

[[populations]]
name = "purkinje"
model = "event_lif"
count = 2
monitored = true
params = { bias = 10.0 }

[[projections]]
from = "mossy"
to = "granule"
connectivity = "random"
probability = 0.2
weight = 0.5
weight_spread = 0.1
delay = 1.0

[[projections]]
from = "granule"
to = "purkinje"
weight = 1.0
max_weight = 4.0
delay = 2.0
learning = { rule = "sin", exponent = 2, maxpos = 100.0, a_pre = 0.01, a_post = -0.05 }

[[inputs]]
name = "background"
population = "mossy"
process = "poisson"
rate = 50.0
`

const cerebellumJSON = `{
  "simulation": {"horizon": 200, "save_weight_step": 50, "seed": 7},
  "populations": [
    {"name": "mossy", "model": "input", "count": 20},
    {"name": "granule", "model": "time_lif", "count": 30, "method": "batch-rk2", "workers": 2, "params": {"threshold": -52}},
    {"name": "purkinje", "model": "event_lif", "count": 2, "monitored": true, "params": {"bias": 10}}
  ],
  "projections": [
    {"from": "mossy", "to": "granule", "connectivity": "random", "probability": 0.2, "weight": 0.5, "weight_spread": 0.1, "delay": 1},
    {"from": "granule", "to": "purkinje", "weight": 1, "max_weight": 4, "delay": 2,
     "learning": {"rule": "sin", "exponent": 2, "maxpos": 100, "a_pre": 0.01, "a_post": -0.05}}
  ],
  "inputs": [
    {"name": "background", "population": "mossy", "process": "poisson", "rate": 50}
  ]
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AllFormatsAgree(t *testing.T) {
	yamlExp, err := Load(writeFile(t, "exp.yaml", cerebellumYAML))
	require.NoError(t, err)
	tomlExp, err := Load(writeFile(t, "exp.toml", cerebellumTOML))
	require.NoError(t, err)
	jsonExp, err := Load(writeFile(t, "exp.json", cerebellumJSON))
	require.NoError(t, err)

	assert.Equal(t, yamlExp, tomlExp)
	assert.Equal(t, yamlExp, jsonExp)

	l := yamlExp.Projections[1].Learning
	require.NotNil(t, l)
	assert.Equal(t, "sin", l.Rule)
	assert.Equal(t, 2, l.Exponent)
	assert.Equal(t, -0.05, l.APost)
	assert.Equal(t, map[string]float64{"threshold": -52}, yamlExp.Populations[1].Params)
}

func TestLoad_StrictDecodingReportsLine(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		line    int
	}{
		{"yaml unknown key", "e.yaml", "simulation:\n  horizon: 10\n  horizn: 5\n", 3},
		{"toml unknown key", "e.toml", "[simulation]\nhorizon = 10.0\n\n[[populations]]\nnme = \"x\"\n", 5},
		{"json unknown key", "e.json", "{\n  \"simulation\": {\"horizon\": 10},\n  \"extra\": 1\n}\n", 0},
		{"json syntax", "e.json", "{\n  \"simulation\": {\"horizon\": 10,}\n}\n", 2},
		{"yaml syntax", "e.yml", "simulation:\n  horizon: [1\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.ErrorIs(t, err, sim.ErrConfiguration)
			var simErr *sim.Error
			require.True(t, errors.As(err, &simErr))
			if tt.line > 0 {
				assert.Equal(t, tt.line, simErr.Line)
			}
		})
	}
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, sim.ErrConnection)

	_, err = Load(writeFile(t, "exp.ini", "horizon=1"))
	assert.ErrorIs(t, err, sim.ErrConfiguration)
}

func validExperiment() *Experiment {
	return &Experiment{
		Simulation: Settings{Horizon: 100},
		Populations: []Population{
			{Name: "in", Model: "input", Count: 4},
			{Name: "out", Model: "event_lif", Count: 4},
		},
		Projections: []Projection{{From: "in", To: "out", Connectivity: "one_to_one", Weight: 20, Delay: 1}},
		Inputs:      []Input{{Name: "drive", Population: "in", Process: "poisson", Rate: 10}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Experiment)
	}{
		{"no populations", func(e *Experiment) { e.Populations = nil }},
		{"negative horizon", func(e *Experiment) { e.Simulation.Horizon = -1 }},
		{"save without horizon", func(e *Experiment) { e.Simulation.Horizon, e.Simulation.SaveWeightStep = 0, 5 }},
		{"unnamed population", func(e *Experiment) { e.Populations[0].Name = "" }},
		{"duplicate population", func(e *Experiment) { e.Populations[1].Name = "in" }},
		{"unknown model", func(e *Experiment) { e.Populations[0].Model = "hodgkin_huxley" }},
		{"zero count", func(e *Experiment) { e.Populations[0].Count = 0 }},
		{"step on event-driven", func(e *Experiment) { e.Populations[1].Step = 0.1 }},
		{"time-driven without horizon", func(e *Experiment) {
			e.Simulation.Horizon = 0
			e.Populations[1].Model = "izhikevich"
		}},
		{"unknown projection source", func(e *Experiment) { e.Projections[0].From = "nowhere" }},
		{"one_to_one size mismatch", func(e *Experiment) { e.Populations[1].Count = 3 }},
		{"random without probability", func(e *Experiment) { e.Projections[0].Connectivity = "random" }},
		{"zero delay", func(e *Experiment) { e.Projections[0].Delay = 0 }},
		{"unknown synapse", func(e *Experiment) { e.Projections[0].Synapse = "electrical" }},
		{"weight above max", func(e *Experiment) { e.Projections[0].MaxWeight = 10 }},
		{"unknown rule", func(e *Experiment) { e.Projections[0].Learning = &Learning{Rule: "bcm"} }},
		{"unknown input population", func(e *Experiment) { e.Inputs[0].Population = "x" }},
		{"unknown process", func(e *Experiment) { e.Inputs[0].Process = "weibull" }},
		{"file without path", func(e *Experiment) { e.Inputs[0].Process = "file" }},
		{"zero rate", func(e *Experiment) { e.Inputs[0].Rate = 0 }},
		{"input into non-input population", func(e *Experiment) { e.Inputs[0].Population = "out" }},
		{"endless input without horizon", func(e *Experiment) { e.Simulation.Horizon = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExperiment()
			tt.mutate(e)
			assert.ErrorIs(t, e.Validate(), sim.ErrConfiguration)
		})
	}
	assert.NoError(t, validExperiment().Validate())

	bounded := validExperiment()
	bounded.Simulation.Horizon = 0
	bounded.Inputs[0].Stop = 50
	assert.NoError(t, bounded.Validate(), "a stop time bounds the run")
}

func TestBuild_Cerebellum(t *testing.T) {
	exp, err := Load(writeFile(t, "exp.yaml", cerebellumYAML))
	require.NoError(t, err)
	inst, err := Build(exp)
	require.NoError(t, err)
	defer inst.Close()

	assert.Equal(t, 52, len(inst.Network.Neurons()))
	assert.Equal(t, PopulationRange{First: 20, Count: 30, Model: inst.Populations["granule"].Model}, inst.Populations["granule"])
	lif, ok := inst.Populations["granule"].Model.(*neuron.TimeLIF)
	require.True(t, ok)
	assert.Equal(t, "batch-rk2", lif.IntegrationMethod().Name())

	taught := inst.Network.TaughtConnections()
	assert.Len(t, taught, 60, "granule to purkinje is all-to-all")
	random := len(inst.Network.Connections()) - len(taught)
	assert.Greater(t, random, 60)
	assert.Less(t, random, 180)
	for _, c := range inst.Network.Connections()[:random] {
		assert.GreaterOrEqual(t, c.Weight, 0.4)
		assert.LessOrEqual(t, c.Weight, 0.6)
	}
	assert.Equal(t, 200.0, inst.Config.Horizon)
	assert.Equal(t, 50.0, inst.Config.SaveWeightStep)

	s, err := inst.NewSimulation()
	require.NoError(t, err)
	require.NoError(t, s.Build())
	require.NoError(t, s.Run())
	assert.Greater(t, s.TotalSpikes(), int64(0))
}

func TestBuild_SameSeedSameNetwork(t *testing.T) {
	topology := func(seed int64) [][2]int {
		exp, err := Load(writeFile(t, "exp.yaml", cerebellumYAML))
		require.NoError(t, err)
		exp.Simulation.Seed = seed
		inst, err := Build(exp)
		require.NoError(t, err)
		var pairs [][2]int
		for _, c := range inst.Network.Connections() {
			pairs = append(pairs, [2]int{c.Source().Index(), c.Target().Index()})
		}
		return pairs
	}
	assert.Equal(t, topology(3), topology(3))
	assert.NotEqual(t, topology(3), topology(4))
}

func TestBuild_Connectivity(t *testing.T) {
	e := validExperiment()
	e.Populations[1].Model = "input"
	e.Projections = []Projection{
		{From: "in", To: "in", Weight: 1, Delay: 1},
		{From: "in", To: "in", Weight: 1, Delay: 1, AllowSelf: true},
		{From: "in", To: "out", Connectivity: "one_to_one", Synapse: "inhibitory", Weight: 1, Delay: 1},
	}
	inst, err := Build(e)
	require.NoError(t, err)
	conns := inst.Network.Connections()
	require.Len(t, conns, 12+16+4)
	last := conns[len(conns)-1]
	assert.Equal(t, 3, last.Source().Index())
	assert.Equal(t, 7, last.Target().Index())
	assert.Equal(t, sim.SynapseInhibitory, last.Type())
}

func TestBuild_UnknownParameter(t *testing.T) {
	e := validExperiment()
	e.Populations[1].Params = map[string]float64{"tau": 5}
	_, err := Build(e)
	assert.ErrorIs(t, err, sim.ErrConfiguration)
	assert.Contains(t, err.Error(), "tau_m")
}

func TestBuild_FileInputIsPopulationRelative(t *testing.T) {
	spikes := writeFile(t, "drive.dat", "# t n\n1 0\n2 3\n")
	e := validExperiment()
	e.Populations = append(e.Populations, Population{Name: "replayed", Model: "input", Count: 4})
	e.Inputs = []Input{{Name: "replay", Population: "replayed", Process: "file", File: spikes}}
	inst, err := Build(e)
	require.NoError(t, err)
	defer inst.Close()

	require.Len(t, inst.Sources, 1)
	first, err := inst.Sources[0].NextSpike()
	require.NoError(t, err)
	assert.Equal(t, &sim.InputSpike{Time: 1, Neuron: 8}, first)
	second, err := inst.Sources[0].NextSpike()
	require.NoError(t, err)
	assert.Equal(t, 11, second.Neuron)

	e.Inputs[0].File = writeFile(t, "bad.dat", "1 4\n")
	inst, err = Build(e)
	require.NoError(t, err)
	_, err = inst.Sources[0].NextSpike()
	assert.ErrorIs(t, err, sim.ErrConfiguration)
	assert.NoError(t, inst.Close())
}
