// Package experiment loads experiment descriptions (populations, generative
// projections, input drives and run settings) from YAML, TOML or JSON files
// and turns them into a built network with its spike sources.
package experiment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/hybridsim/hybridsim/sim"
	"github.com/hybridsim/hybridsim/sim/plasticity"
)

// Experiment is the top-level description of one simulation.
type Experiment struct {
	Simulation  Settings     `yaml:"simulation" toml:"simulation" json:"simulation"`
	Populations []Population `yaml:"populations" toml:"populations" json:"populations"`
	Projections []Projection `yaml:"projections" toml:"projections" json:"projections"`
	Inputs      []Input      `yaml:"inputs" toml:"inputs" json:"inputs"`
}

// Settings are the run parameters.
type Settings struct {
	// Horizon is the simulated duration in ms; 0 means unbounded.
	Horizon        float64 `yaml:"horizon" toml:"horizon" json:"horizon"`
	SaveWeightStep float64 `yaml:"save_weight_step" toml:"save_weight_step" json:"save_weight_step"`
	Seed           int64   `yaml:"seed" toml:"seed" json:"seed"`
}

// Population is a group of neurons sharing one model.
type Population struct {
	Name      string `yaml:"name" toml:"name" json:"name"`
	Model     string `yaml:"model" toml:"model" json:"model"`
	Count     int    `yaml:"count" toml:"count" json:"count"`
	Monitored bool   `yaml:"monitored" toml:"monitored" json:"monitored"`
	// Step, Method and Workers override the integration defaults of time-driven models.
	Step    float64 `yaml:"step" toml:"step" json:"step"`
	Method  string  `yaml:"method" toml:"method" json:"method"`
	Workers int     `yaml:"workers" toml:"workers" json:"workers"`
	// Params override individual model parameters by name.
	Params map[string]float64 `yaml:"params" toml:"params" json:"params"`
}

// Projection generates connections from one population to another.
type Projection struct {
	From string `yaml:"from" toml:"from" json:"from"`
	To   string `yaml:"to" toml:"to" json:"to"`
	// Connectivity is all_to_all (default), one_to_one or random.
	Connectivity string  `yaml:"connectivity" toml:"connectivity" json:"connectivity"`
	Probability  float64 `yaml:"probability" toml:"probability" json:"probability"`
	AllowSelf    bool    `yaml:"allow_self" toml:"allow_self" json:"allow_self"`
	Weight       float64 `yaml:"weight" toml:"weight" json:"weight"`
	// WeightSpread draws each initial weight uniformly from Weight ± WeightSpread.
	WeightSpread float64 `yaml:"weight_spread" toml:"weight_spread" json:"weight_spread"`
	MaxWeight    float64 `yaml:"max_weight" toml:"max_weight" json:"max_weight"`
	Delay        float64 `yaml:"delay" toml:"delay" json:"delay"`
	// Synapse is excitatory (default) or inhibitory.
	Synapse  string    `yaml:"synapse" toml:"synapse" json:"synapse"`
	Learning *Learning `yaml:"learning" toml:"learning" json:"learning"`
}

// Learning selects a plasticity rule for a projection.
type Learning struct {
	Rule                  string `yaml:"rule" toml:"rule" json:"rule"`
	plasticity.STDPConfig `yaml:",inline"`
	plasticity.SinConfig  `yaml:",inline"`
}

// Input drives a population with external spikes.
type Input struct {
	Name       string `yaml:"name" toml:"name" json:"name"`
	Population string `yaml:"population" toml:"population" json:"population"`
	// Process is poisson, gamma or file.
	Process string  `yaml:"process" toml:"process" json:"process"`
	Rate    float64 `yaml:"rate" toml:"rate" json:"rate"`
	CV      float64 `yaml:"cv" toml:"cv" json:"cv"`
	Start   float64 `yaml:"start" toml:"start" json:"start"`
	Stop    float64 `yaml:"stop" toml:"stop" json:"stop"`
	// File holds "time neuron" lines, neuron indices relative to the population.
	File string `yaml:"file" toml:"file" json:"file"`
}

// Valid value registries.
var (
	validConnectivity = map[string]bool{"": true, "all_to_all": true, "one_to_one": true, "random": true}
	validSynapses     = map[string]int{"": sim.SynapseExcitatory, "excitatory": sim.SynapseExcitatory, "inhibitory": sim.SynapseInhibitory}
	validRules        = map[string]bool{"stdp": true, "sin": true}
	validProcesses    = map[string]bool{"poisson": true, "gamma": true, "file": true}
)

// Load reads an experiment based on the file extension (.yaml/.yml, .toml,
// .json). Decoding is strict: unknown keys are rejected with their line.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sim.NewConnectionError(path, err)
	}
	var exp Experiment
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&exp); err != nil {
			return nil, sim.NewConfigurationError(path, yamlErrorLine(err), "parsing experiment: %v", err)
		}
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&exp); err != nil {
			return nil, sim.NewConfigurationError(path, tomlErrorLine(err), "parsing experiment: %v", err)
		}
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&exp); err != nil {
			return nil, sim.NewConfigurationError(path, jsonErrorLine(data, err), "parsing experiment: %v", err)
		}
	default:
		return nil, sim.NewConfigurationError(path, 0, "unsupported experiment extension %q (valid: .yaml, .yml, .toml, .json)", ext)
	}
	return &exp, nil
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

func yamlErrorLine(err error) int {
	m := yamlLine.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	line, _ := strconv.Atoi(m[1])
	return line
}

func tomlErrorLine(err error) int {
	var decErr *toml.DecodeError
	if errors.As(err, &decErr) {
		row, _ := decErr.Position()
		return row
	}
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) && len(strictErr.Errors) > 0 {
		row, _ := strictErr.Errors[0].Position()
		return row
	}
	return 0
}

func jsonErrorLine(data []byte, err error) int {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}

// Validate checks that every field is consistent before anything is built.
func (e *Experiment) Validate() error {
	s := e.Simulation
	if err := validateFinite("simulation.horizon", s.Horizon, true); err != nil {
		return err
	}
	if err := validateFinite("simulation.save_weight_step", s.SaveWeightStep, true); err != nil {
		return err
	}
	if s.SaveWeightStep > 0 && s.Horizon == 0 {
		return sim.NewConfigurationError("simulation", 0, "save_weight_step needs a horizon")
	}
	if len(e.Populations) == 0 {
		return sim.NewConfigurationError("populations", 0, "at least one population required")
	}

	names := make(map[string]Population, len(e.Populations))
	for i, p := range e.Populations {
		prefix := fmt.Sprintf("populations[%d]", i)
		if p.Name == "" {
			return sim.NewConfigurationError(prefix, 0, "name required")
		}
		if _, dup := names[p.Name]; dup {
			return sim.NewConfigurationError(prefix, 0, "duplicate population name %q", p.Name)
		}
		names[p.Name] = p
		if _, ok := modelKinds[p.Model]; !ok {
			return sim.NewConfigurationError(prefix, 0, "unknown model %q; valid: %s", p.Model, strings.Join(ModelKinds(), ", "))
		}
		if p.Count < 1 {
			return sim.NewConfigurationError(prefix, 0, "count must be >= 1, got %d", p.Count)
		}
		if p.Workers < 0 {
			return sim.NewConfigurationError(prefix, 0, "workers must be non-negative, got %d", p.Workers)
		}
		for name, val := range p.Params {
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return sim.NewConfigurationError(prefix, 0, "params.%s must be a finite number, got %f", name, val)
			}
		}
		if !modelKinds[p.Model].timeDriven && (p.Step != 0 || p.Method != "" || p.Workers != 0) {
			return sim.NewConfigurationError(prefix, 0, "step, method and workers apply to time-driven models only")
		}
		if modelKinds[p.Model].timeDriven && s.Horizon == 0 {
			return sim.NewConfigurationError(prefix, 0, "time-driven model %q needs simulation.horizon", p.Model)
		}
	}

	for i, pr := range e.Projections {
		if err := validateProjection(&pr, i, names); err != nil {
			return err
		}
	}
	for i, in := range e.Inputs {
		if err := validateInput(&in, i, names, s.Horizon); err != nil {
			return err
		}
	}
	return nil
}

func validateProjection(pr *Projection, idx int, pops map[string]Population) error {
	prefix := fmt.Sprintf("projections[%d]", idx)
	from, ok := pops[pr.From]
	if !ok {
		return sim.NewConfigurationError(prefix, 0, "unknown source population %q", pr.From)
	}
	to, ok := pops[pr.To]
	if !ok {
		return sim.NewConfigurationError(prefix, 0, "unknown target population %q", pr.To)
	}
	if !validConnectivity[pr.Connectivity] {
		return sim.NewConfigurationError(prefix, 0, "unknown connectivity %q; valid: all_to_all, one_to_one, random", pr.Connectivity)
	}
	if pr.Connectivity == "one_to_one" && from.Count != to.Count {
		return sim.NewConfigurationError(prefix, 0, "one_to_one needs equal counts, got %d and %d", from.Count, to.Count)
	}
	if pr.Connectivity == "random" && (pr.Probability <= 0 || pr.Probability > 1) {
		return sim.NewConfigurationError(prefix, 0, "probability must be in (0, 1], got %f", pr.Probability)
	}
	if _, ok := validSynapses[pr.Synapse]; !ok {
		return sim.NewConfigurationError(prefix, 0, "unknown synapse %q; valid: excitatory, inhibitory", pr.Synapse)
	}
	if err := validateFinite(prefix+".delay", pr.Delay, false); err != nil {
		return err
	}
	if err := validateFinite(prefix+".weight", pr.Weight, true); err != nil {
		return err
	}
	if err := validateFinite(prefix+".weight_spread", pr.WeightSpread, true); err != nil {
		return err
	}
	if err := validateFinite(prefix+".max_weight", pr.MaxWeight, true); err != nil {
		return err
	}
	if pr.MaxWeight > 0 && pr.Weight+pr.WeightSpread > pr.MaxWeight {
		return sim.NewConfigurationError(prefix, 0, "weight %g ± %g exceeds max_weight %g", pr.Weight, pr.WeightSpread, pr.MaxWeight)
	}
	if pr.Learning != nil && !validRules[pr.Learning.Rule] {
		return sim.NewConfigurationError(prefix, 0, "unknown learning rule %q; valid: stdp, sin", pr.Learning.Rule)
	}
	return nil
}

func validateInput(in *Input, idx int, pops map[string]Population, horizon float64) error {
	prefix := fmt.Sprintf("inputs[%d]", idx)
	if in.Name == "" {
		return sim.NewConfigurationError(prefix, 0, "name required")
	}
	pop, ok := pops[in.Population]
	if !ok {
		return sim.NewConfigurationError(prefix, 0, "unknown population %q", in.Population)
	}
	if pop.Model != "input" {
		return sim.NewConfigurationError(prefix, 0, "population %q has model %q; inputs drive input populations only", in.Population, pop.Model)
	}
	if !validProcesses[in.Process] {
		return sim.NewConfigurationError(prefix, 0, "unknown process %q; valid: poisson, gamma, file", in.Process)
	}
	if in.Process == "file" {
		if in.File == "" {
			return sim.NewConfigurationError(prefix, 0, "file required for process file")
		}
		return nil
	}
	if err := validateFinite(prefix+".rate", in.Rate, false); err != nil {
		return err
	}
	if err := validateFinite(prefix+".start", in.Start, true); err != nil {
		return err
	}
	if err := validateFinite(prefix+".stop", in.Stop, true); err != nil {
		return err
	}
	if in.Stop > 0 && in.Stop <= in.Start {
		return sim.NewConfigurationError(prefix, 0, "stop (%g) must be after start (%g)", in.Stop, in.Start)
	}
	if in.Stop == 0 && horizon == 0 {
		return sim.NewConfigurationError(prefix, 0, "%s input never ends; set stop or simulation.horizon", in.Process)
	}
	return nil
}

// validateFinite rejects NaN, Inf and negative values, and zero unless allowZero.
func validateFinite(name string, val float64, allowZero bool) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return sim.NewConfigurationError(name, 0, "must be a finite number, got %f", val)
	}
	if val < 0 || (!allowZero && val == 0) {
		return sim.NewConfigurationError(name, 0, "must be positive, got %f", val)
	}
	return nil
}
