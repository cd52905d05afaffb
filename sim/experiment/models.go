package experiment

import (
	"sort"
	"strings"

	"github.com/hybridsim/hybridsim/sim"
	"github.com/hybridsim/hybridsim/sim/neuron"
)

type modelKind struct {
	timeDriven bool
	build      func(p Population) (sim.NeuronModel, error)
}

var modelKinds = map[string]modelKind{
	"event_lif": {build: buildEventLIF},
	"input": {build: func(p Population) (sim.NeuronModel, error) {
		if err := applyParams(p, nil); err != nil {
			return nil, err
		}
		return neuron.NewInput(p.Name), nil
	}},
	"time_lif":   {timeDriven: true, build: buildTimeLIF},
	"izhikevich": {timeDriven: true, build: buildIzhikevich},
}

// ModelKinds returns the model names accepted in populations, sorted.
func ModelKinds() []string {
	kinds := make([]string, 0, len(modelKinds))
	for k := range modelKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func buildEventLIF(p Population) (sim.NeuronModel, error) {
	cfg := neuron.DefaultEventLIFConfig()
	if err := applyParams(p, map[string]*float64{
		"tau_m": &cfg.TauM, "v_rest": &cfg.VRest, "v_reset": &cfg.VReset,
		"threshold": &cfg.Threshold, "refractory": &cfg.Refractory, "bias": &cfg.Bias,
	}); err != nil {
		return nil, err
	}
	return neuron.NewEventLIF(p.Name, cfg)
}

func buildTimeLIF(p Population) (sim.NeuronModel, error) {
	cfg := neuron.DefaultTimeLIFConfig()
	applyStep(p, &cfg.StepConfig)
	if err := applyParams(p, map[string]*float64{
		"e_exc": &cfg.EExc, "e_inh": &cfg.EInh, "e_leak": &cfg.ELeak,
		"g_leak": &cfg.GLeak, "c_m": &cfg.Cm, "threshold": &cfg.Threshold,
		"tau_exc": &cfg.TauExc, "tau_inh": &cfg.TauInh, "refractory": &cfg.Refractory,
	}); err != nil {
		return nil, err
	}
	return neuron.NewTimeLIF(p.Name, cfg)
}

func buildIzhikevich(p Population) (sim.NeuronModel, error) {
	cfg := neuron.DefaultIzhikevichConfig()
	applyStep(p, &cfg.StepConfig)
	if err := applyParams(p, map[string]*float64{
		"a": &cfg.A, "b": &cfg.B, "c": &cfg.C, "d": &cfg.D, "v_peak": &cfg.VPeak,
		"e_exc": &cfg.EExc, "e_inh": &cfg.EInh, "tau_exc": &cfg.TauExc, "tau_inh": &cfg.TauInh,
		"bias": &cfg.Bias, "refractory": &cfg.Refractory,
	}); err != nil {
		return nil, err
	}
	return neuron.NewIzhikevich(p.Name, cfg)
}

func applyStep(p Population, step *neuron.StepConfig) {
	if p.Step > 0 {
		step.StepSize = p.Step
	}
	if p.Method != "" {
		step.Method = p.Method
	}
	if p.Workers > 0 {
		step.Workers = p.Workers
	}
}

// applyParams writes p.Params into the named fields, rejecting unknown names.
func applyParams(p Population, fields map[string]*float64) error {
	for name, val := range p.Params {
		f, ok := fields[name]
		if !ok {
			valid := make([]string, 0, len(fields))
			for k := range fields {
				valid = append(valid, k)
			}
			sort.Strings(valid)
			return sim.NewConfigurationError(p.Name, 0, "unknown parameter %q for model %s; valid: %s", name, p.Model, strings.Join(valid, ", "))
		}
		*f = val
	}
	return nil
}

// SetWorkers bounds the batch lanes of every time-driven population.
func (e *Experiment) SetWorkers(n int) {
	for i, p := range e.Populations {
		if modelKinds[p.Model].timeDriven {
			e.Populations[i].Workers = n
		}
	}
}

// IsTimeDriven reports whether model names a time-driven model kind.
func IsTimeDriven(model string) bool {
	return modelKinds[model].timeDriven
}
