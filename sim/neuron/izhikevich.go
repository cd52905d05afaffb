package neuron

import (
	"github.com/hybridsim/hybridsim/sim"
)

// IzhikevichConfig parameterises the Izhikevich model. A, B, C, D are the
// usual recovery rate, sensitivity, reset potential and reset increment.
type IzhikevichConfig struct {
	StepConfig `yaml:",inline"`

	A      float64 `yaml:"a" toml:"a" json:"a"`
	B      float64 `yaml:"b" toml:"b" json:"b"`
	C      float64 `yaml:"c" toml:"c" json:"c"`
	D      float64 `yaml:"d" toml:"d" json:"d"`
	VPeak  float64 `yaml:"v_peak" toml:"v_peak" json:"v_peak"`
	EExc   float64 `yaml:"e_exc" toml:"e_exc" json:"e_exc"`
	EInh   float64 `yaml:"e_inh" toml:"e_inh" json:"e_inh"`
	TauExc float64 `yaml:"tau_exc" toml:"tau_exc" json:"tau_exc"`
	TauInh float64 `yaml:"tau_inh" toml:"tau_inh" json:"tau_inh"`
	// Bias is a constant input current.
	Bias       float64 `yaml:"bias" toml:"bias" json:"bias"`
	Refractory float64 `yaml:"refractory" toml:"refractory" json:"refractory"`
}

// DefaultIzhikevichConfig returns a regular-spiking cortical cell.
func DefaultIzhikevichConfig() IzhikevichConfig {
	return IzhikevichConfig{
		StepConfig: DefaultStepConfig(),
		A:          0.02, B: 0.2, C: -65, D: 8, VPeak: 30,
		EExc: 0, EInh: -80, TauExc: 5, TauInh: 10,
	}
}

// Izhikevich is the two-variable quadratic model
//
//	dv/dt = 0.04 v^2 + 5 v + 140 - u + I
//	du/dt = A (B v - u)
//
// with I = gExc (EExc - v) + gInh (EInh - v) + Bias. On reaching VPeak,
// v is reset to C and u incremented by D. State variables: v, u, gExc, gInh.
type Izhikevich struct {
	timeDriven
	cfg IzhikevichConfig
}

var _ sim.TimeDrivenNeuronModel = (*Izhikevich)(nil)

// NewIzhikevich validates cfg and creates a population model named id.
func NewIzhikevich(id string, cfg IzhikevichConfig) (*Izhikevich, error) {
	if err := cfg.StepConfig.validate(id); err != nil {
		return nil, err
	}
	if err := checkPositive(id, map[string]float64{"tau_exc": cfg.TauExc, "tau_inh": cfg.TauInh}); err != nil {
		return nil, err
	}
	if err := checkFinite(id, map[string]float64{
		"a": cfg.A, "b": cfg.B, "c": cfg.C, "d": cfg.D, "v_peak": cfg.VPeak,
		"e_exc": cfg.EExc, "e_inh": cfg.EInh, "bias": cfg.Bias, "refractory": cfg.Refractory,
	}); err != nil {
		return nil, err
	}
	if cfg.C >= cfg.VPeak {
		return nil, sim.NewConfigurationError(id, 0, "reset c (%g) must be below v_peak (%g)", cfg.C, cfg.VPeak)
	}
	m := &Izhikevich{cfg: cfg}
	m.timeDriven = timeDriven{
		population: newPopulation(id, 4),
		eq:         m,
		step:       cfg.StepConfig,
		refractory: cfg.Refractory,
		gExc:       2,
	}
	return m, nil
}

// InitializeStates starts every neuron at v = C, u = B*C.
func (m *Izhikevich) InitializeStates(n int) error {
	return m.initialize(n, []float64{m.cfg.C, m.cfg.B * m.cfg.C, 0, 0})
}

func (m *Izhikevich) NumStateVariables() int        { return 4 }
func (m *Izhikevich) NumDifferentialVariables() int { return 2 }

func (m *Izhikevich) EvaluateDifferential(i, stride int, state, deriv []float64) {
	v, u := state[i], state[stride+i]
	gExc, gInh := state[2*stride+i], state[3*stride+i]
	c := &m.cfg
	current := gExc*(c.EExc-v) + gInh*(c.EInh-v) + c.Bias
	deriv[i] = 0.04*v*v + 5*v + 140 - u + current
	deriv[stride+i] = c.A * (c.B*v - u)
}

func (m *Izhikevich) EvaluateTimeDependent(i, stride int, state []float64, h float64) {
	decayConductances(i, stride, 2, state, h, m.cfg.TauExc, m.cfg.TauInh)
}

func (m *Izhikevich) fired(i int) bool { return m.state.StateVariableAt(i, 0) >= m.cfg.VPeak }

func (m *Izhikevich) reset(i int) {
	m.state.SetStateVariableAt(i, 0, m.cfg.C)
	m.state.SetStateVariableAt(i, 1, m.state.StateVariableAt(i, 1)+m.cfg.D)
}

func (m *Izhikevich) hold(i int) { m.state.SetStateVariableAt(i, 0, m.cfg.C) }
