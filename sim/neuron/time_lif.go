package neuron

import (
	"github.com/hybridsim/hybridsim/sim"
)

// TimeLIFConfig parameterises the conductance-based LIF model.
type TimeLIFConfig struct {
	StepConfig `yaml:",inline"`

	EExc       float64 `yaml:"e_exc" toml:"e_exc" json:"e_exc"`
	EInh       float64 `yaml:"e_inh" toml:"e_inh" json:"e_inh"`
	ELeak      float64 `yaml:"e_leak" toml:"e_leak" json:"e_leak"`
	GLeak      float64 `yaml:"g_leak" toml:"g_leak" json:"g_leak"`
	Cm         float64 `yaml:"c_m" toml:"c_m" json:"c_m"`
	Threshold  float64 `yaml:"threshold" toml:"threshold" json:"threshold"`
	TauExc     float64 `yaml:"tau_exc" toml:"tau_exc" json:"tau_exc"`
	TauInh     float64 `yaml:"tau_inh" toml:"tau_inh" json:"tau_inh"`
	Refractory float64 `yaml:"refractory" toml:"refractory" json:"refractory"`
}

// DefaultTimeLIFConfig returns a cerebellar granule-like cell.
func DefaultTimeLIFConfig() TimeLIFConfig {
	return TimeLIFConfig{
		StepConfig: DefaultStepConfig(),
		EExc:       0, EInh: -80, ELeak: -65,
		GLeak: 0.2, Cm: 2, Threshold: -50,
		TauExc: 5, TauInh: 10, Refractory: 1,
	}
}

// TimeLIF is a leaky integrate-and-fire neuron with exponentially decaying
// excitatory and inhibitory conductances (weights in nS):
//
//	Cm dV/dt = gExc (EExc - V) + gInh (EInh - V) + GLeak (ELeak - V)
//
// V is integrated; the conductances decay in closed form. On crossing
// Threshold the membrane is reset to ELeak and held there for Refractory.
// State variables: V, gExc, gInh.
type TimeLIF struct {
	timeDriven
	cfg TimeLIFConfig
}

var _ sim.TimeDrivenNeuronModel = (*TimeLIF)(nil)

// NewTimeLIF validates cfg and creates a population model named id.
func NewTimeLIF(id string, cfg TimeLIFConfig) (*TimeLIF, error) {
	if err := cfg.StepConfig.validate(id); err != nil {
		return nil, err
	}
	if err := checkPositive(id, map[string]float64{
		"g_leak": cfg.GLeak, "c_m": cfg.Cm, "tau_exc": cfg.TauExc, "tau_inh": cfg.TauInh,
	}); err != nil {
		return nil, err
	}
	if err := checkFinite(id, map[string]float64{
		"e_exc": cfg.EExc, "e_inh": cfg.EInh, "e_leak": cfg.ELeak,
		"threshold": cfg.Threshold, "refractory": cfg.Refractory,
	}); err != nil {
		return nil, err
	}
	if cfg.Threshold <= cfg.ELeak {
		return nil, sim.NewConfigurationError(id, 0, "threshold (%g) must be above e_leak (%g)", cfg.Threshold, cfg.ELeak)
	}
	m := &TimeLIF{cfg: cfg}
	m.timeDriven = timeDriven{
		population: newPopulation(id, 3),
		eq:         m,
		step:       cfg.StepConfig,
		refractory: cfg.Refractory,
		gExc:       1,
	}
	return m, nil
}

// InitializeStates starts every neuron at rest without conductance.
func (m *TimeLIF) InitializeStates(n int) error {
	return m.initialize(n, []float64{m.cfg.ELeak, 0, 0})
}

func (m *TimeLIF) NumStateVariables() int        { return 3 }
func (m *TimeLIF) NumDifferentialVariables() int { return 1 }

func (m *TimeLIF) EvaluateDifferential(i, stride int, state, deriv []float64) {
	v := state[i]
	gExc, gInh := state[stride+i], state[2*stride+i]
	c := &m.cfg
	deriv[i] = (gExc*(c.EExc-v) + gInh*(c.EInh-v) + c.GLeak*(c.ELeak-v)) / c.Cm
}

func (m *TimeLIF) EvaluateTimeDependent(i, stride int, state []float64, h float64) {
	decayConductances(i, stride, 1, state, h, m.cfg.TauExc, m.cfg.TauInh)
}

func (m *TimeLIF) fired(i int) bool { return m.state.StateVariableAt(i, 0) >= m.cfg.Threshold }
func (m *TimeLIF) reset(i int)      { m.state.SetStateVariableAt(i, 0, m.cfg.ELeak) }
func (m *TimeLIF) hold(i int)       { m.state.SetStateVariableAt(i, 0, m.cfg.ELeak) }
