package neuron

import (
	"fmt"
	"math"

	"github.com/hybridsim/hybridsim/sim"
	"github.com/hybridsim/hybridsim/sim/integration"
)

// StepConfig selects how a time-driven population is integrated.
type StepConfig struct {
	StepSize float64 `yaml:"step" toml:"step" json:"step"`
	Method   string  `yaml:"method" toml:"method" json:"method"`
	// Workers bounds the lanes of the batch methods.
	Workers int `yaml:"workers" toml:"workers" json:"workers"`
}

// DefaultStepConfig returns a 0.1 ms RK2 step.
func DefaultStepConfig() StepConfig {
	return StepConfig{StepSize: 0.1, Method: "rk2", Workers: 1}
}

func (c StepConfig) validate(model string) error {
	if err := checkPositive(model, map[string]float64{"step": c.StepSize}); err != nil {
		return err
	}
	if !integration.IsValidMethod(c.Method) {
		return sim.NewConfigurationError(model, 0, "unknown integration method %q (valid: %v)", c.Method, integration.ValidMethodNames())
	}
	return nil
}

// spiking is what the shared stepper needs from a concrete time-driven model.
type spiking interface {
	sim.DifferentialEquations
	// fired reports whether neuron i crossed threshold after the step.
	fired(i int) bool
	// reset applies the post-spike reset to neuron i.
	reset(i int)
	// hold clamps neuron i during its refractory period.
	hold(i int)
}

// timeDriven implements the stepping, firing detection and conductance input
// shared by the time-driven models. Variables 0..nd-1 are integrated; the
// excitatory and inhibitory conductances are the time-dependent variables
// at gExc and gExc+1.
type timeDriven struct {
	population
	eq         spiking
	step       StepConfig
	refractory float64
	gExc       int

	method  sim.IntegrationMethod
	batch   sim.BatchIntegrationMethod
	neurons []*sim.Neuron
	last    float64
}

func (m *timeDriven) ModelType() sim.ModelType { return sim.TimeDrivenModel }

func (m *timeDriven) StepSize() float64 { return m.step.StepSize }

func (m *timeDriven) IntegrationMethod() sim.IntegrationMethod { return m.method }

func (m *timeDriven) BindNeurons(neurons []*sim.Neuron) { m.neurons = neurons }

func (m *timeDriven) initialize(n int, initial []float64) error {
	m.state.Initialize(n, initial)
	method, err := integration.New(m.step.Method, m.eq, n, m.step.Workers)
	if err != nil {
		return err
	}
	m.method = method
	m.batch, _ = method.(sim.BatchIntegrationMethod)
	return nil
}

// ProcessInputSpike adds the weight to the target's conductance of the
// connection's type. The jump takes effect at the next step.
func (m *timeDriven) ProcessInputSpike(conn *sim.Interconnection, _ float64) *sim.InternalSpike {
	i := conn.Target().StateIndex()
	v := m.gExc
	if conn.Type() == sim.SynapseInhibitory {
		v++
	}
	m.state.SetStateVariableAt(i, v, m.state.StateVariableAt(i, v)+conn.Weight)
	return nil
}

// UpdateState advances the whole population to now.
func (m *timeDriven) UpdateState(now float64) ([]*sim.InternalSpike, error) {
	if len(m.neurons) != m.state.Size() {
		return nil, fmt.Errorf("%d neurons bound to a population of %d", len(m.neurons), m.state.Size())
	}
	h := now - m.last
	if h <= 0 {
		return nil, fmt.Errorf("step to %g does not move past %g", now, m.last)
	}
	m.last = now

	if m.batch != nil {
		if err := m.batch.AdvanceBatch(m.state, h); err != nil {
			return nil, err
		}
	} else {
		for i := 0; i < m.state.Size(); i++ {
			m.method.Advance(i, m.state, h)
		}
	}

	var spikes []*sim.InternalSpike
	for i := 0; i < m.state.Size(); i++ {
		m.state.SetLastUpdateTime(i, now)
		if m.state.IsRefractory(i, now, m.refractory) {
			m.eq.hold(i)
			continue
		}
		if m.eq.fired(i) {
			m.eq.reset(i)
			m.method.ResetState(i)
			m.state.NewFiredSpike(i, now)
			spikes = append(spikes, sim.NewInternalSpike(now, m.neurons[i]))
		}
	}
	return spikes, nil
}

// decayConductances is the closed-form part shared by both models.
func decayConductances(i, stride, gExc int, state []float64, h, tauExc, tauInh float64) {
	state[gExc*stride+i] *= math.Exp(-h / tauExc)
	state[(gExc+1)*stride+i] *= math.Exp(-h / tauInh)
}
