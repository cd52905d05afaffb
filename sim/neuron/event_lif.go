package neuron

import (
	"math"

	"github.com/hybridsim/hybridsim/sim"
)

// EventLIFConfig parameterises the event-driven leaky integrate-and-fire model.
type EventLIFConfig struct {
	TauM       float64 `yaml:"tau_m" toml:"tau_m" json:"tau_m"`
	VRest      float64 `yaml:"v_rest" toml:"v_rest" json:"v_rest"`
	VReset     float64 `yaml:"v_reset" toml:"v_reset" json:"v_reset"`
	Threshold  float64 `yaml:"threshold" toml:"threshold" json:"threshold"`
	Refractory float64 `yaml:"refractory" toml:"refractory" json:"refractory"`
	// Bias shifts the resting potential the membrane relaxes to.
	// A bias that lifts it above threshold makes the neuron fire tonically.
	Bias float64 `yaml:"bias" toml:"bias" json:"bias"`
}

// DefaultEventLIFConfig returns a quiescent neuron with a 15 mV firing margin.
func DefaultEventLIFConfig() EventLIFConfig {
	return EventLIFConfig{TauM: 10, VRest: -65, VReset: -65, Threshold: -50, Refractory: 2}
}

// EventLIF is a leaky integrate-and-fire neuron whose synaptic inputs are
// instantaneous voltage jumps (weight in mV, inhibitory jumps are negative).
// Between inputs the membrane relaxes in closed form
//
//	V(t) = Vinf + (V0 - Vinf) e^(-t/TauM),  Vinf = VRest + Bias
//
// so the next firing time is known exactly and no stepping is needed. Inputs
// arriving during the refractory period are ignored.
type EventLIF struct {
	population
	cfg  EventLIFConfig
	vInf float64
}

var _ sim.EventDrivenNeuronModel = (*EventLIF)(nil)

// NewEventLIF validates cfg and creates a population model named id.
func NewEventLIF(id string, cfg EventLIFConfig) (*EventLIF, error) {
	if err := checkPositive(id, map[string]float64{"tau_m": cfg.TauM}); err != nil {
		return nil, err
	}
	if err := checkFinite(id, map[string]float64{
		"v_rest": cfg.VRest, "v_reset": cfg.VReset, "threshold": cfg.Threshold,
		"refractory": cfg.Refractory, "bias": cfg.Bias,
	}); err != nil {
		return nil, err
	}
	if cfg.Refractory < 0 {
		return nil, sim.NewConfigurationError(id, 0, "refractory must be >= 0, got %g", cfg.Refractory)
	}
	if cfg.VReset >= cfg.Threshold {
		return nil, sim.NewConfigurationError(id, 0, "v_reset (%g) must be below threshold (%g)", cfg.VReset, cfg.Threshold)
	}
	return &EventLIF{population: newPopulation(id, 1), cfg: cfg, vInf: cfg.VRest + cfg.Bias}, nil
}

func (m *EventLIF) ModelType() sim.ModelType { return sim.EventDrivenModel }

// InitializeStates starts every neuron at rest at t=0.
func (m *EventLIF) InitializeStates(n int) error {
	m.state.Initialize(n, []float64{m.cfg.VRest})
	return nil
}

// Membrane returns the potential of neuron i at t >= its last update time,
// without modifying the state.
func (m *EventLIF) Membrane(i int, t float64) float64 {
	v, _ := m.membraneAt(i, t)
	return v
}

// membraneAt evolves neuron i to t and reports whether it is refractory at t.
func (m *EventLIF) membraneAt(i int, t float64) (float64, bool) {
	last := m.state.LastUpdateTime(i)
	v := m.state.StateVariableAt(i, 0)
	refrEnd := m.state.LastSpikeTime(i) + m.cfg.Refractory
	if refrEnd > last {
		if t < refrEnd {
			return m.cfg.VReset, true
		}
		v, last = m.cfg.VReset, refrEnd
	}
	return m.vInf + (v-m.vInf)*math.Exp(-(t-last)/m.cfg.TauM), false
}

// firingTime returns the first time at or after t0 the membrane, starting at
// v0, reaches threshold, or +Inf.
func (m *EventLIF) firingTime(t0, v0 float64) float64 {
	if v0 >= m.cfg.Threshold {
		return t0
	}
	if m.vInf <= m.cfg.Threshold {
		return math.Inf(1)
	}
	return t0 + m.cfg.TauM*math.Log((m.vInf-v0)/(m.vInf-m.cfg.Threshold))
}

// predict stores and returns the next firing of n as seen from t.
func (m *EventLIF) predict(n *sim.Neuron, t float64) *sim.InternalSpike {
	i := n.StateIndex()
	t0, v0 := t, m.state.StateVariableAt(i, 0)
	if refrEnd := m.state.LastSpikeTime(i) + m.cfg.Refractory; refrEnd > t {
		t0, v0 = refrEnd, m.cfg.VReset
	}
	ft := m.firingTime(t0, v0)
	if math.IsInf(ft, 1) {
		m.state.ClearPredictedSpike(i)
		return nil
	}
	m.state.SetPredictedSpikeTime(i, ft)
	return sim.NewInternalSpike(ft, n)
}

// ProcessInputSpike brings the target up to t, applies the voltage jump and
// re-predicts its firing. The previous prediction, if any, becomes stale.
func (m *EventLIF) ProcessInputSpike(conn *sim.Interconnection, t float64) *sim.InternalSpike {
	n := conn.Target()
	i := n.StateIndex()
	v, refractory := m.membraneAt(i, t)
	if !refractory {
		if conn.Type() == sim.SynapseInhibitory {
			v -= conn.Weight
		} else {
			v += conn.Weight
		}
	}
	m.state.SetStateVariableAt(i, 0, v)
	m.state.SetLastUpdateTime(i, t)
	return m.predict(n, t)
}

// DiscardSpike reports whether spike is no longer the neuron's pending prediction.
func (m *EventLIF) DiscardSpike(spike *sim.InternalSpike) bool {
	return spike.Time() != m.state.PredictedSpikeTime(spike.Source().StateIndex())
}

// GenerateNextSpike resets the neuron that fired and predicts its next firing
// from the end of the refractory period.
func (m *EventLIF) GenerateNextSpike(spike *sim.InternalSpike) *sim.InternalSpike {
	n := spike.Source()
	i := n.StateIndex()
	m.state.SetStateVariableAt(i, 0, m.cfg.VReset)
	m.state.SetLastUpdateTime(i, spike.Time())
	return m.predict(n, spike.Time())
}

// GenerateInitialSpike predicts the first firing from the resting state.
func (m *EventLIF) GenerateInitialSpike(n *sim.Neuron) *sim.InternalSpike {
	return m.predict(n, 0)
}
