package neuron

import "github.com/hybridsim/hybridsim/sim"

// Input is the model of neurons driven only by external spike sources.
// It has no dynamics: it never predicts a firing and ignores synaptic input.
type Input struct {
	population
}

var (
	_ sim.EventDrivenNeuronModel = (*Input)(nil)
	_ sim.ExternalInputModel     = (*Input)(nil)
)

// NewInput creates an input population model named id.
func NewInput(id string) *Input {
	return &Input{population: newPopulation(id, 1)}
}

func (m *Input) ModelType() sim.ModelType { return sim.EventDrivenModel }

func (m *Input) InitializeStates(n int) error {
	m.state.Initialize(n, []float64{0})
	return nil
}

func (m *Input) ProcessInputSpike(*sim.Interconnection, float64) *sim.InternalSpike { return nil }

func (m *Input) DiscardSpike(*sim.InternalSpike) bool { return false }

func (m *Input) GenerateNextSpike(*sim.InternalSpike) *sim.InternalSpike { return nil }

func (m *Input) GenerateInitialSpike(*sim.Neuron) *sim.InternalSpike { return nil }

// ProcessExternalSpike records the firing forced by a spike source.
func (m *Input) ProcessExternalSpike(n *sim.Neuron, t float64) {
	m.state.NewFiredSpike(n.StateIndex(), t)
	m.state.SetLastUpdateTime(n.StateIndex(), t)
}
