// Package neuron provides the concrete neuron models: the event-driven
// leaky integrate-and-fire and input models, and the time-driven
// conductance LIF and Izhikevich models.
//
// Units throughout: ms, mV, nS, pF (so nS*mV/pF = mV/ms).
package neuron

import (
	"math"

	"github.com/hybridsim/hybridsim/sim"
)

// population holds what every model shares: its identifier and the batched state.
type population struct {
	id    string
	state *sim.VectorNeuronState
}

func newPopulation(id string, numVars int) population {
	return population{id: id, state: sim.NewVectorNeuronState(numVars)}
}

func (p *population) ModelID() string { return p.id }

func (p *population) VectorNeuronState() *sim.VectorNeuronState { return p.state }

// checkFinite returns a configuration error for the first non-finite value.
func checkFinite(model string, fields map[string]float64) error {
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return sim.NewConfigurationError(model, 0, "%s must be finite, got %g", name, v)
		}
	}
	return nil
}

func checkPositive(model string, fields map[string]float64) error {
	for name, v := range fields {
		if !(v > 0) || math.IsInf(v, 0) {
			return sim.NewConfigurationError(model, 0, "%s must be positive and finite, got %g", name, v)
		}
	}
	return nil
}
