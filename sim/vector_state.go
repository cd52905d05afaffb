package sim

import (
	"fmt"
	"math"
)

// VectorNeuronState holds the state of every neuron that shares one model,
// laid out struct-of-arrays: variable j of all neurons is contiguous, so the
// value of variable j for neuron i lives at Values()[j*Size()+i].
// This is the layout the batch integrators stride over.
type VectorNeuronState struct {
	numVars int
	size    int
	values  []float64

	lastUpdate     []float64 // time the state was last brought up to date
	lastSpike      []float64 // time of the last accepted firing (-Inf if none)
	predictedSpike []float64 // time of the pending predicted firing (+Inf if none)
}

// NewVectorNeuronState creates a state container with numVars variables per neuron.
// Panics if numVars < 1.
func NewVectorNeuronState(numVars int) *VectorNeuronState {
	if numVars < 1 {
		panic(fmt.Sprintf("NewVectorNeuronState: numVars must be >= 1, got %d", numVars))
	}
	return &VectorNeuronState{numVars: numVars}
}

// Initialize allocates storage for size neurons, each starting at initial
// (len(initial) must equal the number of state variables).
func (vs *VectorNeuronState) Initialize(size int, initial []float64) {
	if len(initial) != vs.numVars {
		panic(fmt.Sprintf("VectorNeuronState.Initialize: got %d initial values, want %d", len(initial), vs.numVars))
	}
	vs.size = size
	vs.values = make([]float64, vs.numVars*size)
	for j, v := range initial {
		row := vs.values[j*size : (j+1)*size]
		for i := range row {
			row[i] = v
		}
	}
	vs.lastUpdate = make([]float64, size)
	vs.lastSpike = make([]float64, size)
	vs.predictedSpike = make([]float64, size)
	for i := 0; i < size; i++ {
		vs.lastSpike[i] = math.Inf(-1)
		vs.predictedSpike[i] = math.Inf(1)
	}
}

// Size returns the number of neurons.
func (vs *VectorNeuronState) Size() int { return vs.size }

// NumStateVariables returns the number of variables per neuron.
func (vs *VectorNeuronState) NumStateVariables() int { return vs.numVars }

// Values exposes the flat variable-major array. Integrators mutate it in place.
func (vs *VectorNeuronState) Values() []float64 { return vs.values }

// StateVariableAt returns variable v of neuron i.
func (vs *VectorNeuronState) StateVariableAt(i, v int) float64 {
	return vs.values[v*vs.size+i]
}

// SetStateVariableAt sets variable v of neuron i.
func (vs *VectorNeuronState) SetStateVariableAt(i, v int, x float64) {
	vs.values[v*vs.size+i] = x
}

// LastUpdateTime returns the time neuron i was last advanced to.
func (vs *VectorNeuronState) LastUpdateTime(i int) float64 { return vs.lastUpdate[i] }

// SetLastUpdateTime records that neuron i is up to date at t.
func (vs *VectorNeuronState) SetLastUpdateTime(i int, t float64) { vs.lastUpdate[i] = t }

// NewFiredSpike records an accepted firing of neuron i at t.
func (vs *VectorNeuronState) NewFiredSpike(i int, t float64) { vs.lastSpike[i] = t }

// LastSpikeTime returns the time of the last accepted firing of neuron i.
func (vs *VectorNeuronState) LastSpikeTime(i int) float64 { return vs.lastSpike[i] }

// PredictedSpikeTime returns the pending predicted firing of neuron i (+Inf if none).
func (vs *VectorNeuronState) PredictedSpikeTime(i int) float64 { return vs.predictedSpike[i] }

// SetPredictedSpikeTime replaces the pending prediction for neuron i.
// Any previously scheduled spike with a different time becomes stale.
func (vs *VectorNeuronState) SetPredictedSpikeTime(i int, t float64) { vs.predictedSpike[i] = t }

// ClearPredictedSpike drops the pending prediction for neuron i.
func (vs *VectorNeuronState) ClearPredictedSpike(i int) { vs.predictedSpike[i] = math.Inf(1) }

// IsRefractory reports whether neuron i is within refractory of its last spike at t.
func (vs *VectorNeuronState) IsRefractory(i int, t, refractory float64) bool {
	return t-vs.lastSpike[i] < refractory
}
