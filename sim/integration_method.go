package sim

// DifferentialEquations is the per-neuron system a time-driven model exposes to
// its integration method. State variables [0, NumDifferentialVariables()) are
// advanced by the integrator; the rest have closed-form time dependence and are
// evaluated directly by EvaluateTimeDependent.
//
// Both evaluators use strided access: variable j of the neuron at index lives at
// state[j*stride+index]. The CPU path passes the population's VectorNeuronState
// (stride = population size); batch integrators pass their scratch buffers.
type DifferentialEquations interface {
	NumStateVariables() int
	NumDifferentialVariables() int
	// EvaluateDifferential writes d(state)/dt of the differential variables into
	// deriv, using the same index/stride layout as state.
	EvaluateDifferential(index, stride int, state, deriv []float64)
	// EvaluateTimeDependent advances the time-dependent variables by elapsed in place.
	EvaluateTimeDependent(index, stride int, state []float64, elapsed float64)
}

// IntegrationMethod advances the differential variables of one neuron of a
// batched state by a fixed elapsed time.
//
// Integrators do not detect numerical instability; choosing a stable step size
// is the caller's responsibility.
type IntegrationMethod interface {
	Name() string
	// Advance integrates neuron index of state by elapsed, in place. Time-dependent
	// variables are updated too, as part of the step.
	Advance(index int, state *VectorNeuronState, elapsed float64)
	// ResetState clears any per-neuron history (multi-step methods), e.g. after
	// the neuron's state is reset on firing. No-op for single-step methods.
	ResetState(index int)
}

// BatchIntegrationMethod advances a whole population per call as a data-parallel map.
// AdvanceBatch blocks until every lane has finished the step.
type BatchIntegrationMethod interface {
	IntegrationMethod
	AdvanceBatch(state *VectorNeuronState, elapsed float64) error
}
