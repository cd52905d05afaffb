package sim

// ModelType distinguishes how a neuron model advances in time.
type ModelType int

const (
	// EventDrivenModel predicts firing times analytically; no stepping between spikes.
	EventDrivenModel ModelType = iota
	// TimeDrivenModel is integrated numerically at a fixed step.
	TimeDrivenModel
)

func (t ModelType) String() string {
	switch t {
	case EventDrivenModel:
		return "event-driven"
	case TimeDrivenModel:
		return "time-driven"
	}
	return "unknown"
}

// NeuronModel is the behaviour shared by one population of neurons.
// Implementations live in sim/neuron.
type NeuronModel interface {
	// ModelID names the model instance (population) for logs and reports.
	ModelID() string
	ModelType() ModelType
	// VectorNeuronState returns the batched state of all neurons of this model.
	VectorNeuronState() *VectorNeuronState
	// InitializeStates allocates the batched state for n neurons.
	// Called once by the network builder.
	InitializeStates(n int) error
	// ProcessInputSpike applies a synaptic input arriving over conn at t.
	// Event-driven models return the neuron's new predicted firing, or nil.
	// Time-driven models always return nil; their firings come from UpdateState.
	ProcessInputSpike(conn *Interconnection, t float64) *InternalSpike
}

// EventDrivenNeuronModel predicts firings in closed form.
type EventDrivenNeuronModel interface {
	NeuronModel
	// DiscardSpike reports whether spike is stale given state changes since it
	// was predicted (e.g. an input moved the prediction, or the neuron fired again).
	DiscardSpike(spike *InternalSpike) bool
	// GenerateNextSpike predicts the neuron's firing after the accepted spike,
	// or returns nil if it will not fire again under current input.
	GenerateNextSpike(spike *InternalSpike) *InternalSpike
	// GenerateInitialSpike predicts the first firing from the initial state, or nil.
	GenerateInitialSpike(n *Neuron) *InternalSpike
}

// ExternalInputModel is implemented by models whose neurons may be driven by
// a SpikeSource. ProcessExternalSpike records the forced firing of n at t.
type ExternalInputModel interface {
	NeuronModel
	ProcessExternalSpike(n *Neuron, t float64)
}

// TimeDrivenNeuronModel is advanced at a fixed step by an IntegrationMethod.
type TimeDrivenNeuronModel interface {
	NeuronModel
	DifferentialEquations
	// StepSize returns the fixed integration step.
	StepSize() float64
	// IntegrationMethod returns the stepper that advances the differential variables.
	IntegrationMethod() IntegrationMethod
	// UpdateState advances every neuron of the population to now and returns the
	// spikes of neurons that crossed threshold during the step, stamped with now.
	UpdateState(now float64) ([]*InternalSpike, error)
	// BindNeurons binds the population's neurons (by state index) so UpdateState can
	// stamp spikes with their source. Called once by the network builder.
	BindNeurons(neurons []*Neuron)
}
