package sim

// ConnectionState is the continuous plasticity state owned by one synapse.
// It is mutated only through the advance-then-hook protocol: AddElapsedTime
// brings the traces to "now" (and moves LastUpdateTime forward by elapsed),
// then one of the spike hooks applies the discrete pulse.
type ConnectionState interface {
	LastUpdateTime() float64
	AddElapsedTime(elapsed float64)
	ApplyPresynapticSpike()
	ApplyPostsynapticSpike()
	PresynapticActivity() float64
	PostsynapticActivity() float64
	// PrintableValues returns the trace variables followed by any rule parameters.
	PrintableValues() []float64
}

// LearningRule computes weight changes of a synapse from spike timing.
// Implementations live in sim/plasticity.
type LearningRule interface {
	Name() string
	// NewConnectionState creates the per-synapse state this rule needs.
	NewConnectionState() ConnectionState
	// ApplyPreSynapticSpike is called when a spike arrives over conn at t.
	ApplyPreSynapticSpike(conn *Interconnection, t float64)
	// ApplyPostSynapticSpike is called for an incoming conn when its target fires at t.
	ApplyPostSynapticSpike(conn *Interconnection, t float64)
}
