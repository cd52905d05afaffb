package sim

// InputSpike is an externally generated firing of neuron Neuron at Time.
type InputSpike struct {
	Time   float64
	Neuron int
}

// SpikeSource injects externally generated spikes. NextSpike returns spikes in
// non-decreasing time order and (nil, nil) once exhausted. Implementations live
// in sim/input.
type SpikeSource interface {
	NextSpike() (*InputSpike, error)
}

// SpikeSink receives every accepted firing.
type SpikeSink interface {
	OnSpike(t float64, n *Neuron)
}

// StateSink receives state samples of monitored neurons.
type StateSink interface {
	OnStateSample(t float64, n *Neuron)
}

// WeightSink receives the taught connections at every save step.
type WeightSink interface {
	OnWeights(t float64, conns []*Interconnection) error
}

// Named is implemented by collaborators that want a readable name in logs and errors.
type Named interface {
	Name() string
}

func nameOf(v any, fallback string) string {
	if n, ok := v.(Named); ok {
		return n.Name()
	}
	return fallback
}
