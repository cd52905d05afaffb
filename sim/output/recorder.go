// Package output provides spike, state and weight sinks: an in-memory
// recorder with firing statistics, text spike logs, structured log output
// and weight snapshots.
package output

import (
	"github.com/hybridsim/hybridsim/sim"
)

// SpikeRecord is one recorded firing.
type SpikeRecord struct {
	Time   float64
	Neuron int
}

// StateSample is a copy of a monitored neuron's state variables.
type StateSample struct {
	Time   float64
	Neuron int
	Values []float64
}

// Recorder keeps every spike and state sample in memory.
type Recorder struct {
	Spikes  []SpikeRecord
	Samples []StateSample
}

var (
	_ sim.SpikeSink = (*Recorder)(nil)
	_ sim.StateSink = (*Recorder)(nil)
)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) OnSpike(t float64, n *sim.Neuron) {
	r.Spikes = append(r.Spikes, SpikeRecord{Time: t, Neuron: n.Index()})
}

func (r *Recorder) OnStateSample(t float64, n *sim.Neuron) {
	r.Samples = append(r.Samples, StateSample{Time: t, Neuron: n.Index(), Values: stateValues(n)})
}

// SpikeTrain returns the firing times of neuron in order.
func (r *Recorder) SpikeTrain(neuron int) []float64 {
	var train []float64
	for _, s := range r.Spikes {
		if s.Neuron == neuron {
			train = append(train, s.Time)
		}
	}
	return train
}

func stateValues(n *sim.Neuron) []float64 {
	st := n.VectorNeuronState()
	values := make([]float64, st.NumStateVariables())
	for v := range values {
		values[v] = st.StateVariableAt(n.StateIndex(), v)
	}
	return values
}
