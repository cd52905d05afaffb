package testutil

import (
	"github.com/hybridsim/hybridsim/sim"
)

// Delivery is one input spike seen by a PassiveModel.
type Delivery struct {
	Conn *sim.Interconnection
	Time float64
}

// PassiveModel is an event-driven model with one state variable that records
// every input it receives. Its prediction behaviour is scripted by the
// optional hooks; with none set it never fires on its own.
type PassiveModel struct {
	ID      string
	Inputs  []Delivery
	Discard func(s *sim.InternalSpike) bool
	Next    func(s *sim.InternalSpike) *sim.InternalSpike
	Initial func(n *sim.Neuron) *sim.InternalSpike
	// OnInput may return a new prediction for the target of conn.
	OnInput func(conn *sim.Interconnection, t float64) *sim.InternalSpike

	state *sim.VectorNeuronState
}

var (
	_ sim.EventDrivenNeuronModel = (*PassiveModel)(nil)
	_ sim.ExternalInputModel     = (*PassiveModel)(nil)
)

// NewPassiveModel creates a model named id.
func NewPassiveModel(id string) *PassiveModel {
	return &PassiveModel{ID: id, state: sim.NewVectorNeuronState(1)}
}

func (m *PassiveModel) ModelID() string { return m.ID }

func (m *PassiveModel) ModelType() sim.ModelType { return sim.EventDrivenModel }

func (m *PassiveModel) VectorNeuronState() *sim.VectorNeuronState { return m.state }

func (m *PassiveModel) InitializeStates(n int) error {
	m.state.Initialize(n, []float64{0})
	return nil
}

func (m *PassiveModel) ProcessInputSpike(conn *sim.Interconnection, t float64) *sim.InternalSpike {
	m.Inputs = append(m.Inputs, Delivery{Conn: conn, Time: t})
	if m.OnInput != nil {
		return m.OnInput(conn, t)
	}
	return nil
}

func (m *PassiveModel) DiscardSpike(s *sim.InternalSpike) bool {
	return m.Discard != nil && m.Discard(s)
}

func (m *PassiveModel) GenerateNextSpike(s *sim.InternalSpike) *sim.InternalSpike {
	if m.Next == nil {
		return nil
	}
	return m.Next(s)
}

func (m *PassiveModel) GenerateInitialSpike(n *sim.Neuron) *sim.InternalSpike {
	if m.Initial == nil {
		return nil
	}
	return m.Initial(n)
}

func (m *PassiveModel) ProcessExternalSpike(n *sim.Neuron, t float64) {
	m.state.NewFiredSpike(n.StateIndex(), t)
}

// Spike is a recorded (time, neuron index) pair.
type Spike struct {
	Time   float64
	Neuron int
}

// SpikeRecorder is a sim.SpikeSink that keeps every firing.
type SpikeRecorder struct {
	Spikes []Spike
}

func (r *SpikeRecorder) OnSpike(t float64, n *sim.Neuron) {
	r.Spikes = append(r.Spikes, Spike{Time: t, Neuron: n.Index()})
}

// StateRecorder is a sim.StateSink that keeps every sample.
type StateRecorder struct {
	Samples []Spike
}

func (r *StateRecorder) OnStateSample(t float64, n *sim.Neuron) {
	r.Samples = append(r.Samples, Spike{Time: t, Neuron: n.Index()})
}

// WeightRecorder is a sim.WeightSink that keeps every snapshot.
// When Err is set every call fails with it.
type WeightRecorder struct {
	Times   []float64
	Weights [][]float64
	Err     error
}

func (r *WeightRecorder) OnWeights(t float64, conns []*sim.Interconnection) error {
	if r.Err != nil {
		return r.Err
	}
	ws := make([]float64, len(conns))
	for i, c := range conns {
		ws[i] = c.Weight
	}
	r.Times = append(r.Times, t)
	r.Weights = append(r.Weights, ws)
	return nil
}

// SliceSource is a sim.SpikeSource replaying a fixed list. When Err is set it
// is returned instead of the spike at position FailAt.
type SliceSource struct {
	Spikes []sim.InputSpike
	Err    error
	FailAt int
	pos    int
}

func (s *SliceSource) NextSpike() (*sim.InputSpike, error) {
	if s.Err != nil && s.pos == s.FailAt {
		s.pos++
		return nil, s.Err
	}
	if s.pos >= len(s.Spikes) {
		return nil, nil
	}
	sp := s.Spikes[s.pos]
	s.pos++
	return &sp, nil
}
