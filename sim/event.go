package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events.
// Each event has a Time and a ProcessEvent method that advances simulation
// state when invoked. An event is owned by the queue until popped, then by
// the processing call; it is never reinserted.
type Event interface {
	Time() float64
	ProcessEvent(sim *Simulation) error
}

// spike holds the fields shared by the spike events.
type spike struct {
	time   float64
	source *Neuron
}

// Time returns the simulation time of the spike.
func (s *spike) Time() float64 { return s.time }

// Source returns the neuron the spike originates from.
func (s *spike) Source() *Neuron { return s.source }

// InternalSpike is an intrinsic firing of one neuron, either predicted by an
// event-driven model or detected by a time-driven model's step.
type InternalSpike struct {
	spike
}

// NewInternalSpike creates a firing of source at t.
func NewInternalSpike(t float64, source *Neuron) *InternalSpike {
	return &InternalSpike{spike{time: t, source: source}}
}

// ProcessEvent runs one firing through the spike state machine:
//   - event-driven source: discard check, count, record, predict successor
//   - time-driven source: count only (the model recorded the firing during its step)
//
// then, for accepted firings, notifies sinks, starts propagation and applies
// the post-synaptic hook of every incoming connection with learning.
// A discarded spike has no side effects.
func (e *InternalSpike) ProcessEvent(sim *Simulation) error {
	n := e.source
	if err := sim.checkNeuron(n, "InternalSpike"); err != nil {
		return err
	}
	if n.model.ModelType() == EventDrivenModel {
		model, ok := n.model.(EventDrivenNeuronModel)
		if !ok {
			return NewSimulationError(n.model.ModelID(), "model reports event-driven but does not implement EventDrivenNeuronModel")
		}
		if model.DiscardSpike(e) {
			if logrus.IsLevelEnabled(logrus.TraceLevel) {
				logrus.Tracef("[t=%.6f] discarded stale spike of %s", e.time, n)
			}
			return nil
		}
		sim.totalSpikes++
		n.VectorNeuronState().NewFiredSpike(n.stateIndex, e.time)
		if next := model.GenerateNextSpike(e); next != nil {
			sim.Schedule(next)
		}
	} else {
		sim.totalSpikes++
	}
	sim.afterFiring(e.time, n)
	return nil
}

// PropagatedSpike delivers a firing of Source, emitted at FiringTime, to the
// output connections starting at OutputIndex that share its delay. Connections
// with a longer delay are handed to a successor PropagatedSpike, so each
// connection is reached exactly at FiringTime + its own delay.
type PropagatedSpike struct {
	spike
	outputIndex int
	firingTime  float64
}

// NewPropagatedSpike creates the delivery of source's firing at firingTime to
// output connection outputIndex, arriving at t.
func NewPropagatedSpike(t float64, source *Neuron, outputIndex int, firingTime float64) *PropagatedSpike {
	return &PropagatedSpike{spike: spike{time: t, source: source}, outputIndex: outputIndex, firingTime: firingTime}
}

// OutputIndex returns the first output connection delivered by this event.
func (e *PropagatedSpike) OutputIndex() int { return e.outputIndex }

// FiringTime returns the time the source fired.
func (e *PropagatedSpike) FiringTime() float64 { return e.firingTime }

// ProcessEvent delivers the spike to every pending connection with this arrival time.
func (e *PropagatedSpike) ProcessEvent(sim *Simulation) error {
	n := e.source
	if err := sim.checkNeuron(n, "PropagatedSpike"); err != nil {
		return err
	}
	outputs := n.outputs
	if e.outputIndex < 0 || e.outputIndex >= len(outputs) {
		return NewSimulationError(n.String(), "PropagatedSpike references output %d of %d", e.outputIndex, len(outputs))
	}
	delay := outputs[e.outputIndex].delay
	j := e.outputIndex
	for ; j < len(outputs) && outputs[j].delay == delay; j++ {
		conn := outputs[j]
		target := conn.target
		if next := target.model.ProcessInputSpike(conn, e.time); next != nil {
			sim.Schedule(next)
		}
		if target.monitored {
			sim.writeState(e.time, target)
		}
		if conn.rule != nil {
			conn.AdvanceStateTo(e.time)
			conn.rule.ApplyPreSynapticSpike(conn, e.time)
		}
	}
	sim.propagatedSpikes++
	if j < len(outputs) {
		sim.Schedule(NewPropagatedSpike(e.firingTime+outputs[j].delay, n, j, e.firingTime))
	}
	return nil
}

// ExternalSpike is a firing injected by a SpikeSource into a neuron whose
// model implements ExternalInputModel. Processing pulls the source's next
// spike, then treats the firing as accepted: it is never discarded and never
// triggers a prediction.
type ExternalSpike struct {
	spike
	sourceIdx int
}

// ProcessEvent refills the originating source and emits the firing.
func (e *ExternalSpike) ProcessEvent(sim *Simulation) error {
	n := e.source
	if err := sim.checkNeuron(n, "ExternalSpike"); err != nil {
		return err
	}
	model, ok := n.model.(ExternalInputModel)
	if !ok {
		return NewSimulationError(n.String(), "model %s does not accept external spikes", n.model.ModelID())
	}
	if err := sim.refillSource(e.sourceIdx); err != nil {
		return err
	}
	sim.totalSpikes++
	model.ProcessExternalSpike(n, e.time)
	sim.afterFiring(e.time, n)
	return nil
}

// TimeDrivenStepEvent advances one time-driven population by its fixed step
// and reschedules itself one step later.
type TimeDrivenStepEvent struct {
	time  float64
	model TimeDrivenNeuronModel
}

// NewTimeDrivenStepEvent schedules a step of model at t.
func NewTimeDrivenStepEvent(t float64, model TimeDrivenNeuronModel) *TimeDrivenStepEvent {
	return &TimeDrivenStepEvent{time: t, model: model}
}

// Time returns the step time.
func (e *TimeDrivenStepEvent) Time() float64 { return e.time }

// ProcessEvent integrates the population, queues its firings and samples monitored neurons.
func (e *TimeDrivenStepEvent) ProcessEvent(sim *Simulation) error {
	spikes, err := e.model.UpdateState(e.time)
	if err != nil {
		return NewSimulationError(e.model.ModelID(), "time-driven step at %g: %v", e.time, err)
	}
	for _, s := range spikes {
		sim.Schedule(s)
	}
	for _, n := range sim.monitoredByModel[e.model] {
		sim.writeState(e.time, n)
	}
	sim.Schedule(NewTimeDrivenStepEvent(e.time+e.model.StepSize(), e.model))
	return nil
}

// SaveWeightsEvent hands the taught connections to every WeightSink and
// reschedules itself one save step later.
type SaveWeightsEvent struct {
	time float64
	step float64
}

// Time returns the save time.
func (e *SaveWeightsEvent) Time() float64 { return e.time }

// ProcessEvent writes the weights.
func (e *SaveWeightsEvent) ProcessEvent(sim *Simulation) error {
	if err := sim.writeWeights(e.time); err != nil {
		return err
	}
	sim.Schedule(&SaveWeightsEvent{time: e.time + e.step, step: e.step})
	return nil
}
