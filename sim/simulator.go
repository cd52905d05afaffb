// sim/simulator.go
package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Phase is the lifecycle state of a Simulation.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseBuilt
	PhaseRunning
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseBuilt:
		return "built"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Config holds the run parameters of a Simulation.
type Config struct {
	// Horizon is the last simulated time processed. Events after it stay queued.
	// Must be finite when the network has time-driven models.
	Horizon float64
	// SaveWeightStep is the interval between weight sink invocations (0 disables).
	SaveWeightStep float64
}

// NewConfig returns a Config with an unbounded horizon and no weight saving.
func NewConfig() Config {
	return Config{Horizon: math.Inf(1)}
}

// Simulation is the core object that holds simulation time, the event queue,
// the network and the external collaborators, and drives the event loop.
// It is single use: constructed from a built network, built, run once.
type Simulation struct {
	config  Config
	network *Network
	queue   *EventQueue
	phase   Phase

	clock            float64
	totalSpikes      int64
	propagatedSpikes int64
	updates          int64
	queueSizeAccum   int64
	elapsed          time.Duration

	sources     []SpikeSource
	spikeSinks  []SpikeSink
	stateSinks  []StateSink
	weightSinks []WeightSink

	monitoredByModel map[TimeDrivenNeuronModel][]*Neuron
	taught           []*Interconnection
}

// NewSimulation creates a Simulation over net.
func NewSimulation(net *Network, config Config) (*Simulation, error) {
	if net == nil {
		return nil, NewConfigurationError("simulation", 0, "network must not be nil")
	}
	if math.IsNaN(config.Horizon) || config.Horizon < 0 {
		return nil, NewConfigurationError("simulation", 0, "horizon must be non-negative, got %g", config.Horizon)
	}
	if config.SaveWeightStep < 0 || math.IsNaN(config.SaveWeightStep) || math.IsInf(config.SaveWeightStep, 0) {
		return nil, NewConfigurationError("simulation", 0, "save weight step must be finite and non-negative, got %g", config.SaveWeightStep)
	}
	return &Simulation{
		config:           config,
		network:          net,
		queue:            NewEventQueue(),
		phase:            PhaseUninitialized,
		monitoredByModel: make(map[TimeDrivenNeuronModel][]*Neuron),
	}, nil
}

func (sim *Simulation) requirePhase(p Phase, op string) error {
	if sim.phase != p {
		return NewSimulationError("simulation", "%s requires phase %s, current phase is %s", op, p, sim.phase)
	}
	return nil
}

// AddSpikeSource registers an input driver. Only before Build.
func (sim *Simulation) AddSpikeSource(src SpikeSource) error {
	if err := sim.requirePhase(PhaseUninitialized, "AddSpikeSource"); err != nil {
		return err
	}
	sim.sources = append(sim.sources, src)
	return nil
}

// AddSpikeSink registers a receiver of accepted firings. Only before Build.
func (sim *Simulation) AddSpikeSink(sink SpikeSink) error {
	if err := sim.requirePhase(PhaseUninitialized, "AddSpikeSink"); err != nil {
		return err
	}
	sim.spikeSinks = append(sim.spikeSinks, sink)
	return nil
}

// AddStateSink registers a receiver of monitored-neuron samples. Only before Build.
func (sim *Simulation) AddStateSink(sink StateSink) error {
	if err := sim.requirePhase(PhaseUninitialized, "AddStateSink"); err != nil {
		return err
	}
	sim.stateSinks = append(sim.stateSinks, sink)
	return nil
}

// AddWeightSink registers a receiver of weight snapshots. Only before Build.
func (sim *Simulation) AddWeightSink(sink WeightSink) error {
	if err := sim.requirePhase(PhaseUninitialized, "AddWeightSink"); err != nil {
		return err
	}
	sim.weightSinks = append(sim.weightSinks, sink)
	return nil
}

// Build fills the queue with the initial events: predicted first firings of
// event-driven neurons, the first step of every time-driven model, the first
// spike of every source and the first weight save.
// A failed Build empties the queue and leaves the simulation Completed.
func (sim *Simulation) Build() (err error) {
	if err := sim.requirePhase(PhaseUninitialized, "Build"); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			sim.queue = NewEventQueue()
			sim.phase = PhaseCompleted
		}
	}()
	if sim.config.SaveWeightStep > 0 && len(sim.weightSinks) > 0 && math.IsInf(sim.config.Horizon, 1) {
		return NewConfigurationError("simulation", 0, "saving weights needs a finite horizon")
	}
	net := sim.network
	for _, m := range net.models {
		switch m.ModelType() {
		case EventDrivenModel:
			ed, ok := m.(EventDrivenNeuronModel)
			if !ok {
				return NewConfigurationError(m.ModelID(), 0, "model reports event-driven but does not implement EventDrivenNeuronModel")
			}
			for _, n := range net.populations[m] {
				if s := ed.GenerateInitialSpike(n); s != nil {
					sim.Schedule(s)
				}
			}
		case TimeDrivenModel:
			td, ok := m.(TimeDrivenNeuronModel)
			if !ok {
				return NewConfigurationError(m.ModelID(), 0, "model reports time-driven but does not implement TimeDrivenNeuronModel")
			}
			if math.IsInf(sim.config.Horizon, 1) {
				return NewConfigurationError(m.ModelID(), 0, "time-driven models need a finite horizon")
			}
			if step := td.StepSize(); step <= 0 || math.IsNaN(step) {
				return NewConfigurationError(m.ModelID(), 0, "step size must be positive, got %g", step)
			}
			for _, n := range net.populations[m] {
				if n.monitored {
					sim.monitoredByModel[td] = append(sim.monitoredByModel[td], n)
				}
			}
			sim.Schedule(NewTimeDrivenStepEvent(td.StepSize(), td))
		default:
			return NewConfigurationError(m.ModelID(), 0, "unknown model type %v", m.ModelType())
		}
	}
	for i := range sim.sources {
		if err := sim.refillSource(i); err != nil {
			return err
		}
	}
	sim.taught = net.TaughtConnections()
	if sim.config.SaveWeightStep > 0 && len(sim.weightSinks) > 0 {
		sim.Schedule(&SaveWeightsEvent{time: sim.config.SaveWeightStep, step: sim.config.SaveWeightStep})
	}
	sim.phase = PhaseBuilt
	logrus.Infof("Built simulation: %d neurons, %d connections, %d initial events",
		len(net.neurons), len(net.connections), sim.queue.Len())
	return nil
}

// Schedule pushes an event into the queue.
func (sim *Simulation) Schedule(ev Event) {
	sim.queue.Insert(ev)
}

// Run processes events in time order until the queue is empty or the next
// event lies beyond the horizon. A fatal error stops the run and is returned;
// the simulation is then Completed and cannot be resumed.
func (sim *Simulation) Run() error {
	if err := sim.requirePhase(PhaseBuilt, "Run"); err != nil {
		return err
	}
	sim.phase = PhaseRunning
	start := time.Now()
	defer func() {
		sim.elapsed = time.Since(start)
		sim.phase = PhaseCompleted
	}()

	for {
		t, ok := sim.queue.PeekTime()
		if !ok || t > sim.config.Horizon {
			break
		}
		sim.queueSizeAccum += int64(sim.queue.Len())
		ev := sim.queue.PopMin()
		if t < sim.clock {
			return NewSimulationError(fmt.Sprintf("%T", ev), "event at %g precedes clock %g", t, sim.clock)
		}
		// advance the clock
		sim.clock = t
		sim.updates++
		if logrus.IsLevelEnabled(logrus.DebugLevel) {
			logrus.Debugf("[t=%.6f] Executing %T", sim.clock, ev)
		}
		if err := ev.ProcessEvent(sim); err != nil {
			logrus.Errorf("[t=%.6f] Simulation aborted: %v", sim.clock, err)
			return err
		}
	}
	logrus.Infof("[t=%.6f] Simulation ended: %d spikes, %d updates", sim.clock, sim.totalSpikes, sim.updates)
	return nil
}

// Phase returns the lifecycle phase.
func (sim *Simulation) Phase() Phase { return sim.phase }

// Clock returns the time of the last processed event.
func (sim *Simulation) Clock() float64 { return sim.clock }

// Horizon returns the configured horizon.
func (sim *Simulation) Horizon() float64 { return sim.config.Horizon }

// Network returns the simulated network.
func (sim *Simulation) Network() *Network { return sim.network }

// Queue exposes the event queue.
func (sim *Simulation) Queue() *EventQueue { return sim.queue }

// TotalSpikes returns the number of accepted firings.
func (sim *Simulation) TotalSpikes() int64 { return sim.totalSpikes }

// PropagatedSpikes returns the number of processed propagation events.
func (sim *Simulation) PropagatedSpikes() int64 { return sim.propagatedSpikes }

// Updates returns the number of processed events.
func (sim *Simulation) Updates() int64 { return sim.updates }

// Elapsed returns the wall-clock duration of Run.
func (sim *Simulation) Elapsed() time.Duration { return sim.elapsed }

// MeanQueueSize returns the mean number of queued events seen at each update.
func (sim *Simulation) MeanQueueSize() float64 {
	if sim.updates == 0 {
		return 0
	}
	return float64(sim.queueSizeAccum) / float64(sim.updates)
}

func (sim *Simulation) checkNeuron(n *Neuron, event string) error {
	if n == nil {
		return NewSimulationError(event, "event has no source neuron")
	}
	if sim.network.NeuronAt(n.index) != n {
		return NewSimulationError(event, "neuron %d is not part of the simulated network", n.index)
	}
	return nil
}

// afterFiring runs the steps shared by every accepted firing.
func (sim *Simulation) afterFiring(t float64, n *Neuron) {
	for _, sink := range sim.spikeSinks {
		sink.OnSpike(t, n)
	}
	if n.monitored {
		sim.writeState(n.VectorNeuronState().LastUpdateTime(n.stateIndex), n)
	}
	if n.outputConnected {
		sim.Schedule(NewPropagatedSpike(t+n.outputs[0].delay, n, 0, t))
	}
	for _, conn := range n.inputsWithLearning {
		conn.AdvanceStateTo(t)
		conn.rule.ApplyPostSynapticSpike(conn, t)
	}
}

func (sim *Simulation) writeState(t float64, n *Neuron) {
	for _, sink := range sim.stateSinks {
		sink.OnStateSample(t, n)
	}
}

func (sim *Simulation) writeWeights(t float64) error {
	for i, sink := range sim.weightSinks {
		if err := sink.OnWeights(t, sim.taught); err != nil {
			return NewConnectionError(nameOf(sink, fmt.Sprintf("weight sink %d", i)), err)
		}
	}
	return nil
}

// refillSource schedules the next spike of source i, if any.
// A source failing after the run started is detached with a warning; during
// Build the failure is returned.
func (sim *Simulation) refillSource(i int) error {
	src := sim.sources[i]
	if src == nil {
		return nil
	}
	name := nameOf(src, fmt.Sprintf("spike source %d", i))
	in, err := src.NextSpike()
	if err != nil {
		cerr := NewConnectionError(name, err)
		if sim.phase == PhaseUninitialized {
			return cerr
		}
		logrus.Warnf("[t=%.6f] Detaching %s: %v", sim.clock, name, cerr)
		sim.sources[i] = nil
		return nil
	}
	if in == nil {
		sim.sources[i] = nil
		return nil
	}
	n := sim.network.NeuronAt(in.Neuron)
	if n == nil {
		return NewSimulationError(name, "input spike targets neuron %d, network has %d", in.Neuron, len(sim.network.neurons))
	}
	if _, ok := n.model.(ExternalInputModel); !ok {
		return NewConfigurationError(name, 0, "input spike targets %s, whose model does not accept external spikes", n)
	}
	if in.Time < sim.clock {
		return NewSimulationError(name, "input spike at %g precedes clock %g", in.Time, sim.clock)
	}
	sim.Schedule(&ExternalSpike{spike: spike{time: in.Time, source: n}, sourceIdx: i})
	return nil
}
