// Package sim provides the core discrete-event engine of the hybrid
// spiking network simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - neuron.go: Neuron and Interconnection, the static topology with mutable weights
//   - event.go: Event types that drive the simulation (InternalSpike, PropagatedSpike, etc.)
//   - simulator.go: The event loop, the run phases and the collaborator hooks
//
// # Architecture
//
// The sim package defines the contracts and the event loop; implementations
// live in sub-packages:
//   - sim/neuron/: Neuron models (event-driven LIF, input, time-driven LIF, Izhikevich)
//   - sim/integration/: Fixed-step integrators (Euler, RK2, RK4, BDF2) and batch variants
//   - sim/plasticity/: Synaptic traces and learning rules (STDP, sinusoidal kernel)
//   - sim/input/: Spike sources (spike file replay, Poisson and Gamma generators)
//   - sim/output/: Spike, state and weight sinks
//   - sim/telemetry/: Prometheus collectors fed by the sinks
//   - sim/experiment/: Experiment files and network construction
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - EventDrivenNeuronModel: predicts firing times analytically, discards stale predictions
//   - TimeDrivenNeuronModel: advances a whole population by a fixed step
//   - IntegrationMethod: advances one neuron's differential variables
//   - ConnectionState / LearningRule: per-synapse traces and weight updates
//   - SpikeSource, SpikeSink, StateSink, WeightSink: external collaborators
//
// Simulated time is a float64 in milliseconds. Events are ordered by time and,
// for equal times, by insertion order.
package sim
