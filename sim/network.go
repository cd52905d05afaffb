package sim

import (
	"fmt"
	"math"
	"sort"
)

// Network is the fully built, immutable topology handed to a Simulation.
// Neuron and connection state (weights, traces, model states) stays mutable.
type Network struct {
	neurons     []*Neuron
	connections []*Interconnection
	models      []NeuronModel
	populations map[NeuronModel][]*Neuron
}

// Neurons returns all neurons ordered by index.
func (net *Network) Neurons() []*Neuron { return net.neurons }

// NeuronAt returns neuron i, or nil if out of range.
func (net *Network) NeuronAt(i int) *Neuron {
	if i < 0 || i >= len(net.neurons) {
		return nil
	}
	return net.neurons[i]
}

// Connections returns all connections ordered by index.
func (net *Network) Connections() []*Interconnection { return net.connections }

// Models returns the neuron models in registration order.
func (net *Network) Models() []NeuronModel { return net.models }

// Population returns the neurons of model ordered by state index.
func (net *Network) Population(m NeuronModel) []*Neuron { return net.populations[m] }

// TaughtConnections returns the connections that carry a learning rule.
func (net *Network) TaughtConnections() []*Interconnection {
	taught := make([]*Interconnection, 0)
	for _, c := range net.connections {
		if c.rule != nil {
			taught = append(taught, c)
		}
	}
	return taught
}

// NetworkBuilder implements the one-time construction contract: models are
// registered, neurons are added per model, connections are declared, and
// Build freezes the result. A builder is single use.
type NetworkBuilder struct {
	models      []NeuronModel
	modelSet    map[NeuronModel]bool
	neurons     []*Neuron
	connections []*Interconnection
	built       bool
}

// NewNetworkBuilder creates an empty builder.
func NewNetworkBuilder() *NetworkBuilder {
	return &NetworkBuilder{modelSet: make(map[NeuronModel]bool)}
}

// AddModel registers model. Registering the same model twice is a no-op;
// two distinct models sharing an ID are rejected.
func (b *NetworkBuilder) AddModel(model NeuronModel) error {
	if b.built {
		return NewConfigurationError("network", 0, "builder already built")
	}
	if model == nil {
		return NewConfigurationError("network", 0, "neuron model must not be nil")
	}
	if b.modelSet[model] {
		return nil
	}
	for _, m := range b.models {
		if m.ModelID() == model.ModelID() {
			return NewConfigurationError(model.ModelID(), 0, "duplicate model id")
		}
	}
	b.modelSet[model] = true
	b.models = append(b.models, model)
	return nil
}

// AddNeurons appends count neurons of model and returns the index of the first.
// The model is registered on first use.
func (b *NetworkBuilder) AddNeurons(model NeuronModel, count int, monitored bool) (int, error) {
	if err := b.AddModel(model); err != nil {
		return 0, err
	}
	if count < 1 {
		return 0, NewConfigurationError(model.ModelID(), 0, "neuron count must be >= 1, got %d", count)
	}
	first := len(b.neurons)
	for i := 0; i < count; i++ {
		b.neurons = append(b.neurons, &Neuron{
			index:     first + i,
			model:     model,
			monitored: monitored,
		})
	}
	return first, nil
}

// ConnectionSpec describes one synapse for Connect.
type ConnectionSpec struct {
	Source, Target int
	Type           int
	Weight         float64
	MaxWeight      float64 // 0 means no upper bound other than +Inf
	Delay          float64
	Rule           LearningRule // nil for a static synapse
}

// Connect declares a synapse.
func (b *NetworkBuilder) Connect(spec ConnectionSpec) (*Interconnection, error) {
	if b.built {
		return nil, NewConfigurationError("network", 0, "builder already built")
	}
	id := fmt.Sprintf("connection %d->%d", spec.Source, spec.Target)
	if spec.Source < 0 || spec.Source >= len(b.neurons) {
		return nil, NewConfigurationError(id, 0, "source neuron %d does not exist (%d neurons)", spec.Source, len(b.neurons))
	}
	if spec.Target < 0 || spec.Target >= len(b.neurons) {
		return nil, NewConfigurationError(id, 0, "target neuron %d does not exist (%d neurons)", spec.Target, len(b.neurons))
	}
	if spec.Delay <= 0 || math.IsNaN(spec.Delay) || math.IsInf(spec.Delay, 0) {
		return nil, NewConfigurationError(id, 0, "delay must be positive and finite, got %g", spec.Delay)
	}
	if spec.Type != SynapseExcitatory && spec.Type != SynapseInhibitory {
		return nil, NewConfigurationError(id, 0, "unknown synapse type %d", spec.Type)
	}
	if math.IsNaN(spec.Weight) || spec.Weight < 0 {
		return nil, NewConfigurationError(id, 0, "weight must be non-negative, got %g", spec.Weight)
	}
	maxWeight := spec.MaxWeight
	if maxWeight == 0 {
		maxWeight = math.Inf(1)
	}
	if spec.Weight > maxWeight {
		return nil, NewConfigurationError(id, 0, "weight %g exceeds max weight %g", spec.Weight, maxWeight)
	}
	conn := &Interconnection{
		index:       len(b.connections),
		source:      b.neurons[spec.Source],
		target:      b.neurons[spec.Target],
		synapseType: spec.Type,
		delay:       spec.Delay,
		Weight:      spec.Weight,
		MaxWeight:   maxWeight,
		rule:        spec.Rule,
	}
	b.connections = append(b.connections, conn)
	return conn, nil
}

// Build allocates model states, wires connection lists and freezes the network.
func (b *NetworkBuilder) Build() (*Network, error) {
	if b.built {
		return nil, NewConfigurationError("network", 0, "builder already built")
	}
	if len(b.neurons) == 0 {
		return nil, NewConfigurationError("network", 0, "network has no neurons")
	}
	b.built = true

	net := &Network{
		neurons:     b.neurons,
		connections: b.connections,
		models:      b.models,
		populations: make(map[NeuronModel][]*Neuron, len(b.models)),
	}
	for _, n := range b.neurons {
		n.stateIndex = len(net.populations[n.model])
		net.populations[n.model] = append(net.populations[n.model], n)
	}
	for _, m := range b.models {
		pop := net.populations[m]
		if len(pop) == 0 {
			return nil, NewConfigurationError(m.ModelID(), 0, "model has no neurons")
		}
		if err := m.InitializeStates(len(pop)); err != nil {
			return nil, &Error{Kind: KindConfiguration, Source: m.ModelID(), Err: err}
		}
		if td, ok := m.(TimeDrivenNeuronModel); ok {
			td.BindNeurons(pop)
		}
	}

	for _, c := range b.connections {
		c.source.outputs = append(c.source.outputs, c)
		c.target.inputs = append(c.target.inputs, c)
		if c.rule != nil {
			c.state = c.rule.NewConnectionState()
			c.target.inputsWithLearning = append(c.target.inputsWithLearning, c)
		}
	}
	for _, n := range b.neurons {
		// Stable sort keeps declaration order among equal delays.
		sort.SliceStable(n.outputs, func(i, j int) bool { return n.outputs[i].delay < n.outputs[j].delay })
		n.outputConnected = len(n.outputs) > 0
	}
	return net, nil
}
