package sim

import "fmt"

// Synapse types select which input channel of the target model a connection drives.
const (
	SynapseExcitatory = 0
	SynapseInhibitory = 1
)

// Neuron is one cell of the network. Its dynamic state lives in the batched
// VectorNeuronState of its model, at StateIndex().
type Neuron struct {
	index      int
	model      NeuronModel
	stateIndex int

	inputs             []*Interconnection
	inputsWithLearning []*Interconnection
	outputs            []*Interconnection // sorted by delay at build time

	monitored       bool
	outputConnected bool
}

// Index returns the neuron's global index in the network.
func (n *Neuron) Index() int { return n.index }

// Model returns the neuron model shared by this neuron's population.
func (n *Neuron) Model() NeuronModel { return n.model }

// StateIndex returns the neuron's slot in the model's VectorNeuronState.
func (n *Neuron) StateIndex() int { return n.stateIndex }

// VectorNeuronState is shorthand for Model().VectorNeuronState().
func (n *Neuron) VectorNeuronState() *VectorNeuronState { return n.model.VectorNeuronState() }

// IsMonitored reports whether state samples are sent to state sinks.
func (n *Neuron) IsMonitored() bool { return n.monitored }

// IsOutputConnected reports whether the neuron has at least one outgoing connection.
func (n *Neuron) IsOutputConnected() bool { return n.outputConnected }

// InputConnections returns the incoming connections in build order.
func (n *Neuron) InputConnections() []*Interconnection { return n.inputs }

// InputConnectionsWithLearning returns the incoming connections that carry a learning rule.
func (n *Neuron) InputConnectionsWithLearning() []*Interconnection { return n.inputsWithLearning }

// OutputConnections returns the outgoing connections ordered by delay.
func (n *Neuron) OutputConnections() []*Interconnection { return n.outputs }

// OutputConnectionAt returns the i-th outgoing connection.
func (n *Neuron) OutputConnectionAt(i int) *Interconnection { return n.outputs[i] }

func (n *Neuron) String() string {
	return fmt.Sprintf("neuron %d (%s[%d])", n.index, n.model.ModelID(), n.stateIndex)
}

// Interconnection is a synapse from Source to Target.
// Delay is fixed; Weight changes under the learning rule, clamped to [0, MaxWeight].
type Interconnection struct {
	index       int
	source      *Neuron
	target      *Neuron
	synapseType int
	delay       float64

	Weight    float64
	MaxWeight float64

	state ConnectionState
	rule  LearningRule
}

// Index returns the connection's global index.
func (c *Interconnection) Index() int { return c.index }

// Source returns the presynaptic neuron.
func (c *Interconnection) Source() *Neuron { return c.source }

// Target returns the postsynaptic neuron.
func (c *Interconnection) Target() *Neuron { return c.target }

// Type returns the synapse type (SynapseExcitatory or SynapseInhibitory).
func (c *Interconnection) Type() int { return c.synapseType }

// Delay returns the transmission delay.
func (c *Interconnection) Delay() float64 { return c.delay }

// ConnectionState returns the synapse's plasticity state, or nil without learning.
func (c *Interconnection) ConnectionState() ConnectionState { return c.state }

// LearningRule returns the rule attached to the synapse, or nil.
func (c *Interconnection) LearningRule() LearningRule { return c.rule }

// ClampWeight keeps Weight within [0, MaxWeight].
func (c *Interconnection) ClampWeight() {
	if c.Weight < 0 {
		c.Weight = 0
	} else if c.Weight > c.MaxWeight {
		c.Weight = c.MaxWeight
	}
}

// AdvanceStateTo brings the connection state up to t before a spike hook is applied.
// Calls with t at or before the state's last update time leave it unchanged.
func (c *Interconnection) AdvanceStateTo(t float64) {
	if c.state == nil {
		return
	}
	if elapsed := t - c.state.LastUpdateTime(); elapsed > 0 {
		c.state.AddElapsedTime(elapsed)
	}
}

func (c *Interconnection) String() string {
	return fmt.Sprintf("connection %d (%d -> %d, w=%g, d=%g)", c.index, c.source.index, c.target.index, c.Weight, c.delay)
}
