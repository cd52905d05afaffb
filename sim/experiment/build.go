package experiment

import (
	"errors"
	"io"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/hybridsim/hybridsim/sim"
	"github.com/hybridsim/hybridsim/sim/input"
	"github.com/hybridsim/hybridsim/sim/plasticity"
)

// PopulationRange locates a population in the network.
type PopulationRange struct {
	First, Count int
	Model        sim.NeuronModel
}

// Indices returns the network indices of the population.
func (r PopulationRange) Indices() []int {
	idx := make([]int, r.Count)
	for i := range idx {
		idx[i] = r.First + i
	}
	return idx
}

// Instance is a built experiment: the network, its run configuration and
// the spike sources feeding it.
type Instance struct {
	Network     *sim.Network
	Config      sim.Config
	Populations map[string]PopulationRange
	Sources     []sim.SpikeSource
	RNG         *sim.PartitionedRNG

	closers []io.Closer
}

// Build validates e and runs the network construction contract. Random
// topology and weights are drawn from the partitioned RNG seeded by the
// experiment, so the same file and seed always give the same network.
func Build(e *Experiment) (*Instance, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	inst := &Instance{
		Config:      sim.NewConfig(),
		Populations: make(map[string]PopulationRange, len(e.Populations)),
		RNG:         sim.NewPartitionedRNG(sim.NewSimulationKey(e.Simulation.Seed)),
	}
	if e.Simulation.Horizon > 0 {
		inst.Config.Horizon = e.Simulation.Horizon
	}
	inst.Config.SaveWeightStep = e.Simulation.SaveWeightStep

	b := sim.NewNetworkBuilder()
	for _, p := range e.Populations {
		model, err := modelKinds[p.Model].build(p)
		if err != nil {
			return nil, err
		}
		first, err := b.AddNeurons(model, p.Count, p.Monitored)
		if err != nil {
			return nil, err
		}
		inst.Populations[p.Name] = PopulationRange{First: first, Count: p.Count, Model: model}
	}

	for i, pr := range e.Projections {
		n, err := inst.connect(b, &pr)
		if err != nil {
			return nil, err
		}
		logrus.Debugf("projection[%d] %s -> %s: %d connections", i, pr.From, pr.To, n)
	}

	net, err := b.Build()
	if err != nil {
		return nil, err
	}
	inst.Network = net

	for _, in := range e.Inputs {
		src, err := inst.newSource(in)
		if err != nil {
			inst.Close()
			return nil, err
		}
		inst.Sources = append(inst.Sources, src)
	}
	logrus.Infof("Built experiment: %d populations, %d neurons, %d connections, %d inputs",
		len(e.Populations), len(net.Neurons()), len(net.Connections()), len(inst.Sources))
	return inst, nil
}

func (inst *Instance) connect(b *sim.NetworkBuilder, pr *Projection) (int, error) {
	from, to := inst.Populations[pr.From], inst.Populations[pr.To]
	rule, err := newRule(pr.Learning)
	if err != nil {
		return 0, err
	}
	topology := inst.RNG.ForSubsystem(sim.SubsystemTopology)
	weights := inst.RNG.ForSubsystem(sim.SubsystemWeights)

	count := 0
	link := func(src, dst int) error {
		if src == dst && !pr.AllowSelf {
			return nil
		}
		_, err := b.Connect(sim.ConnectionSpec{
			Source:    src,
			Target:    dst,
			Type:      validSynapses[pr.Synapse],
			Weight:    drawWeight(weights, pr.Weight, pr.WeightSpread),
			MaxWeight: pr.MaxWeight,
			Delay:     pr.Delay,
			Rule:      rule,
		})
		count++
		return err
	}

	switch pr.Connectivity {
	case "one_to_one":
		for k := 0; k < from.Count; k++ {
			if err := link(from.First+k, to.First+k); err != nil {
				return count, err
			}
		}
	case "random":
		for i := 0; i < from.Count; i++ {
			for j := 0; j < to.Count; j++ {
				if topology.Float64() >= pr.Probability {
					continue
				}
				if err := link(from.First+i, to.First+j); err != nil {
					return count, err
				}
			}
		}
	default:
		for i := 0; i < from.Count; i++ {
			for j := 0; j < to.Count; j++ {
				if err := link(from.First+i, to.First+j); err != nil {
					return count, err
				}
			}
		}
	}
	return count, nil
}

func drawWeight(rng *rand.Rand, w, spread float64) float64 {
	if spread == 0 {
		return w
	}
	return math.Max(0, w+spread*(2*rng.Float64()-1))
}

func newRule(l *Learning) (sim.LearningRule, error) {
	if l == nil {
		return nil, nil
	}
	switch l.Rule {
	case "stdp":
		return plasticity.NewSTDP(l.STDPConfig)
	case "sin":
		return plasticity.NewSinRule(l.SinConfig)
	}
	return nil, sim.NewConfigurationError("learning", 0, "unknown learning rule %q", l.Rule)
}

func (inst *Instance) newSource(in Input) (sim.SpikeSource, error) {
	pop := inst.Populations[in.Population]
	if in.Process == "file" {
		fs, err := input.OpenFileSource(in.File)
		if err != nil {
			return nil, err
		}
		inst.closers = append(inst.closers, fs)
		return &offsetSource{name: in.Name, inner: fs, pop: pop}, nil
	}
	return input.NewPoissonSource(in.Name, input.PoissonConfig{
		Neurons: pop.Indices(),
		Process: in.Process,
		RateHz:  in.Rate,
		CV:      in.CV,
		Start:   in.Start,
		Stop:    in.Stop,
	}, inst.RNG)
}

// NewSimulation creates a simulation of the instance with every source attached.
func (inst *Instance) NewSimulation() (*sim.Simulation, error) {
	s, err := sim.NewSimulation(inst.Network, inst.Config)
	if err != nil {
		return nil, err
	}
	for _, src := range inst.Sources {
		if err := s.AddSpikeSource(src); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Close releases the files opened by spike file inputs.
func (inst *Instance) Close() error {
	var errs []error
	for _, c := range inst.closers {
		errs = append(errs, c.Close())
	}
	inst.closers = nil
	return errors.Join(errs...)
}

// offsetSource maps population-relative neuron indices of a spike file to
// network indices.
type offsetSource struct {
	name  string
	inner sim.SpikeSource
	pop   PopulationRange
}

func (s *offsetSource) Name() string { return s.name }

func (s *offsetSource) NextSpike() (*sim.InputSpike, error) {
	spike, err := s.inner.NextSpike()
	if err != nil || spike == nil {
		return nil, err
	}
	if spike.Neuron >= s.pop.Count {
		return nil, sim.NewConfigurationError(s.name, 0, "neuron %d outside population of %d", spike.Neuron, s.pop.Count)
	}
	spike.Neuron += s.pop.First
	return spike, nil
}
