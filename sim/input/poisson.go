package input

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand"

	"github.com/hybridsim/hybridsim/sim"
)

// PoissonConfig describes a stochastic input drive.
type PoissonConfig struct {
	// Neurons are the network indices receiving independent spike trains.
	Neurons []int
	// Process is "poisson" or "gamma".
	Process string
	RateHz  float64
	// CV is the coefficient of variation of the gamma process.
	CV float64
	// Start and Stop bound the generated spikes; Stop <= 0 means unbounded.
	Start, Stop float64
}

func (c PoissonConfig) validate(name string) error {
	if len(c.Neurons) == 0 {
		return sim.NewConfigurationError(name, 0, "no target neurons")
	}
	if c.Process != "poisson" && c.Process != "gamma" {
		return sim.NewConfigurationError(name, 0, "unknown process %q (valid: poisson, gamma)", c.Process)
	}
	if !(c.RateHz > 0) || math.IsInf(c.RateHz, 0) {
		return sim.NewConfigurationError(name, 0, "rate must be positive and finite, got %g", c.RateHz)
	}
	if c.Start < 0 || math.IsNaN(c.Start) {
		return sim.NewConfigurationError(name, 0, "start must be non-negative, got %g", c.Start)
	}
	if c.Stop > 0 && c.Stop <= c.Start {
		return sim.NewConfigurationError(name, 0, "stop (%g) must be after start (%g)", c.Stop, c.Start)
	}
	for _, n := range c.Neurons {
		if n < 0 {
			return sim.NewConfigurationError(name, 0, "negative neuron index %d", n)
		}
	}
	return nil
}

// PoissonSource merges independent renewal spike trains, one per target
// neuron, into a single time-ordered stream. Ties are broken by neuron order.
type PoissonSource struct {
	name    string
	cfg     PoissonConfig
	sampler IntervalSampler
	rng     *rand.Rand
	pending pendingSpikes
}

var _ sim.SpikeSource = (*PoissonSource)(nil)

// NewPoissonSource creates a source drawing from the input subsystem of rng
// named after name, so each input stream is reproducible in isolation.
func NewPoissonSource(name string, cfg PoissonConfig, rng *sim.PartitionedRNG) (*PoissonSource, error) {
	if rng == nil {
		panic("NewPoissonSource: rng must not be nil")
	}
	if err := cfg.validate(name); err != nil {
		return nil, err
	}
	s := &PoissonSource{
		name:    name,
		cfg:     cfg,
		sampler: NewIntervalSampler(cfg.Process, cfg.RateHz, cfg.CV),
		rng:     rng.ForSubsystem(sim.SubsystemInput(name)),
	}
	s.pending = make(pendingSpikes, 0, len(cfg.Neurons))
	for k, n := range cfg.Neurons {
		s.pending = append(s.pending, pendingSpike{time: cfg.Start + s.sampler.SampleISI(s.rng), neuron: n, order: k})
	}
	heap.Init(&s.pending)
	return s, nil
}

// Name implements sim.Named.
func (s *PoissonSource) Name() string { return s.name }

// NextSpike pops the earliest pending spike and draws that neuron's successor.
func (s *PoissonSource) NextSpike() (*sim.InputSpike, error) {
	if len(s.pending) == 0 {
		return nil, nil
	}
	next := s.pending[0]
	if s.cfg.Stop > 0 && next.time >= s.cfg.Stop {
		s.pending = s.pending[:0]
		return nil, nil
	}
	s.pending[0].time += s.sampler.SampleISI(s.rng)
	heap.Fix(&s.pending, 0)
	return &sim.InputSpike{Time: next.time, Neuron: next.neuron}, nil
}

func (s *PoissonSource) String() string {
	return fmt.Sprintf("%s(%s %.1f Hz -> %d neurons)", s.name, s.cfg.Process, s.cfg.RateHz, len(s.cfg.Neurons))
}

type pendingSpike struct {
	time   float64
	neuron int
	order  int
}

type pendingSpikes []pendingSpike

func (p pendingSpikes) Len() int { return len(p) }
func (p pendingSpikes) Less(i, j int) bool {
	if p[i].time != p[j].time {
		return p[i].time < p[j].time
	}
	return p[i].order < p[j].order
}
func (p pendingSpikes) Swap(i, j int) { p[i], p[j] = p[j], p[i] }
func (p *pendingSpikes) Push(x any)   { *p = append(*p, x.(pendingSpike)) }
func (p *pendingSpikes) Pop() any {
	old := *p
	n := len(old)
	x := old[n-1]
	*p = old[:n-1]
	return x
}
