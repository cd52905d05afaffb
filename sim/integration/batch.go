package integration

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hybridsim/hybridsim/sim"
)

// Batch runs a CPU method over the whole population as a data-parallel map.
// The population is split into contiguous neuron ranges, one per lane; each
// lane touches only its own neurons in the state and in the method's
// buffers, and AdvanceBatch returns once every lane has finished the step.
type Batch struct {
	inner  stepper
	size   int
	ranges [][2]int
}

var _ sim.BatchIntegrationMethod = (*Batch)(nil)

// NewBatch wraps a method created by NewEuler or NewRK2 (or any other
// constructor of this package) with workers lanes.
func NewBatch(inner sim.IntegrationMethod, workers int) *Batch {
	s, ok := inner.(stepper)
	if !ok {
		panic(fmt.Sprintf("NewBatch: %T is not a method of this package", inner))
	}
	f := s.base()
	if workers < 1 {
		workers = 1
	}
	if workers > f.size {
		workers = f.size
	}
	b := &Batch{inner: s, size: f.size}
	chunk := (f.size + workers - 1) / workers
	for lo := 0; lo < f.size; lo += chunk {
		b.ranges = append(b.ranges, [2]int{lo, min(lo+chunk, f.size)})
	}
	return b
}

func (b *Batch) Name() string { return "batch-" + b.inner.Name() }

// Lanes returns the number of parallel lanes.
func (b *Batch) Lanes() int { return len(b.ranges) }

// Advance steps a single neuron on the calling goroutine.
func (b *Batch) Advance(i int, state *sim.VectorNeuronState, h float64) {
	b.inner.Advance(i, state, h)
}

func (b *Batch) ResetState(i int) { b.inner.ResetState(i) }

// AdvanceBatch steps every neuron of state by h.
func (b *Batch) AdvanceBatch(state *sim.VectorNeuronState, h float64) error {
	if err := b.inner.base().checkState(state); err != nil {
		return fmt.Errorf("%s: %w", b.Name(), err)
	}
	x, stride := state.Values(), state.Size()
	var g errgroup.Group
	for _, r := range b.ranges {
		lo, hi := r[0], r[1]
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				b.inner.step(i, stride, x, h)
			}
			return nil
		})
	}
	return g.Wait()
}
