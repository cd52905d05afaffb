// Package integration provides the fixed-step integration methods that
// advance the differential variables of time-driven neuron models.
//
// All methods work on the variable-major layout of sim.VectorNeuronState:
// variable j of neuron i lives at values[j*stride+i]. Auxiliary buffers use
// the same layout and are allocated once per method, sized to the population,
// so a step never allocates and disjoint neurons never share memory. This is
// what lets the batch variants run neuron ranges on parallel lanes.
package integration

import (
	"fmt"
	"sort"

	"github.com/hybridsim/hybridsim/sim"
)

// stepper is implemented by every CPU method: one fixed step of neuron i.
type stepper interface {
	sim.IntegrationMethod
	step(i, stride int, x []float64, h float64)
	base() *fixedStep
}

// fixedStep holds what every method needs to know about the population.
type fixedStep struct {
	eq   sim.DifferentialEquations
	size int
	nv   int
	nd   int
}

func newFixedStep(eq sim.DifferentialEquations, size int) fixedStep {
	if eq == nil {
		panic("integration: equations must not be nil")
	}
	if size < 1 {
		panic(fmt.Sprintf("integration: population size must be >= 1, got %d", size))
	}
	nv, nd := eq.NumStateVariables(), eq.NumDifferentialVariables()
	if nd < 0 || nd > nv {
		panic(fmt.Sprintf("integration: %d differential variables out of %d", nd, nv))
	}
	return fixedStep{eq: eq, size: size, nv: nv, nd: nd}
}

func (f *fixedStep) base() *fixedStep { return f }

func (f *fixedStep) buffer() []float64 { return make([]float64, f.nv*f.size) }

func (f *fixedStep) checkState(state *sim.VectorNeuronState) error {
	if state.Size() != f.size || state.NumStateVariables() != f.nv {
		return fmt.Errorf("state holds %d neurons x %d variables, method was built for %d x %d",
			state.Size(), state.NumStateVariables(), f.size, f.nv)
	}
	return nil
}

// advanceOne is the shared body of Advance for the CPU methods.
func advanceOne(s stepper, i int, state *sim.VectorNeuronState, h float64) {
	if err := s.base().checkState(state); err != nil {
		panic(fmt.Sprintf("%s.Advance: %v", s.Name(), err))
	}
	s.step(i, state.Size(), state.Values(), h)
}

// copyTimeDependent copies the time-dependent variables of neuron i from src to dst.
func (f *fixedStep) copyTimeDependent(i, stride int, dst, src []float64) {
	for j := f.nd; j < f.nv; j++ {
		dst[j*stride+i] = src[j*stride+i]
	}
}

// eulerInto writes dst = x + k*h for the differential variables of neuron i.
func (f *fixedStep) eulerInto(i, stride int, dst, x, k []float64, h float64) {
	for j := 0; j < f.nd; j++ {
		idx := j*stride + i
		dst[idx] = x[idx] + k[idx]*h
	}
}

var validMethodNames = map[string]bool{
	"euler":       true,
	"rk2":         true,
	"rk4":         true,
	"bdf2":        true,
	"batch-euler": true,
	"batch-rk2":   true,
}

// IsValidMethod reports whether name is a known integration method.
func IsValidMethod(name string) bool { return validMethodNames[name] }

// ValidMethodNames returns the known method names, sorted.
func ValidMethodNames() []string {
	names := make([]string, 0, len(validMethodNames))
	for n := range validMethodNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New creates the method called name for a population of size neurons
// governed by eq. workers bounds the lanes of the batch methods (<= 0 means 1).
func New(name string, eq sim.DifferentialEquations, size, workers int) (sim.IntegrationMethod, error) {
	if !IsValidMethod(name) {
		return nil, sim.NewConfigurationError("integration", 0, "unknown integration method %q (valid: %v)", name, ValidMethodNames())
	}
	switch name {
	case "euler":
		return NewEuler(eq, size), nil
	case "rk2":
		return NewRK2(eq, size), nil
	case "rk4":
		return NewRK4(eq, size), nil
	case "bdf2":
		return NewBDF2(eq, size), nil
	case "batch-euler":
		return NewBatch(NewEuler(eq, size), workers), nil
	case "batch-rk2":
		return NewBatch(NewRK2(eq, size), workers), nil
	default:
		panic(fmt.Sprintf("unhandled integration method %q", name))
	}
}
