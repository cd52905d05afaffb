package integration

import "github.com/hybridsim/hybridsim/sim"

// Euler is the explicit first-order method.
type Euler struct {
	fixedStep
	k []float64
}

// NewEuler creates an Euler stepper for size neurons.
func NewEuler(eq sim.DifferentialEquations, size int) *Euler {
	e := &Euler{fixedStep: newFixedStep(eq, size)}
	e.k = e.buffer()
	return e
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Advance(i int, state *sim.VectorNeuronState, h float64) {
	advanceOne(e, i, state, h)
}

func (e *Euler) ResetState(int) {}

func (e *Euler) step(i, stride int, x []float64, h float64) {
	e.eq.EvaluateDifferential(i, stride, x, e.k)
	e.eulerInto(i, stride, x, x, e.k, h)
	e.eq.EvaluateTimeDependent(i, stride, x, h)
}
