package integration

import "github.com/hybridsim/hybridsim/sim"

// bdf2CorrectorIterations is the number of fixed-point corrector passes per step.
const bdf2CorrectorIterations = 4

// BDF2 is the second-order backward differentiation formula
//
//	x[n+1] = 4/3 x[n] - 1/3 x[n-1] + 2/3 h f(x[n+1])
//
// solved by fixed-point iteration from an explicit Euler predictor. The first
// step after construction or ResetState has no history and uses backward
// Euler instead. Time-dependent variables are advanced in closed form first,
// so the implicit evaluation sees them at t+h.
type BDF2 struct {
	fixedStep
	prev     []float64 // x[n-1], differential variables only
	hasPrev  []bool
	xn, k, y []float64
}

// NewBDF2 creates a BDF2 stepper for size neurons.
func NewBDF2(eq sim.DifferentialEquations, size int) *BDF2 {
	b := &BDF2{fixedStep: newFixedStep(eq, size)}
	b.prev, b.xn, b.k, b.y = b.buffer(), b.buffer(), b.buffer(), b.buffer()
	b.hasPrev = make([]bool, size)
	return b
}

func (b *BDF2) Name() string { return "bdf2" }

func (b *BDF2) Advance(i int, state *sim.VectorNeuronState, h float64) {
	advanceOne(b, i, state, h)
}

// ResetState drops the history of neuron i.
func (b *BDF2) ResetState(i int) {
	b.hasPrev[i] = false
}

func (b *BDF2) step(i, stride int, x []float64, h float64) {
	for j := 0; j < b.nd; j++ {
		idx := j*stride + i
		b.xn[idx] = x[idx]
	}
	b.eq.EvaluateTimeDependent(i, stride, x, h)

	// predictor: explicit Euler, written into y with the advanced time-dependent variables
	b.copyTimeDependent(i, stride, b.y, x)
	b.eq.EvaluateDifferential(i, stride, x, b.k)
	b.eulerInto(i, stride, b.y, b.xn, b.k, h)

	for it := 0; it < bdf2CorrectorIterations; it++ {
		b.eq.EvaluateDifferential(i, stride, b.y, b.k)
		for j := 0; j < b.nd; j++ {
			idx := j*stride + i
			if b.hasPrev[i] {
				b.y[idx] = 4.0/3*b.xn[idx] - 1.0/3*b.prev[idx] + 2.0/3*h*b.k[idx]
			} else {
				b.y[idx] = b.xn[idx] + h*b.k[idx]
			}
		}
	}

	for j := 0; j < b.nd; j++ {
		idx := j*stride + i
		b.prev[idx] = b.xn[idx]
		x[idx] = b.y[idx]
	}
	b.hasPrev[i] = true
}
