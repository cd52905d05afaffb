package integration

import "github.com/hybridsim/hybridsim/sim"

// RK2 is the second-order Runge-Kutta (Heun) method. The intermediate state
// is a full Euler step whose time-dependent variables are advanced by the
// whole step; the differential variables take the mean of both slopes and the
// time-dependent ones are copied from the intermediate state.
type RK2 struct {
	fixedStep
	aux, k1, k2 []float64
}

// NewRK2 creates an RK2 stepper for size neurons.
func NewRK2(eq sim.DifferentialEquations, size int) *RK2 {
	r := &RK2{fixedStep: newFixedStep(eq, size)}
	r.aux, r.k1, r.k2 = r.buffer(), r.buffer(), r.buffer()
	return r
}

func (r *RK2) Name() string { return "rk2" }

func (r *RK2) Advance(i int, state *sim.VectorNeuronState, h float64) {
	advanceOne(r, i, state, h)
}

func (r *RK2) ResetState(int) {}

func (r *RK2) step(i, stride int, x []float64, h float64) {
	r.eq.EvaluateDifferential(i, stride, x, r.k1)
	r.eulerInto(i, stride, r.aux, x, r.k1, h)
	r.copyTimeDependent(i, stride, r.aux, x)
	r.eq.EvaluateTimeDependent(i, stride, r.aux, h)
	r.eq.EvaluateDifferential(i, stride, r.aux, r.k2)

	for j := 0; j < r.nd; j++ {
		idx := j*stride + i
		x[idx] += (r.k1[idx] + r.k2[idx]) * h * 0.5
	}
	r.copyTimeDependent(i, stride, x, r.aux)
}
