package integration

import "github.com/hybridsim/hybridsim/sim"

// RK4 is the classical fourth-order Runge-Kutta method. Time-dependent
// variables are evaluated at the half and full step in closed form.
type RK4 struct {
	fixedStep
	aux, half, k1, k2, k3, k4 []float64
}

// NewRK4 creates an RK4 stepper for size neurons.
func NewRK4(eq sim.DifferentialEquations, size int) *RK4 {
	r := &RK4{fixedStep: newFixedStep(eq, size)}
	r.aux, r.half = r.buffer(), r.buffer()
	r.k1, r.k2, r.k3, r.k4 = r.buffer(), r.buffer(), r.buffer(), r.buffer()
	return r
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Advance(i int, state *sim.VectorNeuronState, h float64) {
	advanceOne(r, i, state, h)
}

func (r *RK4) ResetState(int) {}

func (r *RK4) step(i, stride int, x []float64, h float64) {
	r.eq.EvaluateDifferential(i, stride, x, r.k1)

	// time-dependent variables at t+h/2, shared by k2 and k3
	r.copyTimeDependent(i, stride, r.half, x)
	r.eq.EvaluateTimeDependent(i, stride, r.half, h/2)

	r.eulerInto(i, stride, r.aux, x, r.k1, h/2)
	r.copyTimeDependent(i, stride, r.aux, r.half)
	r.eq.EvaluateDifferential(i, stride, r.aux, r.k2)

	r.eulerInto(i, stride, r.aux, x, r.k2, h/2)
	r.eq.EvaluateDifferential(i, stride, r.aux, r.k3)

	r.eulerInto(i, stride, r.aux, x, r.k3, h)
	r.copyTimeDependent(i, stride, r.aux, x)
	r.eq.EvaluateTimeDependent(i, stride, r.aux, h)
	r.eq.EvaluateDifferential(i, stride, r.aux, r.k4)

	for j := 0; j < r.nd; j++ {
		idx := j*stride + i
		x[idx] += h / 6 * (r.k1[idx] + 2*r.k2[idx] + 2*r.k3[idx] + r.k4[idx])
	}
	r.copyTimeDependent(i, stride, x, r.aux)
}
