// Package plasticity provides the per-synapse trace states and the learning
// rules that turn spike timing into weight changes.
//
// Every state follows the advance-then-hook protocol of sim.ConnectionState:
// traces decay in closed form over the elapsed time, so the result of two
// consecutive advances equals one advance by their sum.
package plasticity

// traceState is the storage shared by the concrete states: a fixed-size
// array of trace variables plus the time they are up to date at.
type traceState struct {
	vars       []float64
	lastUpdate float64
}

func newTraceState(n int) traceState {
	return traceState{vars: make([]float64, n)}
}

// LastUpdateTime returns the time the traces were last advanced to.
func (s *traceState) LastUpdateTime() float64 { return s.lastUpdate }

// StateVariableAt returns trace variable i.
func (s *traceState) StateVariableAt(i int) float64 { return s.vars[i] }

// NumStateVariables returns the number of trace variables.
func (s *traceState) NumStateVariables() int { return len(s.vars) }

func (s *traceState) printable(params ...float64) []float64 {
	out := make([]float64, 0, len(s.vars)+len(params))
	out = append(out, s.vars...)
	return append(out, params...)
}
