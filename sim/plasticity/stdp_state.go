package plasticity

import "math"

// STDPState keeps an exponentially decaying presynaptic trace (variable 0,
// time constant tauLTP) and postsynaptic trace (variable 1, tauLTD).
type STDPState struct {
	traceState
	tauLTP float64
	tauLTD float64
}

// NewSTDPState creates zeroed traces. Panics on non-positive time constants.
func NewSTDPState(tauLTP, tauLTD float64) *STDPState {
	if !(tauLTP > 0) || !(tauLTD > 0) {
		panic("NewSTDPState: time constants must be positive")
	}
	return &STDPState{traceState: newTraceState(2), tauLTP: tauLTP, tauLTD: tauLTD}
}

// AddElapsedTime decays both traces over elapsed and moves the update time forward.
func (s *STDPState) AddElapsedTime(elapsed float64) {
	s.vars[0] *= math.Exp(-elapsed / s.tauLTP)
	s.vars[1] *= math.Exp(-elapsed / s.tauLTD)
	s.lastUpdate += elapsed
}

// ApplyPresynapticSpike adds one to the presynaptic trace.
func (s *STDPState) ApplyPresynapticSpike() { s.vars[0]++ }

// ApplyPostsynapticSpike adds one to the postsynaptic trace.
func (s *STDPState) ApplyPostsynapticSpike() { s.vars[1]++ }

func (s *STDPState) PresynapticActivity() float64  { return s.vars[0] }
func (s *STDPState) PostsynapticActivity() float64 { return s.vars[1] }

// PrintableValues returns pre, post, tauLTP, tauLTD.
func (s *STDPState) PrintableValues() []float64 {
	return s.printable(s.tauLTP, s.tauLTD)
}
