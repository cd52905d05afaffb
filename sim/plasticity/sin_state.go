package plasticity

import (
	"fmt"
	"math"
)

// MaxSinExponent is the largest supported kernel exponent.
const MaxSinExponent = 20

const (
	sinLUTSize    = 1000
	minSinMaxpos  = 1e-6
	sinTermsCount = MaxSinExponent/2 + 1
)

// sinTerms[m] holds the Fourier coefficients of sin^(2m): entry 0 is the
// constant term, entry k the coefficient of cos(2k x).
// sinLUT interleaves sin and cos of k*sinLUTStep for k in [0, sinLUTSize).
var (
	sinTerms   [sinTermsCount][sinTermsCount]float64
	sinLUT     [2 * sinLUTSize]float64
	sinLUTStep = 2 * math.Pi / sinLUTSize
)

func init() {
	for m := 0; m < sinTermsCount; m++ {
		scale := math.Pow(4, -float64(m))
		sinTerms[m][0] = binomial(2*m, m) * scale
		for k := 1; k <= m; k++ {
			sign := 1.0
			if k%2 == 1 {
				sign = -1
			}
			sinTerms[m][k] = 2 * sign * binomial(2*m, m-k) * scale
		}
	}
	for i := 0; i < sinLUTSize; i++ {
		sinLUT[2*i] = math.Sin(sinLUTStep * float64(i))
		sinLUT[2*i+1] = math.Cos(sinLUTStep * float64(i))
	}
}

func binomial(n, k int) float64 {
	r := 1.0
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	return r
}

// lookupSinCos returns sin and cos of angle sampled from the table.
// The angle is reduced to one period, then truncated to the sample at or
// below it. Negative and non-finite angles map to sample 0.
func lookupSinCos(angle float64) (sin, cos float64) {
	angle = math.Mod(angle, 2*math.Pi)
	if !(angle > 0) {
		return sinLUT[0], sinLUT[1]
	}
	idx := int(angle/sinLUTStep) % sinLUTSize
	return sinLUT[2*idx], sinLUT[2*idx+1]
}

// SinState tracks the activity of a kernel e^(-t/tau) sin(t/tau)^p, summed
// over the presynaptic spikes, peaking at maxpos after each spike.
//
// Variables: 0 activity, 1 exponential term, then (cos, sin) pairs for the
// even harmonics 2, 4, ..., p. The kernel is expanded as
// e^(-x) (a0 + sum_k a_k cos(2k x)), so each harmonic rotates and decays in
// closed form between spikes.
type SinState struct {
	traceState
	exponent int
	maxpos   float64
	tau      float64
	factor   float64
}

// NewSinState creates a state for the given even exponent (0..20) and peak
// position. maxpos values <= 0 are raised to a small positive minimum.
func NewSinState(exponent int, maxpos float64) (*SinState, error) {
	if err := validateSinExponent(exponent); err != nil {
		return nil, err
	}
	if !(maxpos > 0) {
		maxpos = minSinMaxpos
	}
	s := &SinState{
		traceState: newTraceState(exponent + 2),
		exponent:   exponent,
		maxpos:     maxpos,
	}
	if exponent == 0 {
		s.tau = maxpos
		s.factor = 1
	} else {
		a := math.Atan(float64(exponent))
		s.tau = maxpos / a
		s.factor = 1 / (math.Exp(-a) * math.Pow(math.Sin(a), float64(exponent)))
	}
	return s, nil
}

func validateSinExponent(p int) error {
	if p < 0 || p > MaxSinExponent || p%2 != 0 {
		return fmt.Errorf("sin exponent must be an even number in [0, %d], got %d", MaxSinExponent, p)
	}
	return nil
}

// Exponent returns the kernel exponent.
func (s *SinState) Exponent() int { return s.exponent }

// Tau returns the kernel time constant.
func (s *SinState) Tau() float64 { return s.tau }

// AddElapsedTime decays and rotates the harmonics over elapsed, then
// recomputes the activity.
func (s *SinState) AddElapsedTime(elapsed float64) {
	rel := elapsed / s.tau
	decay := math.Exp(-rel)
	terms := &sinTerms[s.exponent/2]

	s.lastUpdate += elapsed
	if decay == 0 {
		for i := range s.vars {
			s.vars[i] = 0
		}
		return
	}

	s.vars[1] *= decay
	activity := terms[0] * s.vars[1]
	for k, grade := 1, 2; grade <= s.exponent; k, grade = k+1, grade+2 {
		c, sn := s.vars[grade], s.vars[grade+1]
		sinA, cosA := lookupSinCos(float64(grade) * rel)
		s.vars[grade] = (c*cosA - sn*sinA) * decay
		s.vars[grade+1] = (sn*cosA + c*sinA) * decay
		activity += terms[k] * s.vars[grade]
	}
	s.vars[0] = s.factor * activity
}

// ApplyPresynapticSpike starts a new kernel: the exponential and every cosine term gain one.
func (s *SinState) ApplyPresynapticSpike() {
	s.vars[1]++
	for grade := 2; grade <= s.exponent; grade += 2 {
		s.vars[grade]++
	}
}

// ApplyPostsynapticSpike has no effect on the kernel.
func (s *SinState) ApplyPostsynapticSpike() {}

// PresynapticActivity returns the kernel activity as of the last advance.
func (s *SinState) PresynapticActivity() float64 { return s.vars[0] }

func (s *SinState) PostsynapticActivity() float64 { return 0 }

// PrintableValues returns the variables followed by exponent and maxpos.
func (s *SinState) PrintableValues() []float64 {
	return s.printable(float64(s.exponent), s.maxpos)
}
