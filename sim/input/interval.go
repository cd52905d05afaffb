package input

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// IntervalSampler draws inter-spike intervals in milliseconds.
type IntervalSampler interface {
	// SampleISI returns the next interval. Always returns a positive value.
	SampleISI(rng *rand.Rand) float64
}

// minISI keeps successive spikes of one neuron strictly ordered.
const minISI = 1e-9

// PoissonSampler draws exponential intervals (CV = 1).
type PoissonSampler struct {
	ratePerMs float64
}

func (s *PoissonSampler) SampleISI(rng *rand.Rand) float64 {
	return math.Max(rng.ExpFloat64()/s.ratePerMs, minISI)
}

// GammaSampler draws Gamma-distributed intervals. CV > 1 gives bursty
// trains, CV < 1 more regular ones. Marsaglia-Tsang for shape >= 1,
// boosted for shape < 1.
type GammaSampler struct {
	shape float64 // 1/CV²
	scale float64 // CV²/rate in ms
}

func (s *GammaSampler) SampleISI(rng *rand.Rand) float64 {
	return math.Max(gammaRand(rng, s.shape, s.scale), minISI)
}

// gammaRand samples from Gamma(shape, scale).
// For shape < 1: Gamma(shape) = Gamma(shape+1) * U^(1/shape).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		// Squeeze test
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// NewIntervalSampler creates a sampler for process ("poisson" or "gamma") at
// rateHz spikes per second. cv is ignored for poisson.
func NewIntervalSampler(process string, rateHz, cv float64) IntervalSampler {
	ratePerMs := rateHz / 1000
	if ratePerMs < 1e-15 {
		ratePerMs = 1e-15
	}
	if process != "gamma" {
		return &PoissonSampler{ratePerMs: ratePerMs}
	}
	if cv <= 0 {
		cv = 1.0
	}
	shape := 1.0 / (cv * cv)
	if shape < 0.01 {
		logrus.Warnf("Gamma shape %.4f (CV=%.1f) is very small; falling back to Poisson", shape, cv)
		return &PoissonSampler{ratePerMs: ratePerMs}
	}
	return &GammaSampler{shape: shape, scale: cv * cv / ratePerMs}
}
