package output

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates firing statistics of a Recorder over an observation window.
type Summary struct {
	TotalSpikes   int
	ActiveNeurons int     // neurons with at least one spike
	MeanRate      float64 // Hz, over the observed neurons
	StdRate       float64
	MeanISI       float64 // ms, pooled over all neurons
	CVISI         float64 // coefficient of variation of the pooled intervals
	Rates         map[int]float64
}

// Summarize computes firing statistics of neurons over [0, duration] ms.
// A nil neurons slice observes every neuron that fired.
// Safe for an empty recorder or a non-positive duration (zero-value fields).
func Summarize(r *Recorder, neurons []int, duration float64) *Summary {
	summary := &Summary{Rates: make(map[int]float64)}
	if r == nil || duration <= 0 {
		return summary
	}

	trains := make(map[int][]float64)
	for _, s := range r.Spikes {
		if s.Time <= duration {
			trains[s.Neuron] = append(trains[s.Neuron], s.Time)
		}
	}
	if neurons == nil {
		for n := range trains {
			neurons = append(neurons, n)
		}
		sort.Ints(neurons)
	}
	if len(neurons) == 0 {
		return summary
	}

	rates := make([]float64, len(neurons))
	var isis []float64
	for k, n := range neurons {
		train := trains[n]
		summary.TotalSpikes += len(train)
		if len(train) > 0 {
			summary.ActiveNeurons++
		}
		rates[k] = float64(len(train)) / (duration / 1000)
		summary.Rates[n] = rates[k]
		for i := 1; i < len(train); i++ {
			isis = append(isis, train[i]-train[i-1])
		}
	}

	summary.MeanRate = stat.Mean(rates, nil)
	if len(rates) > 1 {
		summary.StdRate = stat.StdDev(rates, nil)
	}
	if len(isis) > 0 {
		summary.MeanISI = stat.Mean(isis, nil)
	}
	if len(isis) > 1 && summary.MeanISI > 0 {
		summary.CVISI = stat.StdDev(isis, nil) / summary.MeanISI
	}
	if math.IsNaN(summary.CVISI) {
		summary.CVISI = 0
	}
	return summary
}
