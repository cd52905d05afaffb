package sim

import (
	"fmt"
	"io"
	"time"
)

// RunReport aggregates the statistics of a completed run for final reporting.
type RunReport struct {
	SimulatedTime    float64 // clock at the end of the run (ms)
	Neurons          int
	Connections      int
	TotalSpikes      int64
	PropagatedSpikes int64
	Updates          int64 // events processed
	MeanQueueSize    float64
	Elapsed          time.Duration
}

// NewRunReport snapshots the counters of sim.
func NewRunReport(sim *Simulation) RunReport {
	return RunReport{
		SimulatedTime:    sim.Clock(),
		Neurons:          len(sim.network.Neurons()),
		Connections:      len(sim.network.Connections()),
		TotalSpikes:      sim.TotalSpikes(),
		PropagatedSpikes: sim.PropagatedSpikes(),
		Updates:          sim.Updates(),
		MeanQueueSize:    sim.MeanQueueSize(),
		Elapsed:          sim.Elapsed(),
	}
}

// UpdatesPerSecond returns processed events per wall-clock second, 0 for an
// instantaneous run.
func (r RunReport) UpdatesPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Updates) / r.Elapsed.Seconds()
}

// MeanFiringRate returns spikes per neuron per simulated second (Hz).
func (r RunReport) MeanFiringRate() float64 {
	if r.Neurons == 0 || r.SimulatedTime <= 0 {
		return 0
	}
	return float64(r.TotalSpikes) / float64(r.Neurons) / (r.SimulatedTime / 1000)
}

// Print writes the report to w.
func (r RunReport) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Simulated Time       : %.3f ms\n", r.SimulatedTime)
	fmt.Fprintf(w, "Network              : %d neurons, %d connections\n", r.Neurons, r.Connections)
	fmt.Fprintf(w, "Spikes               : %d (%.2f Hz per neuron)\n", r.TotalSpikes, r.MeanFiringRate())
	fmt.Fprintf(w, "Propagated Spikes    : %d\n", r.PropagatedSpikes)
	fmt.Fprintf(w, "Updates              : %d\n", r.Updates)
	fmt.Fprintf(w, "Mean Heap Size       : %.2f\n", r.MeanQueueSize)
	fmt.Fprintf(w, "Elapsed              : %s\n", r.Elapsed)
	if r.Elapsed > 0 {
		fmt.Fprintf(w, "Updates per Second   : %.0f\n", r.UpdatesPerSecond())
	}
}
