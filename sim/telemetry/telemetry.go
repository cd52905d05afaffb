// Package telemetry exposes simulation activity as Prometheus metrics. The
// Collector is both a spike/state/weight sink and the holder of the run
// gauges; it registers on a caller-provided registry.
package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hybridsim/hybridsim/sim"
)

const namespace = "hybridsim"

// Collector records network activity while the simulation runs.
type Collector struct {
	spikes          *prometheus.CounterVec
	isi             *prometheus.HistogramVec
	stateSamples    prometheus.Counter
	weightSnapshots prometheus.Counter
	meanWeight      prometheus.Gauge

	events        prometheus.Gauge
	propagated    prometheus.Gauge
	meanQueueSize prometheus.Gauge
	simulatedMs   prometheus.Gauge

	lastSpike map[int]float64
}

var (
	_ sim.SpikeSink  = (*Collector)(nil)
	_ sim.StateSink  = (*Collector)(nil)
	_ sim.WeightSink = (*Collector)(nil)
)

// NewCollector creates the metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		spikes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "network",
				Name:      "spikes_total",
				Help:      "Total number of accepted firings",
			},
			[]string{"population"},
		),
		isi: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "network",
				Name:      "interspike_interval_ms",
				Help:      "Interval between successive firings of a neuron in milliseconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
			},
			[]string{"population"},
		),
		stateSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "state_samples_total",
			Help:      "Total number of monitored state samples",
		}),
		weightSnapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "weight_snapshots_total",
			Help:      "Total number of weight save steps",
		}),
		meanWeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "taught_weight_mean",
			Help:      "Mean weight of the taught connections at the last save step",
		}),
		events: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_processed",
			Help:      "Events processed by the last run",
		}),
		propagated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "propagated_spikes",
			Help:      "Propagated spike events processed by the last run",
		}),
		meanQueueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "queue_size_mean",
			Help:      "Mean event queue length over the last run",
		}),
		simulatedMs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "simulated_time_ms",
			Help:      "Simulation clock at the end of the last run",
		}),
		lastSpike: make(map[int]float64),
	}
	for _, m := range []prometheus.Collector{
		c.spikes, c.isi, c.stateSamples, c.weightSnapshots, c.meanWeight,
		c.events, c.propagated, c.meanQueueSize, c.simulatedMs,
	} {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("registering telemetry: %w", err)
		}
	}
	return c, nil
}

func (c *Collector) OnSpike(t float64, n *sim.Neuron) {
	pop := n.Model().ModelID()
	c.spikes.WithLabelValues(pop).Inc()
	if last, ok := c.lastSpike[n.Index()]; ok {
		c.isi.WithLabelValues(pop).Observe(t - last)
	}
	c.lastSpike[n.Index()] = t
}

func (c *Collector) OnStateSample(float64, *sim.Neuron) {
	c.stateSamples.Inc()
}

func (c *Collector) OnWeights(_ float64, conns []*sim.Interconnection) error {
	c.weightSnapshots.Inc()
	if len(conns) == 0 {
		return nil
	}
	sum := 0.0
	for _, conn := range conns {
		sum += conn.Weight
	}
	c.meanWeight.Set(sum / float64(len(conns)))
	return nil
}

// ObserveRun sets the engine gauges from the counters of s.
func (c *Collector) ObserveRun(s *sim.Simulation) {
	c.events.Set(float64(s.Updates()))
	c.propagated.Set(float64(s.PropagatedSpikes()))
	c.meanQueueSize.Set(s.MeanQueueSize())
	c.simulatedMs.Set(s.Clock())
}

// WriteTextfile writes everything gathered by g to path in the text
// exposition format, for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return sim.NewConnectionError(path, err)
	}
	return nil
}
