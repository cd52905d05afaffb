package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hybridsim/hybridsim/sim"
	"github.com/hybridsim/hybridsim/sim/experiment"
	"github.com/hybridsim/hybridsim/sim/output"
	"github.com/hybridsim/hybridsim/sim/telemetry"
)

var (
	// CLI flags shared by run and info
	configPath string  // Experiment file (.yaml, .toml, .json)
	logLevel   string  // Log verbosity level
	seed       int64   // Overrides simulation.seed when set
	horizon    float64 // Overrides simulation.horizon when > 0
	workers    int     // Overrides the batch lanes of time-driven populations when > 0

	// CLI flags for run outputs
	spikeLog        string  // Spike log path ("time neuron" lines)
	weightsOut      string  // Weight snapshot path (YAML stream)
	saveStep        float64 // Overrides simulation.save_weight_step when > 0
	metricsTextfile string  // Prometheus textfile path
	logSpikes       bool    // Report every spike through the logger at debug level
	printSummary    bool    // Print per-population firing statistics
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "hybridsim",
	Short: "Hybrid event-driven / time-driven spiking network simulator",
}

// runOptions gathers the flags of one run so the run can be driven from tests.
type runOptions struct {
	configPath      string
	seed            *int64
	horizon         float64
	workers         int
	spikeLog        string
	weightsOut      string
	saveStep        float64
	metricsTextfile string
	logSpikes       bool
	summary         bool
}

// runCmd executes the simulation described by the experiment file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		opts := runOptions{
			configPath:      configPath,
			horizon:         horizon,
			workers:         workers,
			spikeLog:        spikeLog,
			weightsOut:      weightsOut,
			saveStep:        saveStep,
			metricsTextfile: metricsTextfile,
			logSpikes:       logSpikes,
			summary:         printSummary,
		}
		if cmd.Flags().Changed("seed") {
			opts.seed = &seed
		}
		if err := runExperiment(opts, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadExperiment reads the experiment file and applies the flag overrides.
func loadExperiment(opts runOptions) (*experiment.Experiment, error) {
	if opts.configPath == "" {
		return nil, fmt.Errorf("experiment file not provided (--config)")
	}
	exp, err := experiment.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.seed != nil {
		exp.Simulation.Seed = *opts.seed
	}
	if opts.horizon > 0 {
		exp.Simulation.Horizon = opts.horizon
	}
	if opts.saveStep > 0 {
		exp.Simulation.SaveWeightStep = opts.saveStep
	}
	if opts.workers > 0 {
		exp.SetWorkers(opts.workers)
	}
	return exp, nil
}

func runExperiment(opts runOptions, stdout io.Writer) (err error) {
	exp, err := loadExperiment(opts)
	if err != nil {
		return err
	}
	inst, err := experiment.Build(exp)
	if err != nil {
		return err
	}
	defer closeWith(&err, inst)

	runID := xid.New().String()
	logrus.Infof("Starting run %s from %s: horizon=%g ms, seed=%d", runID, opts.configPath, inst.Config.Horizon, exp.Simulation.Seed)

	s, err := inst.NewSimulation()
	if err != nil {
		return err
	}

	var recorder *output.Recorder
	if opts.summary {
		recorder = output.NewRecorder()
		if err := s.AddSpikeSink(recorder); err != nil {
			return err
		}
	}
	if opts.logSpikes {
		sink := output.NewLogSink(nil, logrus.DebugLevel)
		if err := s.AddSpikeSink(sink); err != nil {
			return err
		}
		if err := s.AddStateSink(sink); err != nil {
			return err
		}
	}
	if opts.spikeLog != "" {
		sw, cerr := output.CreateSpikeWriter(opts.spikeLog)
		if cerr != nil {
			return cerr
		}
		defer closeWith(&err, sw)
		if err := s.AddSpikeSink(sw); err != nil {
			return err
		}
	}
	if opts.weightsOut != "" {
		ww, cerr := output.CreateWeightWriter(opts.weightsOut, runID)
		if cerr != nil {
			return cerr
		}
		defer closeWith(&err, ww)
		if err := s.AddWeightSink(ww); err != nil {
			return err
		}
	}
	var registry *prometheus.Registry
	var collector *telemetry.Collector
	if opts.metricsTextfile != "" {
		registry = prometheus.NewRegistry()
		collector, err = telemetry.NewCollector(registry)
		if err != nil {
			return err
		}
		if err := s.AddSpikeSink(collector); err != nil {
			return err
		}
		if err := s.AddStateSink(collector); err != nil {
			return err
		}
		if err := s.AddWeightSink(collector); err != nil {
			return err
		}
	}

	if err := s.Build(); err != nil {
		return err
	}
	if err := s.Run(); err != nil {
		return err
	}

	sim.NewRunReport(s).Print(stdout)
	if recorder != nil {
		printPopulationSummary(stdout, inst, recorder, s.Clock())
	}
	if collector != nil {
		collector.ObserveRun(s)
		if err := telemetry.WriteTextfile(opts.metricsTextfile, registry); err != nil {
			return err
		}
	}
	return nil
}

// closeWith closes c and keeps its error unless an earlier one is set.
func closeWith(err *error, c io.Closer) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func printPopulationSummary(w io.Writer, inst *experiment.Instance, rec *output.Recorder, duration float64) {
	names := make([]string, 0, len(inst.Populations))
	for name := range inst.Populations {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return inst.Populations[names[i]].First < inst.Populations[names[j]].First
	})
	fmt.Fprintln(w, "=== Population Activity ===")
	for _, name := range names {
		sum := output.Summarize(rec, inst.Populations[name].Indices(), duration)
		fmt.Fprintf(w, "%-20s: %d spikes, %d/%d active, rate %.2f ± %.2f Hz, ISI CV %.2f\n",
			name, sum.TotalSpikes, sum.ActiveNeurons, inst.Populations[name].Count, sum.MeanRate, sum.StdRate, sum.CVISI)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, infoCmd} {
		c.Flags().StringVar(&configPath, "config", "", "Experiment file (.yaml, .yml, .toml, .json)")
		c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
		c.Flags().Int64Var(&seed, "seed", 0, "Seed for topology, weights and inputs (overrides the experiment)")
		c.Flags().Float64Var(&horizon, "horizon", 0, "Simulation horizon in ms (overrides the experiment)")
		c.Flags().IntVar(&workers, "workers", 0, "Lanes of the batch integrators (overrides the experiment)")
	}

	// Run outputs
	runCmd.Flags().StringVar(&spikeLog, "spike-log", "", "Write every spike as a \"time neuron\" line to this file")
	runCmd.Flags().StringVar(&weightsOut, "weights-out", "", "Write taught weights as YAML snapshots to this file")
	runCmd.Flags().Float64Var(&saveStep, "save-step", 0, "Interval between weight snapshots in ms (overrides the experiment)")
	runCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this textfile")
	runCmd.Flags().BoolVar(&logSpikes, "log-spikes", false, "Log every spike and state sample at debug level")
	runCmd.Flags().BoolVar(&printSummary, "summary", false, "Print per-population firing statistics")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(infoCmd)
}
