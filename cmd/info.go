package cmd

import (
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hybridsim/hybridsim/sim"
	"github.com/hybridsim/hybridsim/sim/experiment"
)

// infoCmd builds the network without running it and reports its shape
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the network described by an experiment file",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		opts := runOptions{configPath: configPath, horizon: horizon, workers: workers}
		if cmd.Flags().Changed("seed") {
			opts.seed = &seed
		}
		if err := printInfo(opts, os.Stdout); err != nil {
			logrus.Fatalf("Cannot build network: %v", err)
		}
	},
}

func printInfo(opts runOptions, w io.Writer) error {
	exp, err := loadExperiment(opts)
	if err != nil {
		return err
	}
	inst, err := experiment.Build(exp)
	if err != nil {
		return err
	}
	defer inst.Close()

	net := inst.Network
	fmt.Fprintln(w, "=== Network ===")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POPULATION\tMODEL\tTYPE\tNEURONS\tFIRST\tINTEGRATION")
	for _, p := range exp.Populations {
		r := inst.Populations[p.Name]
		integ := "-"
		if td, ok := r.Model.(sim.TimeDrivenNeuronModel); ok {
			integ = fmt.Sprintf("%s, step %g ms", td.IntegrationMethod().Name(), td.StepSize())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", p.Name, p.Model, r.Model.ModelType(), r.Count, r.First, integ)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Neurons              : %d\n", len(net.Neurons()))
	fmt.Fprintf(w, "Connections          : %d (%d with learning)\n", len(net.Connections()), len(net.TaughtConnections()))
	for i, pr := range exp.Projections {
		rule := "static"
		if pr.Learning != nil {
			rule = pr.Learning.Rule
		}
		fmt.Fprintf(w, "  projection %d       : %s -> %s, %s, delay %g ms\n", i, pr.From, pr.To, rule, pr.Delay)
	}
	fmt.Fprintf(w, "Inputs               : %d\n", len(inst.Sources))
	if !math.IsInf(inst.Config.Horizon, 1) {
		fmt.Fprintf(w, "Horizon              : %g ms\n", inst.Config.Horizon)
	} else {
		fmt.Fprintln(w, "Horizon              : unbounded")
	}
	return nil
}
