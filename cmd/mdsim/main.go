package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/mdsim/internal/analysis"
	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/export"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/setup"
	"github.com/san-kum/mdsim/internal/sim"
	"github.com/san-kum/mdsim/internal/store"
	"github.com/san-kum/mdsim/internal/sweep"
	"github.com/san-kum/mdsim/internal/telemetry"
	"github.com/san-kum/mdsim/internal/viz"
)

var (
	dataDir     string
	configFile  string
	preset      string
	metricsAddr string

	dimension   int
	particles   int
	steps       int
	dt          float64
	temperature float64
	seed        int64
	correlate   bool

	sweepTemperatures []float64
	sweepDensities    []float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mdsim",
		Short: "molecular dynamics in reduced units",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mdsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [family/preset]",
		Short: "run a simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address during the run")
	runCmd.Flags().BoolVar(&correlate, "correlate", false, "record trajectory correlations (MSD, VACF)")

	liveCmd := &cobra.Command{
		Use:   "live [family/preset]",
		Short: "run with a live terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy traces of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id] [file.svg]",
		Short: "export the energy chart of a run as SVG",
		Args:  cobra.ExactArgs(2),
		RunE:  exportRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "power spectrum of the sampled temperature",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [family]",
		Short: "list preset configurations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for family := range config.Presets {
					fmt.Println(family)
				}
				return nil
			}
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				return fmt.Errorf("no presets for family %q", args[0])
			}
			for _, p := range names {
				fmt.Printf("%s/%s\n", args[0], p)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [file.yaml]",
		Short: "write the default config to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultConfig())
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [family/preset]",
		Short: "run a grid of state points and tabulate averages",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&sweepTemperatures, "temperatures", nil, "temperature axis")
	sweepCmd.Flags().Float64SliceVar(&sweepDensities, "densities", nil, "density axis")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, analyzeCmd, presetsCmd, configCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file (yaml)")
	cmd.Flags().IntVar(&dimension, "dim", 0, "dimension (2 or 3)")
	cmd.Flags().IntVar(&particles, "particles", 0, "number of particles")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of steps")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "initial temperature")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
}

// resolveConfig builds the effective config: preset or file as the base,
// explicit flags on top.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if len(args) == 1 {
		family, name, ok := splitPreset(args[0])
		if !ok {
			return nil, fmt.Errorf("preset must be family/name, got %q", args[0])
		}
		p := config.GetPreset(family, name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q (try: mdsim presets %s)", args[0], family)
		}
		// copy, so flag overrides below leave the catalog untouched
		c := *p
		cfg = &c
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dim") {
		cfg.Dimension = dimension
	}
	if cmd.Flags().Changed("particles") {
		cfg.Particles = particles
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("dt") {
		cfg.Integrator.Dt = dt
	}
	if cmd.Flags().Changed("temperature") {
		cfg.Temperature = temperature
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	return cfg, cfg.Validate()
}

func splitPreset(s string) (family, name string, ok bool) {
	for i := range s {
		if s[i] == '/' {
			return s[:i], s[i+1:], i > 0 && i < len(s)-1
		}
	}
	return "", "", false
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Dimension == 2 {
		return doRun[numeric.Vec2](cfg)
	}
	return doRun[numeric.Vec3](cfg)
}

func doRun[V numeric.Vector[V]](cfg *config.Config) error {
	s, err := setup.Build[V](cfg)
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		go func() {
			if err := telemetry.Serve(metricsAddr); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	var corr *analysis.Correlator[V]
	if correlate {
		interval := cfg.SampleInterval
		if interval == 0 {
			interval = 1
		}
		corr = analysis.NewCorrelator[V](s.Box, float64(interval)*cfg.Integrator.Dt)
		s.Runner.AddObserver(recorder[V]{sim: s, corr: corr})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %d particles, %dD, %s/%s, %d steps\n",
		cfg.Particles, cfg.Dimension, cfg.Potential.Type, cfg.Integrator.Type, cfg.Steps)

	result, err := s.Runner.Run(ctx, sim.Config{
		Steps:          cfg.Steps,
		SampleInterval: cfg.SampleInterval,
		SortInterval:   cfg.SortInterval,
	})
	if err != nil {
		if result == nil || len(result.Samples) == 0 {
			return err
		}
		fmt.Printf("aborted: %v\n", err)
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.SaveRun(cfg, result)
	if err != nil {
		return err
	}
	if err := store.SaveCheckpoint(st, runID, s.Sys); err != nil {
		return err
	}

	fmt.Printf("\n%s\n\n", viz.EnergyPlot(result.Samples, 80, 12))
	fmt.Printf("run %s: %d steps in %s, energy drift %.3g\n",
		runID, result.StepsTaken, result.Elapsed.Round(time.Millisecond), result.EnergyDrift)

	if corr != nil && corr.Frames() > 2 {
		fmt.Printf("\n%s\n", viz.SeriesPlot(corr.MSD(), "mean-square displacement over lag", 80, 10))
		fmt.Printf("\n%s\n", viz.SeriesPlot(corr.VACF(), "velocity autocorrelation over lag", 80, 10))
	}
	return nil
}

// recorder feeds runner samples into a trajectory correlator.
type recorder[V numeric.Vector[V]] struct {
	sim  *setup.Simulation[V]
	corr *analysis.Correlator[V]
}

func (r recorder[V]) OnSample(sim.Sample) { r.corr.Record(r.sim.Sys) }

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Dimension == 2 {
		return doLive[numeric.Vec2](cfg)
	}
	return doLive[numeric.Vec3](cfg)
}

func doLive[V numeric.Vector[V]](cfg *config.Config) error {
	s, err := setup.Build[V](cfg)
	if err != nil {
		return err
	}
	model := viz.NewLive(s.Sys, s.Box, s.Integrator, s.Clock, s.Thermo)
	if s.Sorter != nil {
		model.SetSorter(s.Sorter, cfg.SortInterval)
	}
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tDIM\tN\tPOTENTIAL\tINTEGRATOR\tSTEPS\tDRIFT")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%d\t%.3g\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04"),
			r.Dimension, r.Particles, r.Potential, r.Integrator, r.Steps, r.EnergyDrift)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("run %s has no samples", args[0])
	}
	fmt.Println(viz.EnergyPlot(samples, 80, 15))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if err := export.WriteEnergySVG(args[1], samples); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[1])
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	var axes []sweep.Axis
	if len(sweepTemperatures) > 0 {
		axes = append(axes, sweep.Axis{Name: "temperature", Values: sweepTemperatures})
	}
	if len(sweepDensities) > 0 {
		axes = append(axes, sweep.Axis{Name: "density", Values: sweepDensities})
	}
	if len(axes) == 0 {
		return fmt.Errorf("nothing to sweep: pass --temperatures and/or --densities")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	points, err := sweep.Run(ctx, cfg, axes)
	if len(points) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PARAMS\tT\tP\tE_POT\tDRIFT")
		for _, p := range points {
			fmt.Fprintf(w, "%v\t%.4f\t%.4f\t%.4f\t%.3g\n",
				p.Params, p.Temperature, p.Pressure, p.EnPot, p.EnergyDrift)
		}
		w.Flush()
	}
	return err
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	series := make([]float64, len(samples))
	for i, s := range samples {
		series[i] = s.Temperature
	}
	spectrum := analysis.Spectrum(series)
	if spectrum == nil {
		return fmt.Errorf("run %s has too few samples for a spectrum", args[0])
	}
	fmt.Println(viz.SeriesPlot(spectrum, "temperature power spectrum", 80, 15))
	return nil
}
