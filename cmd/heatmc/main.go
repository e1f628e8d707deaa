package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/heatmc/internal/config"
	"github.com/san-kum/heatmc/internal/sim"
	"github.com/san-kum/heatmc/internal/storage"
	"github.com/san-kum/heatmc/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string

	material       string
	alpha          float64
	q              int
	seed           int64
	dt             float64
	tMax           float64
	boundary       string
	convectionProb float64
	nPackets       int
	maxPackets     int
	outputInterval int
	noSnapshots    bool

	sweepMaterials string
	sweepQ         string

	celsius bool
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	rootCmd := &cobra.Command{
		Use:   "heatmc",
		Short: "Monte Carlo heat-sink diffusion simulator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".heatmc", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one simulation and store the result",
		RunE:  runSimulation,
	}
	addParamFlags(runCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a materials x injection-rate parameter sweep",
		RunE:  runSweep,
	}
	addParamFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepMaterials, "materials", strings.Join(config.Materials(), ","), "comma-separated materials")
	sweepCmd.Flags().StringVar(&sweepQ, "q-values", intsToCSV(config.StandardQValues), "comma-separated injection rates")

	materialsCmd := &cobra.Command{
		Use:   "materials",
		Short: "list the built-in material properties",
		RunE:  listMaterials,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().BoolVar(&celsius, "celsius", false, "apply the material temperature correction")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored run's time series to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().BoolVar(&celsius, "celsius", false, "apply the material temperature correction")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as JSON on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live terminal visualization",
		RunE:  runLive,
	}
	addParamFlags(liveCmd)

	configCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.Default()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, sweepCmd, materialsCmd, listCmd, plotCmd,
		exportCSVCmd, exportJSONCmd, liveCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&material, "material", "copper", "material name")
	cmd.Flags().Float64Var(&alpha, "alpha", 0, "thermal diffusivity (custom material)")
	cmd.Flags().IntVar(&q, "q", config.DefaultQ, "packets injected per step")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step (s)")
	cmd.Flags().Float64Var(&tMax, "time", config.DefaultTMax, "simulated time (s)")
	cmd.Flags().StringVar(&boundary, "boundary", string(config.BoundaryAbsorbing), "boundary policy (absorbing|reflecting)")
	cmd.Flags().Float64Var(&convectionProb, "convection", config.DefaultConvectionProb, "per-step convection probability")
	cmd.Flags().IntVar(&nPackets, "packets", config.DefaultNPackets, "target packet population")
	cmd.Flags().IntVar(&maxPackets, "max-packets", 0, "hard packet cap (0 = unbounded)")
	cmd.Flags().IntVar(&outputInterval, "interval", config.DefaultOutputInterval, "sampling stride in steps")
	cmd.Flags().BoolVar(&noSnapshots, "no-snapshots", false, "skip field snapshots")
}

// buildParams resolves the effective parameters: defaults, then the config
// file, then any flag the user actually set.
func buildParams(cmd *cobra.Command) (config.Params, error) {
	p := config.Default()

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return p, fmt.Errorf("load config: %w", err)
		}
		p = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("material") {
		p.Material = material
	}
	if flags.Changed("alpha") {
		p.Material = ""
		p.Alpha = alpha
	}
	if flags.Changed("q") {
		p.Q = q
	}
	if flags.Changed("seed") {
		p.Seed = seed
	}
	if flags.Changed("dt") {
		p.Dt = dt
	}
	if flags.Changed("time") {
		p.TMax = tMax
	}
	if flags.Changed("boundary") {
		p.Boundary = config.Boundary(boundary)
	}
	if flags.Changed("convection") {
		p.ConvectionProb = convectionProb
	}
	if flags.Changed("packets") {
		p.NPackets = nPackets
	}
	if flags.Changed("max-packets") {
		p.MaxPackets = maxPackets
	}
	if flags.Changed("interval") {
		p.OutputInterval = outputInterval
	}
	if noSnapshots {
		p.SaveSnapshots = false
	}

	return p, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	p, err := buildParams(cmd)
	if err != nil {
		return err
	}
	cfg, err := config.New(p)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("running: %s\n", cfg)
	start := time.Now()

	result, err := sim.New(cfg).Run(ctx)
	if result == nil {
		return err
	}
	if err != nil {
		log.WithError(err).Warn("run did not complete")
	}

	runID, saveErr := st.Save(result)
	if saveErr != nil {
		return saveErr
	}

	fmt.Printf("completed in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	printMetrics(result)
	return nil
}

func printMetrics(result *sim.Result) {
	m := result.Metrics
	fmt.Printf("steps: %d  samples: %d  active: %d\n",
		result.Meta.CompletedSteps, len(result.Samples), result.Meta.ActivePackets)
	fmt.Println("\nmetrics:")
	fmt.Printf("  peak temperature: %.3f at t=%.2fs\n", m.PeakTemperature, m.PeakTime)
	for name, elapsed := range m.CoolingTimes {
		fmt.Printf("  cooling %s: %.2fs\n", name, elapsed)
	}
	fmt.Printf("  steady state: %v (mean %.3f, cov %.4f)\n",
		m.IsSteadyState, m.SteadyStateMean, m.SteadyStateCoV)
}

func runSweep(cmd *cobra.Command, args []string) error {
	p, err := buildParams(cmd)
	if err != nil {
		return err
	}

	materials := splitCSV(sweepMaterials)
	qValues, err := parseInts(sweepQ)
	if err != nil {
		return fmt.Errorf("parse q-values: %w", err)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("sweeping %d materials x %d injection rates (%d runs)...\n",
		len(materials), len(qValues), len(materials)*len(qValues))
	start := time.Now()

	points, err := sim.RunSweep(ctx, materials, qValues, p)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tMATERIAL\tQ\tPEAK\tSTEADY\tSTATUS")
	for _, pt := range points {
		if pt.Err != nil {
			fmt.Fprintf(w, "-\t%s\t%d\t-\t-\t%v\n", pt.Material, pt.Q, pt.Err)
			continue
		}
		runID, err := st.Save(pt.Result)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.3f\t%v\tok\n",
			runID, pt.Material, pt.Q,
			pt.Result.Metrics.PeakTemperature, pt.Result.Metrics.IsSteadyState)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nsweep completed in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func listMaterials(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MATERIAL\tALPHA (m²/s)\tCONDUCTIVITY (W/m·K)\tCORRECTION")
	for _, name := range config.Materials() {
		a, _ := config.MaterialAlpha(name)
		k, _ := config.MaterialConductivity(name)
		cfg, err := config.ForMaterial(name, config.DefaultQ)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.2e\t%.0f\t%.3f\n", name, a, k, cfg.TemperatureCorrection())
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMATERIAL\tQ\tSEED\tBOUNDARY\tSTEPS\tPEAK\tSTEADY\tCREATED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%d\t%.3f\t%v\t%s\n",
			run.ID, run.Material, run.Q, run.Seed, run.Boundary,
			run.CompletedSteps, run.PeakTemperature, run.SteadyState,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// loadRun fetches a stored run and its correction factor for the
// temperature-scaled views.
func loadRun(runID string) (*storage.RunMetadata, float64, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, 0, err
	}

	correction := 1.0
	if celsius {
		cfg, err := config.New(meta.Params)
		if err != nil {
			return nil, 0, err
		}
		correction = cfg.TemperatureCorrection()
	}
	return meta, correction, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	meta, correction, err := loadRun(runID)
	if err != nil {
		return err
	}

	samples, err := storage.New(dataDir).LoadSamples(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\nmaterial: %s  Q=%d  seed=%d\nsamples: %d\n\n",
		meta.ID, meta.Params.Material, meta.Params.Q, meta.Params.Seed, len(samples))
	fmt.Println(viz.PlotHotspot(samples, correction, 80, 10))
	fmt.Println()
	fmt.Println(viz.PlotActive(samples, 80, 10))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]
	_, correction, err := loadRun(runID)
	if err != nil {
		return err
	}

	samples, err := storage.New(dataDir).LoadSamples(runID)
	if err != nil {
		return err
	}
	return storage.WriteSamplesCSV(os.Stdout, samples, correction)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	return storage.WriteRunJSON(os.Stdout, meta, samples)
}

func runLive(cmd *cobra.Command, args []string) error {
	p, err := buildParams(cmd)
	if err != nil {
		return err
	}
	p.SaveSnapshots = false // the viewer reads the field directly
	cfg, err := config.New(p)
	if err != nil {
		return err
	}
	return viz.Run(sim.New(cfg))
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseInts(s string) ([]int, error) {
	out := make([]int, 0)
	for _, part := range splitCSV(s) {
		var v int
		if _, err := fmt.Sscanf(part, "%d", &v); err != nil {
			return nil, fmt.Errorf("%q is not an integer", part)
		}
		out = append(out, v)
	}
	return out, nil
}

func intsToCSV(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}
