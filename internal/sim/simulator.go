// Package sim orchestrates the Monte Carlo time-stepping loop: one Config,
// one Grid, one Population, one Collector and one set of random streams
// per run. Runs are strictly sequential inside; parallelism only ever
// happens across independent simulators (see sweep.go).
package sim

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/san-kum/heatmc/internal/config"
	"github.com/san-kum/heatmc/internal/grid"
	"github.com/san-kum/heatmc/internal/observe"
	"github.com/san-kum/heatmc/internal/packet"
	"github.com/san-kum/heatmc/internal/rng"
)

// State is the simulator lifecycle phase.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitialized   State = "initialized"
	StateRunning       State = "running"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
	StateInterrupted   State = "interrupted"
)

// seedFraction of the packet target is injected at initialization so the
// first sampled steps do not show a cold-start artifact.
const seedFraction = 0.1

// Simulator owns the full per-run state. Not safe for concurrent use; each
// run gets fresh instances.
type Simulator struct {
	cfg       *config.Config
	grid      *grid.Grid
	pop       *packet.Population
	streams   *rng.Streams
	collector *observe.Collector

	state       State
	currentStep int
	currentTime float64

	lastStats grid.Stats
	posBuf    [][2]int

	started  time.Time
	finished time.Time
}

// New builds a simulator for one run of cfg.
func New(cfg *config.Config) *Simulator {
	return &Simulator{
		cfg:       cfg,
		grid:      grid.New(cfg),
		pop:       packet.NewPopulation(cfg.MaxPackets),
		streams:   rng.NewStreams(cfg.Seed),
		collector: observe.NewCollector(cfg),
		state:     StateUninitialized,
	}
}

// Initialize resets all run state and seeds the initial packet population
// in the hot-spot via the injection stream.
func (s *Simulator) Initialize() {
	s.grid.Reset()
	s.pop.Reset()
	s.streams.Reset()
	s.collector.Reset()

	seed := int(float64(s.cfg.NPackets) * seedFraction)
	if seed < 1 {
		seed = 1
	}
	s.pop.Inject(seed, s.grid, s.streams.Injection)

	s.currentStep = 0
	s.currentTime = 0
	s.state = StateInitialized

	log.WithFields(log.Fields{
		"seeded": seed,
		"config": s.cfg.String(),
	}).Debug("simulation initialized")
}

// Start moves an initialized simulator into the running state.
func (s *Simulator) Start() error {
	if s.state != StateInitialized {
		return fmt.Errorf("cannot start from state %s", s.state)
	}
	s.state = StateRunning
	s.started = time.Now()
	return nil
}

// StepSummary reports what one step did.
type StepSummary struct {
	Step               int
	Time               float64
	Injected           int
	Removed            int
	ActivePackets      int
	HotspotTemperature float64
}

// Step advances the simulation by one time step. The sequence is fixed:
// inject, transition, rebuild observables, sample at the output stride,
// advance the clock. Callable only in the running state.
func (s *Simulator) Step() (StepSummary, error) {
	if s.state != StateRunning {
		return StepSummary{}, fmt.Errorf("step called in state %s, want %s", s.state, StateRunning)
	}

	injected := s.pop.Inject(s.cfg.Q, s.grid, s.streams.Injection)
	removed := s.pop.StepTransition(s.grid, s.cfg.MoveProbability, s.cfg.ConvectionProb,
		s.cfg.Boundary, s.streams.Movement)

	s.posBuf = s.pop.Positions(s.posBuf)
	s.grid.RebuildField(s.posBuf)
	s.lastStats = s.grid.FieldStats()

	totalInjected, boundaryRemoved, convected := s.pop.Counters()
	if got := totalInjected - boundaryRemoved - convected; got != s.pop.Active() {
		s.state = StateFailed
		return StepSummary{}, fmt.Errorf("packet accounting corrupted at step %d: %d active, %d expected",
			s.currentStep, s.pop.Active(), got)
	}

	if s.collector.ShouldSample(s.currentStep) {
		sample := observe.SampleFromState(s.currentStep, s.currentTime, s.lastStats,
			s.pop.Active(), totalInjected, boundaryRemoved, convected)
		var field []float64
		if s.cfg.SaveSnapshots {
			field = s.grid.Field()
		}
		s.collector.Collect(sample, field)
	}

	s.currentStep++
	s.currentTime = float64(s.currentStep) * s.cfg.Dt

	return StepSummary{
		Step:               s.currentStep,
		Time:               s.currentTime,
		Injected:           injected,
		Removed:            removed,
		ActivePackets:      s.pop.Active(),
		HotspotTemperature: s.lastStats.HotspotMean,
	}, nil
}

// Run executes the configured number of steps and compiles the result
// bundle. Cancellation is checked only at step boundaries, never
// mid-step; an interrupted run returns its partial bundle alongside the
// context error. A step failure marks the run failed and returns no
// bundle, though the simulator state stays queryable.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	s.Initialize()
	if err := s.Start(); err != nil {
		return nil, err
	}

	progressStride := s.cfg.Steps / 10
	if progressStride < 1 {
		progressStride = 1
	}

	for i := 0; i < s.cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			s.finished = time.Now()
			s.state = StateInterrupted
			log.WithField("step", s.currentStep).Warn("run interrupted, returning partial results")
			return s.compileResult(true), ctx.Err()
		default:
		}

		summary, err := s.Step()
		if err != nil {
			s.finished = time.Now()
			return nil, err
		}

		if summary.Step%progressStride == 0 {
			log.WithFields(log.Fields{
				"step":    summary.Step,
				"active":  summary.ActivePackets,
				"hotspot": fmt.Sprintf("%.2f", summary.HotspotTemperature),
			}).Debug("progress")
		}
	}

	s.finished = time.Now()
	s.state = StateCompleted

	if n := s.pop.Truncated(); n > 0 {
		log.WithField("dropped", n).Warn("packet cap truncated injections; raise max_packets if unintended")
	}

	return s.compileResult(false), nil
}

func (s *Simulator) compileResult(interrupted bool) *Result {
	snapshots, snapshotTimes := s.collector.Snapshots()
	injected, boundaryRemoved, convected := s.pop.Counters()

	return &Result{
		Config:        s.cfg,
		Samples:       s.collector.Samples(),
		Snapshots:     snapshots,
		SnapshotTimes: snapshotTimes,
		Metrics:       s.collector.Derived(),
		Meta: Metadata{
			CompletedSteps:  s.currentStep,
			FinalTime:       s.currentTime,
			Runtime:         s.finished.Sub(s.started),
			Interrupted:     interrupted,
			State:           s.state,
			DrawCounts:      s.streams.DrawCounts(),
			Injected:        injected,
			BoundaryRemoved: boundaryRemoved,
			Convected:       convected,
			ActivePackets:   s.pop.Active(),
		},
	}
}

// State returns the lifecycle phase.
func (s *Simulator) State() State { return s.state }

// CurrentStep returns the number of completed steps.
func (s *Simulator) CurrentStep() int { return s.currentStep }

// CurrentTime returns the simulated time in seconds.
func (s *Simulator) CurrentTime() float64 { return s.currentTime }

// Done reports whether the configured step count has been reached.
func (s *Simulator) Done() bool { return s.currentStep >= s.cfg.Steps }

// ActivePackets returns the live packet count.
func (s *Simulator) ActivePackets() int { return s.pop.Active() }

// LastStats returns the field statistics of the last completed step.
func (s *Simulator) LastStats() grid.Stats { return s.lastStats }

// FieldSnapshot copies the current occupancy field (row-major, stride Ny).
func (s *Simulator) FieldSnapshot() []float64 { return s.grid.Field() }

// Collector exposes the partial time series; still valid after a failed
// or interrupted run.
func (s *Simulator) Collector() *observe.Collector { return s.collector }

// Config returns the run configuration.
func (s *Simulator) Config() *config.Config { return s.cfg }
