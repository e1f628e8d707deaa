// Package observe collects the time series of a simulation run and derives
// the summary metrics reported in the result bundle.
package observe

import (
	"github.com/san-kum/heatmc/internal/config"
	"github.com/san-kum/heatmc/internal/grid"
)

// Sample is one sampled step of the run's time series.
type Sample struct {
	Step int     `json:"step"`
	Time float64 `json:"time"`

	HotspotTemperature float64 `json:"hotspot_temperature"`
	ActivePackets      int     `json:"active_packets"`

	FieldMean float64 `json:"field_mean"`
	FieldStd  float64 `json:"field_std"`
	FieldMax  float64 `json:"field_max"`
	FieldMin  float64 `json:"field_min"`

	TotalInjected  int `json:"total_injected"`
	TotalRemoved   int `json:"total_removed"`
	TotalConvected int `json:"total_convected"`
}

// Collector accumulates samples at the configured stride. Append-only
// during a run; Reset clears everything.
type Collector struct {
	interval      int
	saveSnapshots bool

	samples       []Sample
	snapshots     [][]float64
	snapshotTimes []float64
}

// NewCollector builds a collector from the run config.
func NewCollector(cfg *config.Config) *Collector {
	return &Collector{
		interval:      cfg.OutputInterval,
		saveSnapshots: cfg.SaveSnapshots,
	}
}

// ShouldSample reports whether step falls on the sampling stride.
func (c *Collector) ShouldSample(step int) bool {
	return step%c.interval == 0
}

// Collect appends one sample. field may be nil; it is copied only when
// snapshots are enabled.
func (c *Collector) Collect(s Sample, field []float64) {
	c.samples = append(c.samples, s)
	if c.saveSnapshots && field != nil {
		snap := make([]float64, len(field))
		copy(snap, field)
		c.snapshots = append(c.snapshots, snap)
		c.snapshotTimes = append(c.snapshotTimes, s.Time)
	}
}

// Reset clears all collected data for re-initialization.
func (c *Collector) Reset() {
	c.samples = nil
	c.snapshots = nil
	c.snapshotTimes = nil
}

// Samples returns the collected time series.
func (c *Collector) Samples() []Sample { return c.samples }

// Snapshots returns the field snapshots and their times; both are nil when
// snapshots are disabled.
func (c *Collector) Snapshots() ([][]float64, []float64) {
	return c.snapshots, c.snapshotTimes
}

// HotspotSeries extracts the hot-spot temperature series.
func (c *Collector) HotspotSeries() []float64 {
	out := make([]float64, len(c.samples))
	for i, s := range c.samples {
		out[i] = s.HotspotTemperature
	}
	return out
}

// Times extracts the sampled time axis.
func (c *Collector) Times() []float64 {
	out := make([]float64, len(c.samples))
	for i, s := range c.samples {
		out[i] = s.Time
	}
	return out
}

// SampleFromState packs the current engine state into a Sample.
func SampleFromState(step int, time float64, stats grid.Stats, active, injected, removed, convected int) Sample {
	return Sample{
		Step:               step,
		Time:               time,
		HotspotTemperature: stats.HotspotMean,
		ActivePackets:      active,
		FieldMean:          stats.Mean,
		FieldStd:           stats.Std,
		FieldMax:           stats.Max,
		FieldMin:           stats.Min,
		TotalInjected:      injected,
		TotalRemoved:       removed,
		TotalConvected:     convected,
	}
}
