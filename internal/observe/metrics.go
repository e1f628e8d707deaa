package observe

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// steadyCoV is the coefficient-of-variation threshold under which the tail
// of a run is classified as steady state. Classification only; it never
// terminates a run.
const steadyCoV = 0.05

// steadyFraction is the tail share of samples used for steady-state
// analysis.
const steadyFraction = 0.2

// Metrics are the derived summary of one run's time series. Zero values
// stand in wherever the series is too short to support a quantity.
type Metrics struct {
	PeakTemperature float64 `json:"peak_temperature"`
	PeakTime        float64 `json:"peak_time"`

	// CoolingTimes holds the elapsed time from the peak to the first
	// sample at or below each threshold; a threshold never reached is
	// absent from the map.
	CoolingTimes map[string]float64 `json:"cooling_times"`

	SteadyStateMean float64 `json:"steady_state_mean"`
	SteadyStateStd  float64 `json:"steady_state_std"`
	SteadyStateCoV  float64 `json:"steady_state_cov"`
	IsSteadyState   bool    `json:"is_steady_state"`

	FinalActivePackets int `json:"final_active_packets"`
}

// coolingThresholds are the fractions of the peak used for cooling-time
// constants.
var coolingThresholds = map[string]float64{
	"e_fold":      1 / math.E,
	"half_life":   0.5,
	"quarter":     0.25,
	"ten_percent": 0.1,
}

// Derived computes the summary metrics from the collected series.
func (c *Collector) Derived() Metrics {
	m := Metrics{CoolingTimes: map[string]float64{}}
	if len(c.samples) == 0 {
		return m
	}

	temps := c.HotspotSeries()
	times := c.Times()

	peakIdx := 0
	for i, v := range temps {
		if v > temps[peakIdx] {
			peakIdx = i
		}
	}
	m.PeakTemperature = temps[peakIdx]
	m.PeakTime = times[peakIdx]
	m.FinalActivePackets = c.samples[len(c.samples)-1].ActivePackets

	// cooling constants: first post-peak sample at or below each threshold
	for name, frac := range coolingThresholds {
		threshold := m.PeakTemperature * frac
		for i := peakIdx + 1; i < len(temps); i++ {
			if temps[i] <= threshold {
				m.CoolingTimes[name] = times[i] - times[peakIdx]
				break
			}
		}
	}

	// steady-state analysis over the final 20% of samples
	start := int(float64(len(temps)) * (1 - steadyFraction))
	if start >= len(temps) {
		start = len(temps) - 1
	}
	tail := temps[start:]
	m.SteadyStateMean = stat.Mean(tail, nil)
	m.SteadyStateStd = stat.PopStdDev(tail, nil)
	if m.SteadyStateMean > 0 {
		m.SteadyStateCoV = m.SteadyStateStd / m.SteadyStateMean
		m.IsSteadyState = m.SteadyStateCoV < steadyCoV
	}

	return m
}
