package sim

import (
	"time"

	"github.com/san-kum/heatmc/internal/config"
	"github.com/san-kum/heatmc/internal/observe"
)

// Result bundles everything one run produced: the config it ran under,
// the sampled time series, optional field snapshots, the derived metrics
// and the run accounting.
type Result struct {
	Config        *config.Config   `json:"-"`
	Samples       []observe.Sample `json:"samples"`
	Snapshots     [][]float64      `json:"snapshots,omitempty"`
	SnapshotTimes []float64        `json:"snapshot_times,omitempty"`
	Metrics       observe.Metrics  `json:"metrics"`
	Meta          Metadata         `json:"meta"`
}

// Metadata is the per-run accounting attached to a Result.
type Metadata struct {
	CompletedSteps int           `json:"completed_steps"`
	FinalTime      float64       `json:"final_time"`
	Runtime        time.Duration `json:"runtime_ns"`
	Interrupted    bool          `json:"interrupted"`
	State          State         `json:"state"`

	// DrawCounts records how many uniforms each named stream consumed,
	// keyed by stream role.
	DrawCounts map[string]uint64 `json:"draw_counts"`

	Injected        int `json:"injected"`
	BoundaryRemoved int `json:"boundary_removed"`
	Convected       int `json:"convected"`
	ActivePackets   int `json:"active_packets"`
}
