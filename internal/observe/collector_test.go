package observe

import (
	"math"
	"testing"

	"github.com/san-kum/heatmc/internal/config"
)

func newCollector(t *testing.T, interval int, snapshots bool) *Collector {
	t.Helper()
	p := config.Default()
	p.OutputInterval = interval
	p.SaveSnapshots = snapshots
	cfg, err := config.New(p)
	if err != nil {
		t.Fatal(err)
	}
	return NewCollector(cfg)
}

func TestShouldSampleStride(t *testing.T) {
	c := newCollector(t, 100, false)

	for _, step := range []int{0, 100, 200, 2400} {
		if !c.ShouldSample(step) {
			t.Errorf("step %d should be sampled", step)
		}
	}
	for _, step := range []int{1, 99, 150} {
		if c.ShouldSample(step) {
			t.Errorf("step %d should not be sampled", step)
		}
	}
}

func TestCollectAndSnapshots(t *testing.T) {
	c := newCollector(t, 1, true)

	field := []float64{1, 2, 3}
	c.Collect(Sample{Step: 0, Time: 0, HotspotTemperature: 1.5}, field)
	field[0] = 99 // collector must have copied

	snaps, times := c.Snapshots()
	if len(snaps) != 1 || len(times) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snaps))
	}
	if snaps[0][0] != 1 {
		t.Error("snapshot should be a copy, not an alias")
	}
}

func TestSnapshotsDisabledYieldNil(t *testing.T) {
	c := newCollector(t, 1, false)
	c.Collect(Sample{Step: 0}, []float64{1, 2, 3})

	snaps, times := c.Snapshots()
	if snaps != nil || times != nil {
		t.Error("snapshots disabled: expected nil slices, not an error")
	}
}

func TestResetClears(t *testing.T) {
	c := newCollector(t, 1, true)
	c.Collect(Sample{Step: 0}, []float64{1})
	c.Reset()

	if len(c.Samples()) != 0 {
		t.Error("reset should clear samples")
	}
	snaps, _ := c.Snapshots()
	if snaps != nil {
		t.Error("reset should clear snapshots")
	}
}

func TestDerivedEmptySeries(t *testing.T) {
	c := newCollector(t, 1, false)
	m := c.Derived()

	if m.PeakTemperature != 0 || m.SteadyStateMean != 0 || m.SteadyStateCoV != 0 {
		t.Errorf("empty series must default to zero metrics: %+v", m)
	}
	if m.IsSteadyState {
		t.Error("empty series cannot be steady")
	}
}

func TestDerivedPeakAndCooling(t *testing.T) {
	c := newCollector(t, 1, false)

	// rise to 10 at t=2, then exponential-ish decay
	temps := []float64{2, 6, 10, 8, 5, 3.6, 2.4, 1.0, 0.5, 0.4}
	for i, v := range temps {
		c.Collect(Sample{Step: i, Time: float64(i), HotspotTemperature: v, ActivePackets: 100 - i}, nil)
	}

	m := c.Derived()
	if m.PeakTemperature != 10 || m.PeakTime != 2 {
		t.Errorf("peak: got (%v, %v), want (10, 2)", m.PeakTemperature, m.PeakTime)
	}

	// 1/e threshold = 3.68: first sample <= is 3.6 at t=5, elapsed 3
	if got := m.CoolingTimes["e_fold"]; got != 3 {
		t.Errorf("e_fold cooling time: got %v, want 3", got)
	}
	// half-life threshold 5: first sample <= is 5 at t=4, elapsed 2
	if got := m.CoolingTimes["half_life"]; got != 2 {
		t.Errorf("half_life cooling time: got %v, want 2", got)
	}
	if m.FinalActivePackets != 91 {
		t.Errorf("final active packets: got %d, want 91", m.FinalActivePackets)
	}
}

func TestDerivedCoolingThresholdNeverReached(t *testing.T) {
	c := newCollector(t, 1, false)
	for i, v := range []float64{5, 10, 9, 9, 9} {
		c.Collect(Sample{Step: i, Time: float64(i), HotspotTemperature: v}, nil)
	}

	m := c.Derived()
	if _, ok := m.CoolingTimes["e_fold"]; ok {
		t.Error("e_fold never reached: key should be absent, not zero")
	}
}

func TestDerivedSteadyState(t *testing.T) {
	c := newCollector(t, 1, false)

	// 100 samples; last 20 hover around 50 with tiny fluctuation
	for i := 0; i < 80; i++ {
		c.Collect(Sample{Step: i, Time: float64(i), HotspotTemperature: float64(i)}, nil)
	}
	for i := 80; i < 100; i++ {
		v := 50.0
		if i%2 == 0 {
			v = 50.5
		}
		c.Collect(Sample{Step: i, Time: float64(i), HotspotTemperature: v}, nil)
	}

	m := c.Derived()
	if math.Abs(m.SteadyStateMean-50.25) > 1e-9 {
		t.Errorf("steady-state mean: got %v, want 50.25", m.SteadyStateMean)
	}
	if !m.IsSteadyState {
		t.Errorf("CoV %v should classify as steady", m.SteadyStateCoV)
	}
}

func TestDerivedNotSteady(t *testing.T) {
	c := newCollector(t, 1, false)
	for i := 0; i < 100; i++ {
		v := 10.0
		if i%2 == 0 {
			v = 30.0
		}
		c.Collect(Sample{Step: i, Time: float64(i), HotspotTemperature: v}, nil)
	}

	m := c.Derived()
	if m.IsSteadyState {
		t.Errorf("CoV %v should not classify as steady", m.SteadyStateCoV)
	}
}
