package viz

import (
	"strings"
	"testing"

	"github.com/san-kum/heatmc/internal/observe"
)

func TestPlotHotspotEmpty(t *testing.T) {
	if got := PlotHotspot(nil, 1.0, 40, 5); got != "(no samples)" {
		t.Errorf("empty series: got %q", got)
	}
}

func TestPlotHotspotRendersCaption(t *testing.T) {
	samples := []observe.Sample{
		{Time: 0, HotspotTemperature: 1},
		{Time: 1, HotspotTemperature: 3},
		{Time: 2, HotspotTemperature: 2},
	}

	out := PlotHotspot(samples, 1.0, 40, 5)
	if !strings.Contains(out, "hot-spot temperature") {
		t.Errorf("missing caption:\n%s", out)
	}
}

func TestPlotActive(t *testing.T) {
	samples := []observe.Sample{
		{ActivePackets: 10},
		{ActivePackets: 20},
	}
	if out := PlotActive(samples, 40, 5); !strings.Contains(out, "active packets") {
		t.Errorf("missing caption:\n%s", out)
	}
}
