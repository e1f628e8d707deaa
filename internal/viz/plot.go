package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/heatmc/internal/observe"
)

// PlotHotspot renders a stored run's hot-spot series as an ascii chart.
// correction scales the series; pass 1.0 for raw packet densities.
func PlotHotspot(samples []observe.Sample, correction float64, width, height int) string {
	if len(samples) == 0 {
		return "(no samples)"
	}

	series := make([]float64, len(samples))
	for i, s := range samples {
		series[i] = s.HotspotTemperature * correction
	}

	return asciigraph.Plot(series,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption("hot-spot temperature vs sample"))
}

// PlotActive renders the active-packet series.
func PlotActive(samples []observe.Sample, width, height int) string {
	if len(samples) == 0 {
		return "(no samples)"
	}

	series := make([]float64, len(samples))
	for i, s := range samples {
		series[i] = float64(s.ActivePackets)
	}

	return asciigraph.Plot(series,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption("active packets vs sample"))
}
