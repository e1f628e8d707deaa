package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/heatmc/internal/observe"
)

var sampleHeader = []string{
	"step", "time", "hotspot_temperature", "active_packets",
	"field_mean", "field_std", "field_max", "field_min",
	"total_injected", "total_removed", "total_convected",
}

// WriteSamplesCSV streams the time series as csv. correction scales the
// temperature-like columns (hot-spot and field statistics); pass 1.0 for
// raw packet densities.
func WriteSamplesCSV(w io.Writer, samples []observe.Sample, correction float64) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(sampleHeader); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, s := range samples {
		row := []string{
			strconv.Itoa(s.Step),
			f(s.Time),
			f(s.HotspotTemperature * correction),
			strconv.Itoa(s.ActivePackets),
			f(s.FieldMean * correction),
			f(s.FieldStd * correction),
			f(s.FieldMax * correction),
			f(s.FieldMin * correction),
			strconv.Itoa(s.TotalInjected),
			strconv.Itoa(s.TotalRemoved),
			strconv.Itoa(s.TotalConvected),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRunJSON emits a stored run as one indented json document.
func WriteRunJSON(w io.Writer, meta *RunMetadata, samples []observe.Sample) error {
	doc := struct {
		*RunMetadata
		Samples []observe.Sample `json:"samples"`
	}{meta, samples}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
