package storage

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/heatmc/internal/config"
	"github.com/san-kum/heatmc/internal/observe"
	"github.com/san-kum/heatmc/internal/sim"
)

func smallResult(t *testing.T) *sim.Result {
	t.Helper()
	p := config.Default()
	p.TMax = 0.1 // 50 steps
	p.OutputInterval = 10
	p.SaveSnapshots = false
	cfg, err := config.New(p)
	require.NoError(t, err)

	result, err := sim.New(cfg).Run(context.Background())
	require.NoError(t, err)
	return result
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir())
	require.NoError(t, s.Init())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openStore(t)
	result := smallResult(t)

	runID, err := s.Save(result)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(runID, "copper_"))

	meta, err := s.Load(runID)
	require.NoError(t, err)
	require.Equal(t, runID, meta.ID)
	require.Equal(t, "copper", meta.Params.Material)
	require.Equal(t, result.Metrics, meta.Metrics)
	require.Equal(t, result.Meta.CompletedSteps, meta.Meta.CompletedSteps)

	samples, err := s.LoadSamples(runID)
	require.NoError(t, err)
	require.Len(t, samples, len(result.Samples))
	for i := range samples {
		require.Equal(t, result.Samples[i].Step, samples[i].Step)
		require.Equal(t, result.Samples[i].ActivePackets, samples[i].ActivePackets)
		require.InDelta(t, result.Samples[i].HotspotTemperature, samples[i].HotspotTemperature, 1e-6)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openStore(t)

	first, err := s.Save(smallResult(t))
	require.NoError(t, err)
	second, err := s.Save(smallResult(t))
	require.NoError(t, err)

	runs, err := s.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	ids := []string{runs[0].ID, runs[1].ID}
	require.ElementsMatch(t, []string{first, second}, ids)
	require.Equal(t, "copper", runs[0].Material)
	require.Equal(t, config.DefaultQ, runs[0].Q)
	require.False(t, runs[0].Interrupted)
}

func TestListEmptyStore(t *testing.T) {
	s := openStore(t)
	runs, err := s.List()
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestLoadUnknownRun(t *testing.T) {
	s := openStore(t)
	_, err := s.Load("copper_deadbeef")
	require.Error(t, err)
}

func TestWriteSamplesCSVCorrection(t *testing.T) {
	samples := []observe.Sample{
		{Step: 0, Time: 0, HotspotTemperature: 2.0, FieldMean: 1.0, ActivePackets: 5, TotalInjected: 5},
	}

	var raw, corrected bytes.Buffer
	require.NoError(t, WriteSamplesCSV(&raw, samples, 1.0))
	require.NoError(t, WriteSamplesCSV(&corrected, samples, 2.5))

	require.Contains(t, raw.String(), "2.000000")
	require.Contains(t, corrected.String(), "5.000000", "hot-spot column scales by the correction")
	require.Contains(t, corrected.String(), ",5,", "packet counts never scale")
}

func TestWriteRunJSON(t *testing.T) {
	s := openStore(t)
	runID, err := s.Save(smallResult(t))
	require.NoError(t, err)

	meta, err := s.Load(runID)
	require.NoError(t, err)
	samples, err := s.LoadSamples(runID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteRunJSON(&buf, meta, samples))
	require.Contains(t, buf.String(), `"id": "`+runID+`"`)
	require.Contains(t, buf.String(), `"samples"`)
}
