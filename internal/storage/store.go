// Package storage persists run results as per-run directories (metadata.json
// plus samples.csv) indexed by a sqlite database for listing and queries.
package storage

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/heatmc/internal/config"
	"github.com/san-kum/heatmc/internal/observe"
	"github.com/san-kum/heatmc/internal/sim"
)

type Store struct {
	baseDir string
	db      *sql.DB
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Init creates the base directory and opens the run index.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", filepath.Join(s.baseDir, "runs.db"))
	if err != nil {
		return fmt.Errorf("open run index: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		material TEXT NOT NULL,
		q INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		boundary TEXT NOT NULL,
		completed_steps INTEGER NOT NULL,
		peak_temperature REAL NOT NULL,
		steady_state INTEGER NOT NULL,
		interrupted INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fmt.Errorf("create run index: %w", err)
	}

	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type RunMetadata struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Params    config.Params   `json:"params"`
	Metrics   observe.Metrics `json:"metrics"`
	Meta      sim.Metadata    `json:"meta"`
}

// Save writes one run directory and registers it in the index. The run ID
// combines the material with a uuid fragment so sweep points never collide.
func (s *Store) Save(result *sim.Result) (string, error) {
	material := result.Config.Material
	if material == "" {
		material = "custom"
	}
	runID := fmt.Sprintf("%s_%s", material, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		Params:    result.Config.Params,
		Metrics:   result.Metrics,
		Meta:      result.Meta,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteSamplesCSV(csvFile, result.Samples, 1.0); err != nil {
		return "", err
	}

	if s.db != nil {
		_, err = s.db.Exec(
			`INSERT INTO runs (id, material, q, seed, boundary, completed_steps,
				peak_temperature, steady_state, interrupted, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, material, result.Config.Q, result.Config.Seed, string(result.Config.Boundary),
			result.Meta.CompletedSteps, result.Metrics.PeakTemperature,
			boolToInt(result.Metrics.IsSteadyState), boolToInt(result.Meta.Interrupted),
			meta.Timestamp.UTC().Format(time.RFC3339))
		if err != nil {
			return "", fmt.Errorf("index run %s: %w", runID, err)
		}
	}

	return runID, nil
}

// RunSummary is one index row.
type RunSummary struct {
	ID              string
	Material        string
	Q               int
	Seed            int64
	Boundary        string
	CompletedSteps  int
	PeakTemperature float64
	SteadyState     bool
	Interrupted     bool
	CreatedAt       time.Time
}

// List returns the indexed runs, newest first.
func (s *Store) List() ([]RunSummary, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}

	rows, err := s.db.Query(
		`SELECT id, material, q, seed, boundary, completed_steps,
			peak_temperature, steady_state, interrupted, created_at
		 FROM runs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var r RunSummary
		var steady, interrupted int
		var created string
		if err := rows.Scan(&r.ID, &r.Material, &r.Q, &r.Seed, &r.Boundary,
			&r.CompletedSteps, &r.PeakTemperature, &steady, &interrupted, &created); err != nil {
			return nil, err
		}
		r.SteadyState = steady != 0
		r.Interrupted = interrupted != 0
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples reads back a run's time series from its csv.
func (s *Store) LoadSamples(runID string) ([]observe.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []observe.Sample{}, nil
	}

	samples := make([]observe.Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(sampleHeader) {
			return nil, fmt.Errorf("malformed sample row: %q", strings.Join(rec, ","))
		}
		var sm observe.Sample
		sm.Step, _ = strconv.Atoi(rec[0])
		sm.Time, _ = strconv.ParseFloat(rec[1], 64)
		sm.HotspotTemperature, _ = strconv.ParseFloat(rec[2], 64)
		sm.ActivePackets, _ = strconv.Atoi(rec[3])
		sm.FieldMean, _ = strconv.ParseFloat(rec[4], 64)
		sm.FieldStd, _ = strconv.ParseFloat(rec[5], 64)
		sm.FieldMax, _ = strconv.ParseFloat(rec[6], 64)
		sm.FieldMin, _ = strconv.ParseFloat(rec[7], 64)
		sm.TotalInjected, _ = strconv.Atoi(rec[8])
		sm.TotalRemoved, _ = strconv.Atoi(rec[9])
		sm.TotalConvected, _ = strconv.Atoi(rec[10])
		samples = append(samples, sm)
	}
	return samples, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
