package sim

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/san-kum/heatmc/internal/config"
)

// SweepPoint is one (material, Q) cell of a parameter sweep.
type SweepPoint struct {
	Material string
	Q        int
	Result   *Result
	Err      error
}

// RunSweep runs one simulation per (material, Q) combination, all derived
// from base. Every point keeps the base seed, so points differ only in the
// parameters under study. Points run concurrently; results come back in
// material-major order regardless of completion order.
func RunSweep(ctx context.Context, materials []string, qValues []int, base config.Params) ([]SweepPoint, error) {
	if len(materials) == 0 || len(qValues) == 0 {
		return nil, fmt.Errorf("sweep needs at least one material and one Q value")
	}

	points := make([]SweepPoint, len(materials)*len(qValues))
	var wg sync.WaitGroup

	for i, material := range materials {
		for j, q := range qValues {
			idx := i*len(qValues) + j
			points[idx] = SweepPoint{Material: material, Q: q}

			wg.Add(1)
			go func(idx int, material string, q int) {
				defer wg.Done()

				p := base
				p.Material = material
				p.Alpha = 0 // resolved from the material table
				p.Q = q

				cfg, err := config.New(p)
				if err != nil {
					points[idx].Err = fmt.Errorf("sweep point %s/Q=%d: %w", material, q, err)
					return
				}

				result, err := New(cfg).Run(ctx)
				points[idx].Result = result
				points[idx].Err = err
			}(idx, material, q)
		}
	}

	wg.Wait()

	failed := 0
	for _, pt := range points {
		if pt.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		log.WithFields(log.Fields{
			"failed": failed,
			"total":  len(points),
		}).Warn("sweep finished with failed points")
	}

	return points, nil
}
