// Package grid models the discretized 2D plate: hot-spot membership,
// uniform disk sampling for injection, the four-connected neighborhood of
// the random walk, and the occupancy field the temperature observables are
// read from. The field is a per-step snapshot rebuilt from packet
// positions, not a running sum.
package grid

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/heatmc/internal/config"
	"github.com/san-kum/heatmc/internal/rng"
)

// NeighborOffsets are the von Neumann step directions of the walk. The
// direction draw indexes into this slice, so its order is part of the
// reproducibility contract.
var NeighborOffsets = [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

// Stats summarizes the occupancy field at one step.
type Stats struct {
	Mean        float64
	Std         float64
	Max         float64
	Min         float64
	HotspotMean float64
}

// Grid is the Nx×Ny plate. One per simulation run; Reset between runs.
type Grid struct {
	nx, ny  int
	cx, cy  int
	radius  int
	field   []float64 // row-major, index x*ny + y
	hotspot []bool    // precomputed disk membership mask
	cells   int       // number of hot-spot cells
}

// New builds the grid and hot-spot mask from a validated config.
func New(cfg *config.Config) *Grid {
	g := &Grid{
		nx:     cfg.Nx,
		ny:     cfg.Ny,
		cx:     cfg.HotspotCX,
		cy:     cfg.HotspotCY,
		radius: cfg.HotspotRadius,
	}
	g.field = make([]float64, g.nx*g.ny)
	g.hotspot = make([]bool, g.nx*g.ny)
	r2 := g.radius * g.radius
	for x := 0; x < g.nx; x++ {
		for y := 0; y < g.ny; y++ {
			dx, dy := x-g.cx, y-g.cy
			if dx*dx+dy*dy <= r2 {
				g.hotspot[x*g.ny+y] = true
				g.cells++
			}
		}
	}
	return g
}

// Dims returns the grid dimensions (Nx, Ny).
func (g *Grid) Dims() (int, int) { return g.nx, g.ny }

// HotspotCells returns the number of cells inside the hot-spot disk.
func (g *Grid) HotspotCells() int { return g.cells }

// InBounds reports whether (x, y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.nx && y >= 0 && y < g.ny
}

// InHotspot reports whether (x, y) lies inside the hot-spot disk.
func (g *Grid) InHotspot(x, y int) bool {
	return g.InBounds(x, y) && g.hotspot[x*g.ny+y]
}

// SampleHotspot draws a position uniform by area over the hot-spot disk:
// r = R·√u, θ = U(0, 2π), so samples are not biased toward the center.
// The rounded position is clamped to grid bounds. Consumes exactly two
// draws from src.
func (g *Grid) SampleHotspot(src rng.Source) (int, int) {
	u := src.Float64()
	r := float64(g.radius) * math.Sqrt(u)
	theta := 2 * math.Pi * src.Float64()

	x := g.cx + int(r*math.Cos(theta))
	y := g.cy + int(r*math.Sin(theta))
	return clamp(x, 0, g.nx-1), clamp(y, 0, g.ny-1)
}

// Neighbors returns the in-bounds four-connected neighbors of (x, y).
func (g *Grid) Neighbors(x, y int) [][2]int {
	out := make([][2]int, 0, 4)
	for _, d := range NeighborOffsets {
		nx, ny := x+d[0], y+d[1]
		if g.InBounds(nx, ny) {
			out = append(out, [2]int{nx, ny})
		}
	}
	return out
}

// RebuildField recomputes the occupancy field from the active packet
// positions; every cell not occupied is zero.
func (g *Grid) RebuildField(positions [][2]int) {
	for i := range g.field {
		g.field[i] = 0
	}
	for _, p := range positions {
		if g.InBounds(p[0], p[1]) {
			g.field[p[0]*g.ny+p[1]]++
		}
	}
}

// HotspotTemperature is the mean occupancy over hot-spot cells. The value
// is a dimensionless packet density; callers rescale it with the material
// correction factor if they want approximate degrees.
func (g *Grid) HotspotTemperature() float64 {
	if g.cells == 0 {
		return 0
	}
	sum := 0.0
	for i, in := range g.hotspot {
		if in {
			sum += g.field[i]
		}
	}
	return sum / float64(g.cells)
}

// FieldStats computes the field summary for the current snapshot.
func (g *Grid) FieldStats() Stats {
	s := Stats{
		Mean:        stat.Mean(g.field, nil),
		Std:         stat.PopStdDev(g.field, nil),
		Max:         g.field[0],
		Min:         g.field[0],
		HotspotMean: g.HotspotTemperature(),
	}
	for _, v := range g.field[1:] {
		if v > s.Max {
			s.Max = v
		}
		if v < s.Min {
			s.Min = v
		}
	}
	return s
}

// Field returns a copy of the occupancy field, row-major with stride Ny.
func (g *Grid) Field() []float64 {
	out := make([]float64, len(g.field))
	copy(out, g.field)
	return out
}

// At returns the occupancy of cell (x, y).
func (g *Grid) At(x, y int) float64 { return g.field[x*g.ny+y] }

// Reset zeroes the field for a fresh run.
func (g *Grid) Reset() {
	for i := range g.field {
		g.field[i] = 0
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
