// Package packet holds the dynamic population of heat packets. Packets
// live in a structure-of-arrays arena rather than as individual records so
// the per-step transition loop allocates nothing; the arena is compacted
// after every pass, which keeps encounter order equal to insertion order
// and so keeps the RNG draw sequence reproducible under a fixed seed.
package packet

import (
	"github.com/san-kum/heatmc/internal/config"
	"github.com/san-kum/heatmc/internal/grid"
	"github.com/san-kum/heatmc/internal/rng"
)

// Population is the live set of heat packets plus lifetime counters.
// Mutated only by the simulator's per-step call sequence; not safe for
// concurrent use.
type Population struct {
	xs     []int
	ys     []int
	ids    []uint64
	steps  []int
	active []bool

	nextID     uint64
	maxPackets int // 0 = unbounded

	injected        int
	boundaryRemoved int
	convected       int
	truncated       int
}

// NewPopulation returns an empty population. maxPackets, when positive,
// caps the arena size: injection truncates at the cap. That is a memory
// bound, a configuration concern rather than a correctness one.
func NewPopulation(maxPackets int) *Population {
	return &Population{maxPackets: maxPackets}
}

// Inject adds up to n active packets at positions sampled uniformly over
// the hot-spot disk and returns the count actually added (less than n only
// when the packet cap truncates).
func (p *Population) Inject(n int, g *grid.Grid, src rng.Source) int {
	added := 0
	for i := 0; i < n; i++ {
		if p.maxPackets > 0 && len(p.xs) >= p.maxPackets {
			p.truncated += n - added
			break
		}
		x, y := g.SampleHotspot(src)
		p.xs = append(p.xs, x)
		p.ys = append(p.ys, y)
		p.ids = append(p.ids, p.nextID)
		p.steps = append(p.steps, 0)
		p.active = append(p.active, true)
		p.nextID++
		added++
	}
	p.injected += added
	return added
}

// StepTransition runs one stochastic update over every active packet in
// arena order. Per packet, two independent Bernoulli trials in fixed
// order: first convection (u1), then movement (u2); a moving packet draws
// one direction index. Out-of-bounds candidates follow the boundary
// policy: absorbing deactivates, reflecting stays in place. Inactive
// packets are compacted out after the pass. Returns the packets removed
// this step (boundary + convection).
func (p *Population) StepTransition(g *grid.Grid, moveProb, convProb float64, boundary config.Boundary, src rng.Source) int {
	removed := 0
	convected := 0

	for i := range p.xs {
		if !p.active[i] {
			continue
		}

		if src.Float64() < convProb {
			p.active[i] = false
			convected++
			continue
		}

		if src.Float64() < moveProb {
			d := grid.NeighborOffsets[src.Intn(len(grid.NeighborOffsets))]
			nx, ny := p.xs[i]+d[0], p.ys[i]+d[1]

			if !g.InBounds(nx, ny) {
				if boundary == config.BoundaryAbsorbing {
					p.active[i] = false
					removed++
				}
				// reflecting: stay in place, not a removal
				continue
			}

			p.xs[i] = nx
			p.ys[i] = ny
			p.steps[i]++
		}
	}

	p.compact()
	p.boundaryRemoved += removed
	p.convected += convected
	return removed + convected
}

// compact removes inactive packets, preserving the relative order of the
// survivors.
func (p *Population) compact() {
	w := 0
	for i := range p.xs {
		if !p.active[i] {
			continue
		}
		if w != i {
			p.xs[w] = p.xs[i]
			p.ys[w] = p.ys[i]
			p.ids[w] = p.ids[i]
			p.steps[w] = p.steps[i]
			p.active[w] = true
		}
		w++
	}
	p.xs = p.xs[:w]
	p.ys = p.ys[:w]
	p.ids = p.ids[:w]
	p.steps = p.steps[:w]
	p.active = p.active[:w]
}

// Active returns the number of live packets.
func (p *Population) Active() int { return len(p.xs) }

// Positions appends the active packet positions to dst and returns it.
// Pass a reused buffer to avoid per-step allocation.
func (p *Population) Positions(dst [][2]int) [][2]int {
	dst = dst[:0]
	for i := range p.xs {
		dst = append(dst, [2]int{p.xs[i], p.ys[i]})
	}
	return dst
}

// Counters returns the cumulative injected, boundary-removed and convected
// totals. The accounting invariant
// active == injected - boundaryRemoved - convected holds exactly.
func (p *Population) Counters() (injected, boundaryRemoved, convected int) {
	return p.injected, p.boundaryRemoved, p.convected
}

// Truncated reports how many injections the packet cap has dropped.
func (p *Population) Truncated() int { return p.truncated }

// Reset empties the population and zeroes all counters and the id counter.
func (p *Population) Reset() {
	p.xs = p.xs[:0]
	p.ys = p.ys[:0]
	p.ids = p.ids[:0]
	p.steps = p.steps[:0]
	p.active = p.active[:0]
	p.nextID = 0
	p.injected = 0
	p.boundaryRemoved = 0
	p.convected = 0
	p.truncated = 0
}
