// Package config holds the immutable simulation parameters and the derived
// quantities the Monte Carlo engine runs on. Validation is fail-fast:
// physically unstable or out-of-bounds configurations are rejected at
// construction and never silently clamped.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Boundary selects what happens to a packet whose move would leave the grid.
type Boundary string

const (
	BoundaryAbsorbing  Boundary = "absorbing"
	BoundaryReflecting Boundary = "reflecting"
)

const (
	DefaultLx             = 0.025 // plate width (m)
	DefaultLy             = 0.025 // plate height (m)
	DefaultDx             = 0.002 // grid spacing (m)
	DefaultDt             = 0.002 // time step (s)
	DefaultTMax           = 5.0   // simulated time (s)
	DefaultNPackets       = 800
	DefaultSeed           = 42
	DefaultHotspotRadius  = 3
	DefaultQ              = 15
	DefaultOutputInterval = 100
)

// Params are the user-facing knobs. A zero HotspotX/HotspotY of -1 places
// the hot-spot at the grid center.
type Params struct {
	Lx float64 `yaml:"lx"`
	Ly float64 `yaml:"ly"`
	Dx float64 `yaml:"dx"`

	Dt   float64 `yaml:"dt"`
	TMax float64 `yaml:"t_max"`

	// Material sets Alpha from the diffusivity table when non-empty;
	// Alpha may also be given directly for a custom material.
	Material string  `yaml:"material"`
	Alpha    float64 `yaml:"alpha"`

	NPackets   int   `yaml:"n_packets"`
	MaxPackets int   `yaml:"max_packets"` // 0 = unbounded
	Seed       int64 `yaml:"seed"`

	HotspotX      int `yaml:"hotspot_x"`
	HotspotY      int `yaml:"hotspot_y"`
	HotspotRadius int `yaml:"hotspot_radius"`
	Q             int `yaml:"q"`

	Boundary       Boundary `yaml:"boundary"`
	ConvectionProb float64  `yaml:"convection_prob"`

	OutputInterval int  `yaml:"output_interval"`
	SaveSnapshots  bool `yaml:"save_snapshots"`
}

// Default returns the standardized study parameters (copper plate).
func Default() Params {
	return Params{
		Lx:             DefaultLx,
		Ly:             DefaultLy,
		Dx:             DefaultDx,
		Dt:             DefaultDt,
		TMax:           DefaultTMax,
		Material:       "copper",
		NPackets:       DefaultNPackets,
		Seed:           DefaultSeed,
		HotspotX:       -1,
		HotspotY:       -1,
		HotspotRadius:  DefaultHotspotRadius,
		Q:              DefaultQ,
		Boundary:       BoundaryAbsorbing,
		ConvectionProb: DefaultConvectionProb,
		OutputInterval: DefaultOutputInterval,
		SaveSnapshots:  true,
	}
}

// Config is an immutable, validated parameter set plus derived quantities.
// Construct one per run via New or ForMaterial.
type Config struct {
	Params

	// Derived at construction.
	Nx              int
	Ny              int
	MoveProbability float64 // p = 4·α·dt/dx²
	Steps           int     // t_max / dt
	HotspotCX       int
	HotspotCY       int
}

// New validates p and computes the derived quantities.
func New(p Params) (*Config, error) {
	if p.Material != "" {
		alpha, err := MaterialAlpha(p.Material)
		if err != nil {
			return nil, err
		}
		p.Alpha = alpha
	}

	if p.Dx <= 0 {
		return nil, fmt.Errorf("grid spacing dx %g must be positive", p.Dx)
	}
	if p.Dt <= 0 {
		return nil, fmt.Errorf("time step dt %g must be positive", p.Dt)
	}
	if p.TMax <= 0 {
		return nil, fmt.Errorf("total time t_max %g must be positive", p.TMax)
	}
	if p.Alpha <= 0 {
		return nil, fmt.Errorf("thermal diffusivity alpha %g must be positive", p.Alpha)
	}
	if p.Q < 0 {
		return nil, fmt.Errorf("injection rate Q %d must be non-negative", p.Q)
	}
	if p.ConvectionProb < 0 || p.ConvectionProb > 1 {
		return nil, fmt.Errorf("convection probability %g outside [0, 1]", p.ConvectionProb)
	}
	if p.OutputInterval < 1 {
		return nil, fmt.Errorf("output interval %d must be at least 1", p.OutputInterval)
	}
	switch p.Boundary {
	case BoundaryAbsorbing, BoundaryReflecting:
	default:
		return nil, fmt.Errorf("boundary %q must be %q or %q",
			p.Boundary, BoundaryAbsorbing, BoundaryReflecting)
	}

	cfg := &Config{Params: p}
	// epsilon keeps an exact multiple of dx from truncating one cell short
	cfg.Nx = int(p.Lx/p.Dx + 1e-9)
	cfg.Ny = int(p.Ly/p.Dx + 1e-9)
	if cfg.Nx < 1 || cfg.Ny < 1 {
		return nil, fmt.Errorf("plate %gx%g m too small for grid spacing %g m", p.Lx, p.Ly, p.Dx)
	}

	cfg.MoveProbability = 4 * p.Alpha * p.Dt / (p.Dx * p.Dx)
	if cfg.MoveProbability > 1.0 {
		return nil, fmt.Errorf("move probability %.3f > 1.0: reduce dt or increase dx for stability",
			cfg.MoveProbability)
	}

	cfg.Steps = int(p.TMax / p.Dt)

	cfg.HotspotCX, cfg.HotspotCY = p.HotspotX, p.HotspotY
	if cfg.HotspotCX < 0 {
		cfg.HotspotCX = cfg.Nx / 2
	}
	if cfg.HotspotCY < 0 {
		cfg.HotspotCY = cfg.Ny / 2
	}

	if p.HotspotRadius <= 0 {
		return nil, fmt.Errorf("hot-spot radius %d must be positive", p.HotspotRadius)
	}
	r := p.HotspotRadius
	if cfg.HotspotCX-r < 0 || cfg.HotspotCX+r >= cfg.Nx ||
		cfg.HotspotCY-r < 0 || cfg.HotspotCY+r >= cfg.Ny {
		return nil, fmt.Errorf("hot-spot center (%d,%d) with radius %d exceeds grid bounds %dx%d",
			cfg.HotspotCX, cfg.HotspotCY, r, cfg.Nx, cfg.Ny)
	}

	return cfg, nil
}

// ForMaterial builds a config from the standardized defaults for a named
// material at injection rate q.
func ForMaterial(material string, q int) (*Config, error) {
	p := Default()
	p.Material = material
	p.Q = q
	return New(p)
}

// TemperatureCorrection is the linear factor mapping raw packet density to
// an approximate physical temperature for this config's material. Unknown
// or custom materials get 1.0. Applied by consumers of the result bundle,
// never inside the engine.
func (c *Config) TemperatureCorrection() float64 {
	return correctionFactor(c.Material)
}

func (c *Config) String() string {
	return fmt.Sprintf("grid %dx%d (%.0fx%.0f mm), %d steps of %.1fms, material %s (alpha=%.2e, p=%.3f), Q=%d/step, hotspot (%d,%d) r=%d, boundary %s, convection %.3f",
		c.Nx, c.Ny, c.Lx*1000, c.Ly*1000, c.Steps, c.Dt*1000,
		c.Material, c.Alpha, c.MoveProbability, c.Q,
		c.HotspotCX, c.HotspotCY, c.HotspotRadius, c.Boundary, c.ConvectionProb)
}

// Load reads params from a yaml file, starting from the defaults.
func Load(path string) (Params, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

// Save writes params to a yaml file.
func Save(path string, p Params) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
