package config

import (
	"fmt"
	"sort"
	"strings"
)

// Material thermal diffusivity (m²/s), room temperature values.
// Source: Brown, Marco (1958). Introduction to Heat Transfer (3rd ed.).
var diffusivity = map[string]float64{
	"silver":          165.63e-6,
	"gold":            127e-6,
	"copper":          111e-6,
	"aluminum":        97e-6,
	"iron":            23e-6,
	"steel_carbon":    18.8e-6, // AISI 1010 (0.1% carbon)
	"steel_stainless": 4.2e-6,  // stainless 304A at 27°C
}

// Material thermal conductivity (W/m·K), used only for the post-hoc
// temperature correction, never inside the stochastic engine.
// Source: CRC Handbook of Chemistry and Physics, 104th Edition.
var conductivity = map[string]float64{
	"silver":          429,
	"gold":            317,
	"copper":          401,
	"aluminum":        237,
	"iron":            80,
	"steel_carbon":    50,
	"steel_stainless": 16,
}

// referenceMaterial normalizes the temperature correction; calibration of
// the correction constants is empirical, see the conductivity table.
const referenceMaterial = "steel_carbon"

// DefaultConvectionProb is the per-step packet evaporation probability,
// calibrated against literature heat-transfer data so a copper sink lands
// in the 45-60°C range under typical load.
const DefaultConvectionProb = 0.004

// StandardQValues are the injection rates used by steady-state studies.
var StandardQValues = []int{5, 10, 15, 20, 25, 30, 35, 40}

// Materials returns the known material names, sorted.
func Materials() []string {
	names := make([]string, 0, len(diffusivity))
	for name := range diffusivity {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MaterialAlpha returns the thermal diffusivity for a material name.
func MaterialAlpha(material string) (float64, error) {
	alpha, ok := diffusivity[material]
	if !ok {
		return 0, fmt.Errorf("unknown material %q, available: %s",
			material, strings.Join(Materials(), ", "))
	}
	return alpha, nil
}

// MaterialConductivity returns the thermal conductivity for a material name.
func MaterialConductivity(material string) (float64, error) {
	kappa, ok := conductivity[material]
	if !ok {
		return 0, fmt.Errorf("unknown material %q, available: %s",
			material, strings.Join(Materials(), ", "))
	}
	return kappa, nil
}

// correctionFactor maps raw packet density to an approximate physical
// temperature scale: real temperature goes as 1/κ while the walk model
// goes as 1/α, so the factor is (α/κ) normalized to the reference material.
func correctionFactor(material string) float64 {
	alpha, okA := diffusivity[material]
	kappa, okK := conductivity[material]
	if !okA || !okK {
		return 1.0
	}
	return (alpha / kappa) / (diffusivity[referenceMaterial] / conductivity[referenceMaterial])
}
