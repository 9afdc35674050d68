// Package crop defines the crop archetypes, production scenarios and the
// per-archetype crop variables used by the stress and biomass models.
package crop

import (
	"fmt"
	"strings"

	"github.com/chrissnell/cropyield/pkg/raster"
)

// Archetype selects one of the parametrized crop families
type Archetype string

const (
	// WinterCrops covers winter wheat and similar cereals
	WinterCrops Archetype = "winter-crops"

	// Maize is the summer maize archetype
	Maize Archetype = "maize"
)

// ParseArchetype maps a configuration string onto an archetype
func ParseArchetype(s string) (Archetype, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "winter-crops", "winter crops", "wheat":
		return WinterCrops, nil
	case "maize", "corn":
		return Maize, nil
	}
	return "", fmt.Errorf("unknown crop species %q (want maize or winter-crops)", s)
}

// Scenario selects the stress factor modulating photosynthesis
type Scenario string

const (
	Optimal      Scenario = "optimal"
	HeatLimited  Scenario = "heat-limited"
	ColdLimited  Scenario = "cold-limited"
	WaterLimited Scenario = "water-limited"
)

// ParseScenario maps a configuration string onto a scenario
func ParseScenario(s string) (Scenario, error) {
	switch Scenario(strings.ToLower(strings.TrimSpace(s))) {
	case Optimal, "potential":
		return Optimal, nil
	case HeatLimited:
		return HeatLimited, nil
	case ColdLimited:
		return ColdLimited, nil
	case WaterLimited:
		return WaterLimited, nil
	}
	return "", fmt.Errorf("unknown scenario %q (want optimal, heat-limited, cold-limited or water-limited)", s)
}

// Defaults holds the documented scalar defaults of an archetype
type Defaults struct {
	Tbase          float64 // °C, no development below
	Topt           float64 // °C, optimal development
	Tmax           float64 // °C, no development above
	TextHeat       float64 // °C, onset of heat stress on T_max
	TextCold       float64 // °C, onset of cold stress on T_min
	HeatLimit      float64 // °C, full heat stress
	ColdLimit      float64 // °C, full cold stress
	RUE            float64 // g MJ⁻¹
	K              float64 // light extinction coefficient
	Remobilization float64
}

// DefaultsFor returns the defaults of archetype a
func DefaultsFor(a Archetype) Defaults {
	switch a {
	case Maize:
		return Defaults{
			Tbase:          8,
			Topt:           28,
			Tmax:           34,
			TextHeat:       37,
			TextCold:       0,
			HeatLimit:      45,
			ColdLimit:      -6,
			RUE:            4,
			K:              0.5,
			Remobilization: 0.01,
		}
	default:
		return Defaults{
			Tbase:          0,
			Topt:           20,
			Tmax:           30,
			TextHeat:       40,
			TextCold:       -5,
			HeatLimit:      45,
			ColdLimit:      -12,
			RUE:            1.5,
			K:              0.4,
			Remobilization: 0.01,
		}
	}
}

// Variables is the resolved, immutable parameter set of one run. Cardinal
// temperatures are rasters so that they can vary per pixel; scalar settings
// become constant rasters.
type Variables struct {
	Archetype Archetype

	Tbase     *raster.Raster
	Topt      *raster.Raster
	Tmax      *raster.Raster
	TextHeat  *raster.Raster
	TextCold  *raster.Raster
	HeatLimit *raster.Raster
	ColdLimit *raster.Raster

	RUE            float64
	K              float64
	Remobilization float64
}

// Constant builds Variables on grid from scalar values
func Constant(a Archetype, d Defaults, grid raster.Grid) Variables {
	return Variables{
		Archetype:      a,
		Tbase:          raster.Fill(grid, d.Tbase),
		Topt:           raster.Fill(grid, d.Topt),
		Tmax:           raster.Fill(grid, d.Tmax),
		TextHeat:       raster.Fill(grid, d.TextHeat),
		TextCold:       raster.Fill(grid, d.TextCold),
		HeatLimit:      raster.Fill(grid, d.HeatLimit),
		ColdLimit:      raster.Fill(grid, d.ColdLimit),
		RUE:            d.RUE,
		K:              d.K,
		Remobilization: d.Remobilization,
	}
}
