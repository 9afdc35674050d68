// Package config loads the run configuration and resolves every optional
// field to its documented default, once, at pipeline entry.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/chrissnell/cropyield/internal/crop"
	"github.com/chrissnell/cropyield/internal/season"
	"github.com/chrissnell/cropyield/pkg/raster"
)

// DefaultMovingWindow is used when model.moving-window is not set
const DefaultMovingWindow = 7

// Config is the base configuration object
type Config struct {
	Crop     CropConfig    `yaml:"crop"`
	Scenario string        `yaml:"scenario"`
	Model    ModelConfig   `yaml:"model,omitempty"`
	Domain   string        `yaml:"domain,omitempty"`
	Output   OutputConfig  `yaml:"output,omitempty"`
	Storage  StorageConfig `yaml:"storage,omitempty"`
	Server   ServerConfig  `yaml:"server,omitempty"`

	// Overrides carries per-pixel parameter rasters. They cannot be expressed
	// in YAML and take precedence over the scalar model settings.
	Overrides Overrides `yaml:"-"`
}

// CropConfig selects the crop and its calendar
type CropConfig struct {
	Species      string `yaml:"species"`
	Year         int    `yaml:"year"`
	Month        int    `yaml:"month"`
	SeasonMonths int    `yaml:"season-months"`
}

// ModelConfig holds optional model parameters. Unset fields fall back to the
// archetype defaults from crop.DefaultsFor.
type ModelConfig struct {
	Tbase          *float64 `yaml:"tbase,omitempty"`
	Topt           *float64 `yaml:"topt,omitempty"`
	Tmax           *float64 `yaml:"tmax,omitempty"`
	TextHeat       *float64 `yaml:"text-heat,omitempty"`
	TextCold       *float64 `yaml:"text-cold,omitempty"`
	HeatLimit      *float64 `yaml:"heat-limit,omitempty"`
	ColdLimit      *float64 `yaml:"cold-limit,omitempty"`
	RUE            *float64 `yaml:"rue,omitempty"`
	K              *float64 `yaml:"k,omitempty"`
	Remobilization *float64 `yaml:"remobilization,omitempty"`
	MovingWindow   *int     `yaml:"moving-window,omitempty"`
}

// OutputConfig sets the resolution of the output rasters. Zero values keep
// the input grid.
type OutputConfig struct {
	Rows int `yaml:"rows,omitempty"`
	Cols int `yaml:"cols,omitempty"`
}

// StorageConfig configures the result store
type StorageConfig struct {
	SQLitePath string `yaml:"sqlite-path,omitempty"`
}

// ServerConfig configures the result API
type ServerConfig struct {
	ListenAddr string `yaml:"listen-addr,omitempty"`
	Port       int    `yaml:"port,omitempty"`
}

// Overrides are optional per-pixel cardinal temperatures
type Overrides struct {
	Tbase     *raster.Raster
	Topt      *raster.Raster
	Tmax      *raster.Raster
	TextHeat  *raster.Raster
	TextCold  *raster.Raster
	HeatLimit *raster.Raster
	ColdLimit *raster.Raster
}

// NewConfig creates a new config object from the given filename.
func NewConfig(filename string) (Config, error) {
	cfgFile, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	return Parse(cfgFile)
}

// Parse decodes a YAML configuration document
func Parse(data []byte) (Config, error) {
	c := Config{}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, fmt.Errorf("error parsing configuration: %w", err)
	}
	return c, nil
}

// Params is the fully resolved, immutable input of a pipeline run
type Params struct {
	Crop       crop.Archetype
	Scenario   crop.Scenario
	Window     season.Window
	Variables  crop.Variables
	Grid       raster.Grid
	OutputGrid raster.Grid
}

// Resolve validates c and applies defaults for the input grid. All errors
// are *season.ConfigurationError.
func (c Config) Resolve(grid raster.Grid) (Params, error) {
	archetype, err := crop.ParseArchetype(c.Crop.Species)
	if err != nil {
		return Params{}, &season.ConfigurationError{Param: "crop.species", Reason: err.Error()}
	}
	scenario, err := crop.ParseScenario(c.Scenario)
	if err != nil {
		return Params{}, &season.ConfigurationError{Param: "scenario", Reason: err.Error()}
	}

	movingWindow := DefaultMovingWindow
	if c.Model.MovingWindow != nil {
		movingWindow = *c.Model.MovingWindow
	}
	window, err := season.Resolve(c.Crop.Year, c.Crop.Month, c.Crop.SeasonMonths, movingWindow)
	if err != nil {
		return Params{}, err
	}

	d := crop.DefaultsFor(archetype)
	pick := func(v *float64, def float64) float64 {
		if v != nil {
			return *v
		}
		return def
	}
	d = crop.Defaults{
		Tbase:          pick(c.Model.Tbase, d.Tbase),
		Topt:           pick(c.Model.Topt, d.Topt),
		Tmax:           pick(c.Model.Tmax, d.Tmax),
		TextHeat:       pick(c.Model.TextHeat, d.TextHeat),
		TextCold:       pick(c.Model.TextCold, d.TextCold),
		HeatLimit:      pick(c.Model.HeatLimit, d.HeatLimit),
		ColdLimit:      pick(c.Model.ColdLimit, d.ColdLimit),
		RUE:            pick(c.Model.RUE, d.RUE),
		K:              pick(c.Model.K, d.K),
		Remobilization: pick(c.Model.Remobilization, d.Remobilization),
	}
	if err := validateScalars(d); err != nil {
		return Params{}, err
	}

	vars := crop.Constant(archetype, d, grid)
	overrides := []struct {
		name string
		src  *raster.Raster
		dst  **raster.Raster
	}{
		{"tbase", c.Overrides.Tbase, &vars.Tbase},
		{"topt", c.Overrides.Topt, &vars.Topt},
		{"tmax", c.Overrides.Tmax, &vars.Tmax},
		{"text-heat", c.Overrides.TextHeat, &vars.TextHeat},
		{"text-cold", c.Overrides.TextCold, &vars.TextCold},
		{"heat-limit", c.Overrides.HeatLimit, &vars.HeatLimit},
		{"cold-limit", c.Overrides.ColdLimit, &vars.ColdLimit},
	}
	for _, o := range overrides {
		if o.src == nil {
			continue
		}
		if o.src.Grid() != grid {
			return Params{}, &season.ConfigurationError{
				Param:  "model." + o.name,
				Reason: fmt.Sprintf("override raster is %dx%d, input grid is %dx%d", o.src.Grid().Rows, o.src.Grid().Cols, grid.Rows, grid.Cols),
			}
		}
		*o.dst = o.src
	}

	outGrid := grid
	if c.Output.Rows > 0 || c.Output.Cols > 0 {
		outGrid, err = raster.NewGrid(c.Output.Rows, c.Output.Cols, grid.Domain)
		if err != nil {
			return Params{}, &season.ConfigurationError{Param: "output", Reason: err.Error()}
		}
	}

	return Params{
		Crop:       archetype,
		Scenario:   scenario,
		Window:     window,
		Variables:  vars,
		Grid:       grid,
		OutputGrid: outGrid,
	}, nil
}

func validateScalars(d crop.Defaults) error {
	switch {
	case !(d.Tbase < d.Topt && d.Topt < d.Tmax):
		return &season.ConfigurationError{
			Param:  "model.tbase/topt/tmax",
			Reason: fmt.Sprintf("cardinal temperatures must satisfy tbase < topt < tmax (got %g, %g, %g)", d.Tbase, d.Topt, d.Tmax),
		}
	case d.HeatLimit <= d.TextHeat:
		return &season.ConfigurationError{Param: "model.heat-limit", Reason: fmt.Sprintf("%g must exceed text-heat %g", d.HeatLimit, d.TextHeat)}
	case d.ColdLimit >= d.TextCold:
		return &season.ConfigurationError{Param: "model.cold-limit", Reason: fmt.Sprintf("%g must be below text-cold %g", d.ColdLimit, d.TextCold)}
	case d.RUE <= 0:
		return &season.ConfigurationError{Param: "model.rue", Reason: "must be positive"}
	case d.K <= 0:
		return &season.ConfigurationError{Param: "model.k", Reason: "must be positive"}
	case d.Remobilization < 0:
		return &season.ConfigurationError{Param: "model.remobilization", Reason: "must not be negative"}
	}
	return nil
}
