// Package bundle reads and writes input bundles: a grid plus the vegetation
// and weather series of a season, serialized with MessagePack.
package bundle

import (
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/chrissnell/cropyield/internal/pipeline"
	"github.com/chrissnell/cropyield/internal/stress"
	"github.com/chrissnell/cropyield/pkg/raster"
)

// Weather variable keys
const (
	TAvg     = "t-avg"
	TMin     = "t-min"
	TMax     = "t-max"
	TMinSoil = "t-min-soil"
	PET      = "pet"
	Precip   = "precip"
	GSR      = "gsr"
)

// Bundle is the wire form of pipeline.Inputs
type Bundle struct {
	Grid            raster.Grid                      `json:"grid"`
	Vegetation      []raster.EncodedFrame            `json:"vegetation,omitempty"`
	DailyVegetation []raster.EncodedFrame            `json:"daily-vegetation,omitempty"`
	Weather         map[string][]raster.EncodedFrame `json:"weather"`
	WaterIndex      []raster.EncodedFrame            `json:"water-index,omitempty"`
}

func weatherFields(w *stress.Weather) map[string]*raster.Series {
	return map[string]*raster.Series{
		TAvg:     &w.TAvg,
		TMin:     &w.TMin,
		TMax:     &w.TMax,
		TMinSoil: &w.TMinSoil,
		PET:      &w.PET,
		Precip:   &w.Precip,
		GSR:      &w.GSR,
	}
}

// FromInputs converts pipeline inputs into a bundle
func FromInputs(in pipeline.Inputs) Bundle {
	b := Bundle{
		Grid:       in.Grid,
		Vegetation: raster.EncodeSeries(in.Vegetation),
		Weather:    make(map[string][]raster.EncodedFrame),
	}
	if in.DailyVegetation != nil {
		b.DailyVegetation = raster.EncodeSeries(*in.DailyVegetation)
	}
	if in.WaterIndex != nil {
		b.WaterIndex = raster.EncodeSeries(*in.WaterIndex)
	}
	for key, s := range weatherFields(&in.Weather) {
		b.Weather[key] = raster.EncodeSeries(*s)
	}
	return b
}

// Inputs decodes the bundle into pipeline inputs. Missing weather variables
// decode as empty series and are rejected later by the aligner.
func (b Bundle) Inputs() (pipeline.Inputs, error) {
	in := pipeline.Inputs{Grid: b.Grid}
	if b.Grid.Len() == 0 {
		return in, fmt.Errorf("bundle has an empty grid")
	}

	var err error
	if in.Vegetation, err = raster.DecodeSeries(b.Grid, b.Vegetation); err != nil {
		return in, fmt.Errorf("decoding vegetation: %w", err)
	}
	if len(b.DailyVegetation) > 0 {
		s, err := raster.DecodeSeries(b.Grid, b.DailyVegetation)
		if err != nil {
			return in, fmt.Errorf("decoding daily vegetation: %w", err)
		}
		in.DailyVegetation = &s
	}
	if len(b.WaterIndex) > 0 {
		s, err := raster.DecodeSeries(b.Grid, b.WaterIndex)
		if err != nil {
			return in, fmt.Errorf("decoding water index: %w", err)
		}
		in.WaterIndex = &s
	}

	fields := weatherFields(&in.Weather)
	for key := range b.Weather {
		if _, ok := fields[key]; !ok {
			return in, fmt.Errorf("unknown weather variable %q", key)
		}
	}
	for key, dst := range fields {
		if *dst, err = raster.DecodeSeries(b.Grid, b.Weather[key]); err != nil {
			return in, fmt.Errorf("decoding weather variable %s: %w", key, err)
		}
	}
	return in, nil
}

// Write encodes b to w
func Write(w io.Writer, b Bundle) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	return enc.Encode(b)
}

// Read decodes a bundle from r
func Read(r io.Reader) (Bundle, error) {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	var b Bundle
	if err := dec.Decode(&b); err != nil {
		return Bundle{}, fmt.Errorf("error decoding bundle: %w", err)
	}
	return b, nil
}

// Load reads a bundle file and decodes it into pipeline inputs
func Load(filename string) (pipeline.Inputs, error) {
	f, err := os.Open(filename)
	if err != nil {
		return pipeline.Inputs{}, err
	}
	defer f.Close()

	b, err := Read(f)
	if err != nil {
		return pipeline.Inputs{}, err
	}
	return b.Inputs()
}

// Save writes inputs to a bundle file
func Save(filename string, in pipeline.Inputs) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := Write(f, FromInputs(in)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
