package bundle

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chrissnell/cropyield/internal/pipeline"
	"github.com/chrissnell/cropyield/internal/synth"
	"github.com/chrissnell/cropyield/pkg/raster"
)

func synthetic(t *testing.T) pipeline.Inputs {
	t.Helper()
	g, err := raster.NewGrid(2, 3, "bundle-test")
	if err != nil {
		t.Fatal(err)
	}
	opts, err := synth.DefaultOptions(g, 2022)
	if err != nil {
		t.Fatal(err)
	}
	opts.Masked = []int{4}
	s, err := synth.Generate(opts)
	if err != nil {
		t.Fatal(err)
	}
	return pipeline.Inputs{Grid: g, Vegetation: s.Raw, DailyVegetation: &s.Daily, Weather: s.Weather}
}

func sameSeries(t *testing.T, name string, want, got raster.Series) {
	t.Helper()
	if diff := cmp.Diff(raster.EncodeSeries(want), raster.EncodeSeries(got)); diff != "" {
		t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
	}
}

func TestRoundTrip(t *testing.T) {
	in := synthetic(t)

	var buf bytes.Buffer
	if err := Write(&buf, FromInputs(in)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	b, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	out, err := b.Inputs()
	if err != nil {
		t.Fatalf("Inputs: %v", err)
	}

	if out.Grid != in.Grid {
		t.Errorf("grid mismatch: %+v vs %+v", out.Grid, in.Grid)
	}
	sameSeries(t, "vegetation", in.Vegetation, out.Vegetation)
	if out.DailyVegetation == nil {
		t.Fatal("daily vegetation lost")
	}
	sameSeries(t, "daily vegetation", *in.DailyVegetation, *out.DailyVegetation)
	sameSeries(t, "gsr", in.Weather.GSR, out.Weather.GSR)
	sameSeries(t, "pet", in.Weather.PET, out.Weather.PET)
	if out.WaterIndex != nil {
		t.Error("expected no water index")
	}
	if out.Vegetation.Frame(0).Raster.Pixel(4).OK {
		t.Error("masked pixel should survive the round trip")
	}
}

func TestSaveAndLoad(t *testing.T) {
	in := synthetic(t)
	path := filepath.Join(t.TempDir(), "season.msgpack")
	if err := Save(path, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sameSeries(t, "t-avg", in.Weather.TAvg, out.Weather.TAvg)
}

func TestInputsRejectsBadBundles(t *testing.T) {
	in := synthetic(t)

	unknown := FromInputs(in)
	unknown.Weather["humidity"] = unknown.Weather[TAvg]

	noMask := FromInputs(in)
	noMask.Weather[GSR][0].Raster.Valid = nil

	tests := []struct {
		name string
		b    Bundle
	}{
		{"empty grid", Bundle{}},
		{"unknown weather variable", unknown},
		{"raster without mask", noMask},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.b.Inputs(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
