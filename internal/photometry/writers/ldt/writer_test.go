package ldt_test

import (
	"testing"

	"luxera/internal/errs"
	"luxera/internal/photometry"
	"luxera/internal/photometry/writers/ldt"
)

func sampleTable() *photometry.CanonicalPhotometry {
	return &photometry.CanonicalPhotometry{
		System:            photometry.SystemC,
		AnglesH:           []float64{0, 90, 180, 270},
		AnglesV:           []float64{0, 45, 90},
		Intensity:         [][]float64{{500, 300, 0}, {500, 300, 0}, {500, 300, 0}, {500, 300, 0}},
		Symmetry:          photometry.SymmetryNone,
		Tilt:              photometry.Tilt{Mode: photometry.TiltNone},
		CandelaMultiplier: 1,
		SourceFormat:      "ldt",
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	src := sampleTable()
	out, err := ldt.Write(src, ldt.DefaultOptions())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	rec := &errs.Recovery{}
	got, err := photometry.ParseEULUMDAT(out, "roundtrip.ldt", rec)
	if err != nil {
		t.Fatalf("ParseEULUMDAT: %v\n--- content ---\n%s", err, out)
	}

	if len(got.AnglesH) != len(src.AnglesH) || len(got.AnglesV) != len(src.AnglesV) {
		t.Fatalf("angle axis length mismatch: got h=%d v=%d, want h=%d v=%d",
			len(got.AnglesH), len(got.AnglesV), len(src.AnglesH), len(src.AnglesV))
	}
	for h := range src.Intensity {
		for v := range src.Intensity[h] {
			diff := got.Intensity[h][v] - src.Intensity[h][v]
			if diff > 1e-3 || diff < -1e-3 {
				t.Errorf("intensity[%d][%d] = %v, want %v", h, v, got.Intensity[h][v], src.Intensity[h][v])
			}
		}
	}
}

func TestWriteRejectsTooManyCPlanes(t *testing.T) {
	src := sampleTable()
	wide := make([]float64, 361)
	for i := range wide {
		wide[i] = float64(i)
	}
	src.AnglesH = wide
	src.Intensity = make([][]float64, 361)
	for i := range src.Intensity {
		src.Intensity[i] = []float64{1, 1, 1}
	}
	if _, err := ldt.Write(src, ldt.DefaultOptions()); err == nil {
		t.Fatal("expected error for >360 C planes")
	}
}
