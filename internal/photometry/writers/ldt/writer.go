// Package ldt serializes a CanonicalPhotometry table back to EULUMDAT
// (.ldt) text, the inverse of photometry.ParseEULUMDAT. Geometric and
// electrical header fields that CanonicalPhotometry does not carry are
// written as zero/placeholder values.
package ldt

import (
	"fmt"
	"strconv"
	"strings"

	"luxera/internal/photometry"
)

// Options controls numeric formatting and the free-text header fields.
type Options struct {
	Precision       int
	UseCommaDecimal bool
	CompanyID       string
	LuminaireName   string
	LuminaireNumber string
}

// DefaultOptions matches the EULUMDAT convention of one decimal place and
// a comma decimal separator.
func DefaultOptions() Options {
	return Options{
		Precision:       1,
		UseCommaDecimal: true,
	}
}

// symmetryIndicator maps CanonicalPhotometry's Symmetry enum to the
// EULUMDAT Isym header field (0: none, 1: about vertical axis, 2: C0-C180
// plane, 3: C90-C270 plane, 4: both planes).
func symmetryIndicator(s photometry.Symmetry) int {
	switch s {
	case photometry.SymmetryFull:
		return 1
	case photometry.SymmetryBilateral:
		return 2
	case photometry.SymmetryQuadrant:
		return 4
	default:
		return 0
	}
}

// Write renders p as an EULUMDAT file.
func Write(p *photometry.CanonicalPhotometry, opts Options) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("ldt: canonical photometry cannot be nil")
	}
	if len(p.AnglesV) == 0 || len(p.AnglesH) == 0 {
		return nil, fmt.Errorf("ldt: angle axes cannot be empty")
	}
	if len(p.Intensity) != len(p.AnglesH) {
		return nil, fmt.Errorf("ldt: intensity rows (%d) must match angles_h count (%d)", len(p.Intensity), len(p.AnglesH))
	}
	if len(p.AnglesH) > 360 {
		return nil, fmt.Errorf("ldt: too many C planes (%d), maximum is 360", len(p.AnglesH))
	}
	if len(p.AnglesV) > 181 {
		return nil, fmt.Errorf("ldt: too many gamma angles (%d), maximum is 181", len(p.AnglesV))
	}

	w := &writer{opts: opts}
	var out strings.Builder

	company := opts.CompanyID
	if company == "" {
		company = "unknown"
	}
	// Lines 1-12: identification header. Dc is always written as 0 so the
	// reader reconstructs the C-plane axis from the explicit angle array
	// below rather than a regenerated uniform step, which would silently
	// corrupt the round-trip for an irregularly sampled axis.
	out.WriteString(company + "\n")
	out.WriteString("1\n") // type indicator: point source
	fmt.Fprintf(&out, "%d\n", symmetryIndicator(p.Symmetry))
	fmt.Fprintf(&out, "%d\n", len(p.AnglesH))
	out.WriteString("0\n") // Dc
	fmt.Fprintf(&out, "%d\n", len(p.AnglesV))
	out.WriteString("0\n") // Dg, unused on read
	out.WriteString("\n")                       // measurement report
	out.WriteString(opts.LuminaireName + "\n")   // luminaire name
	out.WriteString(opts.LuminaireNumber + "\n") // luminaire number
	out.WriteString(p.SourcePath + "\n")         // file name
	out.WriteString("\n")                        // date/user

	// Lines 13-26: luminaire/luminous-area geometry and tilt/lamp-set
	// count, none of which CanonicalPhotometry carries.
	for i := 0; i < 9; i++ {
		out.WriteString("0\n") // length/width/height, luminous area dims, heights C0/C90/C180/C270
	}
	out.WriteString("0\n")   // downward flux fraction
	out.WriteString("100\n") // light output ratio luminaire
	out.WriteString(w.formatFloat(1) + "\n") // conversion factor for luminous intensities
	out.WriteString("0\n")                   // tilt angle
	out.WriteString("1\n")                   // number of standard lamp sets

	// Lines 27-36: direct ratios for room indices (not modeled).
	for i := 0; i < 10; i++ {
		out.WriteString("0\n")
	}

	// Lines 37-42: single lamp set row (number of lamps, type, flux,
	// color temperature, color rendering group, wattage).
	flux := p.LuminousFluxLm
	out.WriteString("1\n")
	out.WriteString("LED\n")
	out.WriteString(w.formatFloat(flux) + "\n")
	out.WriteString("\n")
	out.WriteString("\n")
	out.WriteString("0\n")

	w.writeFloatArray(&out, p.AnglesH)
	w.writeFloatArray(&out, p.AnglesV)

	for h := range p.Intensity {
		row := make([]float64, len(p.AnglesV))
		for v := range row {
			row[v] = p.Intensity[h][v]
		}
		w.writeFloatArray(&out, row)
	}

	return []byte(out.String()), nil
}

type writer struct {
	opts Options
}

func (w *writer) writeFloatArray(out *strings.Builder, values []float64) {
	for _, v := range values {
		out.WriteString(w.formatFloat(v) + "\n")
	}
}

func (w *writer) formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', w.opts.Precision, 64)
	if w.opts.UseCommaDecimal {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}
