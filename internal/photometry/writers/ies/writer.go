// Package ies serializes a CanonicalPhotometry table back to IES LM-63
// text, the inverse of photometry.ParseIES. Round-tripping
// Parse(Write(p)) reproduces p's candela table up to the Options.Precision
// rounding of the written values; header keywords (TEST, MANUFAC, LUMCAT,
// ...) are written only when supplied in Options.Keywords, since the
// canonical model does not carry them.
package ies

import (
	"fmt"
	"strconv"
	"strings"

	"luxera/internal/photometry"
)

// Options controls numeric formatting and the metadata keywords written
// into the header block.
type Options struct {
	Precision int
	Keywords  map[string]string
}

// DefaultOptions returns LM-63-2002-style defaults: three decimal places of
// precision and no extra keywords beyond the required minimum.
func DefaultOptions() Options {
	return Options{
		Precision: 3,
		Keywords:  map[string]string{},
	}
}

var keywordOrder = []string{
	"TEST", "TESTLAB", "ISSUEDATE", "MANUFAC", "LUMCAT", "LUMINAIRE",
	"LAMPCAT", "LAMP", "BALLAST", "MAINTCAT", "OTHER",
}

// Write renders p as an LM-63 IES file.
func Write(p *photometry.CanonicalPhotometry, opts Options) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("ies: canonical photometry cannot be nil")
	}
	if len(p.AnglesV) == 0 || len(p.AnglesH) == 0 {
		return nil, fmt.Errorf("ies: angle axes cannot be empty")
	}
	if len(p.Intensity) != len(p.AnglesH) {
		return nil, fmt.Errorf("ies: intensity rows (%d) must match angles_h count (%d)", len(p.Intensity), len(p.AnglesH))
	}
	for i, row := range p.Intensity {
		if len(row) != len(p.AnglesV) {
			return nil, fmt.Errorf("ies: intensity row %d length (%d) must match angles_v count (%d)", i, len(row), len(p.AnglesV))
		}
	}

	var out strings.Builder
	out.WriteString("IESNA:LM-63-2002\n")
	writeKeywords(&out, opts.Keywords)
	writeTilt(&out, p.Tilt)

	photoType := 1
	switch p.System {
	case photometry.SystemB:
		photoType = 2
	case photometry.SystemA:
		photoType = 3
	}

	numLamps := 1
	lumensPerLamp := p.LuminousFluxLm
	candelaMult := p.CandelaMultiplier
	if candelaMult <= 0 {
		candelaMult = 1
	}

	fmt.Fprintf(&out, "%d %s %s %d %d %d 1 1 1 1\n",
		numLamps,
		formatFloat(lumensPerLamp, opts.Precision),
		formatFloat(candelaMult, opts.Precision),
		len(p.AnglesV), len(p.AnglesH), photoType)
	out.WriteString("1 1 0\n")

	writeFloatsWrapped(&out, p.AnglesV, opts.Precision)
	writeFloatsWrapped(&out, p.AnglesH, opts.Precision)

	for h := range p.Intensity {
		row := make([]float64, len(p.AnglesV))
		for v := range row {
			if candelaMult != 0 {
				row[v] = p.Intensity[h][v] / candelaMult
			}
		}
		writeFloatsWrapped(&out, row, opts.Precision)
	}

	return []byte(out.String()), nil
}

func writeKeywords(out *strings.Builder, keywords map[string]string) {
	for _, key := range keywordOrder {
		if v, ok := keywords[key]; ok && v != "" {
			fmt.Fprintf(out, "[%s] %s\n", key, v)
		}
	}
}

func writeTilt(out *strings.Builder, tilt photometry.Tilt) {
	switch tilt.Mode {
	case photometry.TiltFile:
		out.WriteString("TILT=FILE\n")
		if tilt.FilePath != "" {
			out.WriteString(tilt.FilePath + "\n")
		}
	case photometry.TiltInclude:
		out.WriteString("TILT=INCLUDE\n")
		fmt.Fprintf(out, "%d\n", len(tilt.Angles))
		writeFloatsWrapped(out, tilt.Angles, 1)
		writeFloatsWrapped(out, tilt.Factors, 3)
	default:
		out.WriteString("TILT=NONE\n")
	}
}

// writeFloatsWrapped writes values space-separated, wrapping at 10 values
// per line, matching the LM-63 convention for angle/candela arrays.
func writeFloatsWrapped(out *strings.Builder, values []float64, precision int) {
	for i, v := range values {
		if i > 0 {
			if i%10 == 0 {
				out.WriteString("\n")
			} else {
				out.WriteString(" ")
			}
		}
		out.WriteString(formatFloat(v, precision))
	}
	out.WriteString("\n")
}

func formatFloat(v float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}
