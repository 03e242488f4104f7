package photometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"luxera/internal/errs"
)

// cieStandardGammaAngles is the fixed CIE 102 tabulation: 10-degree steps
// from 0 to 90, the conventional road/area-luminaire gamma resolution.
var cieStandardGammaAngles = []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}

// ParseCIE parses a CIE-style tabulated road-luminaire intensity table
// (the "i-table" convention: a header line of `flag numCPlanes numGamma
// maxIntensity description`, followed by numCPlanes rows of numGamma
// candela values) into a CanonicalPhotometry with system=C. C-planes are
// assumed evenly spaced starting at 0 degrees, and gamma columns follow
// cieStandardGammaAngles when the row width matches; otherwise an evenly
// spaced [0,90] domain of the declared width is used.
func ParseCIE(data []byte, sourcePath string, rec *errs.Recovery) (*CanonicalPhotometry, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	idx := 0
	var header []string
	for idx < len(lines) {
		trimmed := strings.TrimSpace(lines[idx])
		idx++
		if trimmed == "" {
			continue
		}
		header = strings.Fields(trimmed)
		break
	}
	if len(header) < 4 {
		return nil, errs.NewParseError(sourcePath, idx, "CIE header must have at least 4 fields")
	}

	numC, errC := strconv.Atoi(header[1])
	numG, errG := strconv.Atoi(header[2])
	maxIntensity, errM := strconv.ParseFloat(header[3], 64)
	if errC != nil || errG != nil || numC <= 0 || numG <= 0 {
		return nil, errs.NewParseError(sourcePath, idx, "malformed CIE header counts")
	}
	if errM != nil {
		maxIntensity = 1
	}

	raw := make([][]float64, numC)
	for i := 0; i < numC; i++ {
		row := make([]float64, 0, numG)
		for len(row) < numG {
			if idx >= len(lines) {
				return nil, errs.NewParseError(sourcePath, idx+1, fmt.Sprintf("expected %d gamma columns in C-plane row %d, got %d", numG, i, len(row)))
			}
			trimmed := strings.TrimSpace(lines[idx])
			idx++
			if trimmed == "" {
				continue
			}
			for _, f := range strings.Fields(trimmed) {
				if len(row) >= numG {
					break
				}
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, errs.NewParseError(sourcePath, idx, fmt.Sprintf("invalid numeric field %q", f))
				}
				row = append(row, v)
			}
		}
		raw[i] = row
	}

	for c := range raw {
		for g := range raw[c] {
			val := raw[c][g] * maxIntensity / 1000 // i-table values are conventionally per-mille of max
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return nil, errs.NewParseError(sourcePath, 0, fmt.Sprintf("non-finite candela value at [%d][%d]", c, g))
			}
			if val < 0 {
				rec.Warn("candela_negative: clamped value at c=%d g=%d to 0", c, g)
				val = 0
			}
			raw[c][g] = val
		}
	}

	anglesC := make([]float64, numC)
	step := 360.0 / float64(numC)
	for i := range anglesC {
		anglesC[i] = float64(i) * step
	}

	var anglesG []float64
	if numG == len(cieStandardGammaAngles) {
		anglesG = append(anglesG, cieStandardGammaAngles...)
	} else {
		gStep := 90.0 / float64(numG-1)
		for i := 0; i < numG; i++ {
			anglesG = append(anglesG, float64(i)*gStep)
		}
	}

	return &CanonicalPhotometry{
		System:            SystemC,
		AnglesH:           anglesC,
		AnglesV:           anglesG,
		Intensity:         raw,
		Symmetry:          InferSymmetry(anglesC),
		Tilt:              Tilt{Mode: TiltNone},
		CandelaMultiplier: 1,
		SourcePath:        sourcePath,
		SourceFormat:      "cie",
	}, nil
}
