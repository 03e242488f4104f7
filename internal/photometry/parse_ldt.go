package photometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"luxera/internal/errs"
)

// ParseEULUMDAT parses a EULUMDAT (.ldt) fixed-line file into a
// CanonicalPhotometry table. EULUMDAT always reports Type C photometry;
// symmetry is declared explicitly by the Isym field rather than inferred.
func ParseEULUMDAT(data []byte, sourcePath string, rec *errs.Recovery) (*CanonicalPhotometry, error) {
	lines := splitLDTLines(data)
	if len(lines) < 26 {
		return nil, errs.NewParseError(sourcePath, len(lines), "EULUMDAT file too short: expected at least 26 header lines")
	}

	line := func(i int) string { return strings.TrimSpace(lines[i-1]) } // 1-based, matching file convention
	num := func(i int) (float64, error) {
		v, err := parseLDTNumber(line(i))
		if err != nil {
			return 0, errs.NewParseError(sourcePath, i, fmt.Sprintf("malformed numeric field: %v", err))
		}
		return v, nil
	}

	isym, err := num(3)
	if err != nil {
		return nil, err
	}
	mc, err := num(4)
	if err != nil {
		return nil, err
	}
	dc, err := num(5)
	if err != nil {
		return nil, err
	}
	ng, err := num(6)
	if err != nil {
		return nil, err
	}
	numMc := int(mc)
	numNg := int(ng)
	if numMc <= 0 || numNg <= 0 || mc != math.Trunc(mc) || ng != math.Trunc(ng) {
		return nil, errs.NewParseError(sourcePath, 6, "non-integer or non-positive Mc/Ng")
	}

	idx := 26 // 0-based index just past the fixed 26-line header/geometry block (lines 1..26 consumed)

	// 10 direct ratios.
	idx += 10

	// Lamp set block is variable-length in the general format (one row
	// per lamp set with 6 text fields); this reference implementation
	// targets single-lamp-set fixtures, which is the overwhelmingly
	// common case for simulation input, and skips exactly one lamp row.
	idx += 6

	var anglesC []float64
	if dc == 0 {
		anglesC, err = readLDTFloats(lines, &idx, numMc, sourcePath)
		if err != nil {
			return nil, err
		}
	} else {
		for i := 0; i < numMc; i++ {
			anglesC = append(anglesC, float64(i)*dc)
		}
	}

	anglesG, err := readLDTFloats(lines, &idx, numNg, sourcePath)
	if err != nil {
		return nil, err
	}

	// Candela values: Mc blocks of Ng values, percentage of max intensity
	// relative to rated flux in the general EULUMDAT convention; this
	// reference treats the tabulated numbers as already-absolute candela,
	// matching the writer's round-trip convention.
	raw := make([][]float64, numMc)
	for i := 0; i < numMc; i++ {
		row, err := readLDTFloats(lines, &idx, numNg, sourcePath)
		if err != nil {
			return nil, err
		}
		raw[i] = row
	}

	for h := range raw {
		for v := range raw[h] {
			if math.IsNaN(raw[h][v]) || math.IsInf(raw[h][v], 0) {
				return nil, errs.NewParseError(sourcePath, 0, fmt.Sprintf("non-finite candela value at [%d][%d]", h, v))
			}
			if raw[h][v] < 0 {
				rec.Warn("candela_negative: clamped value at h=%d v=%d to 0", h, v)
				raw[h][v] = 0
			}
		}
	}

	cleanH, permH, dedupedH := NormalizeAngles(anglesC, angleDedupeEpsilon)
	cleanV, permV, dedupedV := NormalizeAngles(anglesG, angleDedupeEpsilon)
	if dedupedH || dedupedV {
		rec.Warn("duplicate angle entries dropped during normalization")
	}

	intensity := make([][]float64, len(cleanH))
	for newH, oldH := range permH {
		row := make([]float64, len(cleanV))
		for newV, oldV := range permV {
			row[newV] = raw[oldH][oldV]
		}
		intensity[newH] = row
	}

	return &CanonicalPhotometry{
		System:            SystemC,
		AnglesH:           cleanH,
		AnglesV:           cleanV,
		Intensity:         intensity,
		Symmetry:          symmetryFromIsym(int(isym)),
		Tilt:              Tilt{Mode: TiltNone},
		CandelaMultiplier: 1,
		SourcePath:        sourcePath,
		SourceFormat:      "ldt",
	}, nil
}

// symmetryFromIsym maps EULUMDAT's explicit Isym code (0..4) to the
// canonical Symmetry enum, since EULUMDAT declares symmetry rather than
// leaving it to be inferred from the angle domain.
func symmetryFromIsym(isym int) Symmetry {
	switch isym {
	case 0:
		return SymmetryNone
	case 1:
		return SymmetryFull
	case 2:
		return SymmetryBilateral
	case 3, 4:
		return SymmetryQuadrant
	default:
		return SymmetryUnknown
	}
}

func splitLDTLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.Split(text, "\n")
}

func parseLDTNumber(s string) (float64, error) {
	// EULUMDAT uses a comma decimal separator in some European exports;
	// normalize to '.' before parsing.
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func readLDTFloats(lines []string, idx *int, n int, sourcePath string) ([]float64, error) {
	out := make([]float64, 0, n)
	for len(out) < n {
		if *idx >= len(lines) {
			return nil, errs.NewParseError(sourcePath, *idx+1, fmt.Sprintf("expected %d values, got %d", n, len(out)))
		}
		v, err := parseLDTNumber(strings.TrimSpace(lines[*idx]))
		if err != nil {
			return nil, errs.NewParseError(sourcePath, *idx+1, fmt.Sprintf("malformed numeric field: %v", err))
		}
		out = append(out, v)
		*idx++
	}
	return out, nil
}
