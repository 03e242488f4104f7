package photometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"luxera/internal/errs"
)

// angleDedupeEpsilon is the fixed 1e-9 degree tolerance for
// angle-axis normalization.
const angleDedupeEpsilon = 1e-9

// ParseIES parses IES LM-63 text into a CanonicalPhotometry table. Errors
// carry a 1-based line number and a short reason. Numeric
// degradations (negative candela clamped, duplicate angles dropped) are
// recorded as NumericWarnings on rec rather than failing the parse.
func ParseIES(data []byte, sourcePath string, rec *errs.Recovery) (*CanonicalPhotometry, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) == 0 {
		return nil, errs.NewParseError(sourcePath, 0, "empty file")
	}

	idx := 0
	// Optional standard line.
	first := strings.TrimSpace(lines[idx])
	if strings.HasPrefix(first, "IESNA") {
		idx++
	}

	// Bracketed keywords, up to TILT=. Keyword values themselves are
	// metadata only and are not part of the canonical photometric model.
	var tiltLine string
	for idx < len(lines) {
		line := strings.TrimSpace(lines[idx])
		if strings.HasPrefix(line, "TILT=") {
			tiltLine = line
			idx++
			break
		}
		idx++
	}
	if tiltLine == "" {
		return nil, errs.NewParseError(sourcePath, idx+1, "missing TILT= line")
	}

	tilt, err := parseTiltDirective(tiltLine, lines, &idx, sourcePath)
	if err != nil {
		return nil, err
	}

	// Photometric header: 10 numbers.
	header, lineNo, err := nextFields(lines, &idx, 10, sourcePath)
	if err != nil {
		return nil, err
	}
	numLamps, ok1 := parseIntField(header[0])
	lumensPerLamp, ok2 := parseFloatField(header[1])
	candelaMult, ok3 := parseFloatField(header[2])
	numV, ok4 := parseIntField(header[3])
	numH, ok5 := parseIntField(header[4])
	photoType, ok6 := parseIntField(header[5])
	unitsType, ok7 := parseIntField(header[6])
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7) {
		return nil, errs.NewParseError(sourcePath, lineNo, "malformed photometric header line")
	}
	_ = numLamps
	if candelaMult <= 0 {
		return nil, errs.NewParseError(sourcePath, lineNo, "candela_multiplier must be > 0")
	}
	if photoType < 1 || photoType > 3 {
		return nil, errs.NewParseError(sourcePath, lineNo, fmt.Sprintf("unknown photometric_type %d", photoType))
	}
	if unitsType != 1 && unitsType != 2 {
		return nil, errs.NewParseError(sourcePath, lineNo, fmt.Sprintf("unknown units_type %d", unitsType))
	}
	if numV <= 0 || numH <= 0 {
		return nil, errs.NewParseError(sourcePath, lineNo, "non-integer or non-positive angle counts")
	}

	// Ballast line (3 numbers); not carried into CanonicalPhotometry.
	if _, _, err := nextFields(lines, &idx, 3, sourcePath); err != nil {
		return nil, err
	}

	anglesV, err := nextFloatN(lines, &idx, numV, sourcePath)
	if err != nil {
		return nil, err
	}
	anglesH, err := nextFloatN(lines, &idx, numH, sourcePath)
	if err != nil {
		return nil, err
	}

	// Candela matrix is horizontal-major in the file: numH blocks of numV
	// values each.
	raw := make([][]float64, numH)
	for i := 0; i < numH; i++ {
		row, err := nextFloatN(lines, &idx, numV, sourcePath)
		if err != nil {
			return nil, err
		}
		raw[i] = row
	}

	for h := range raw {
		for v := range raw[h] {
			val := raw[h][v] * candelaMult
			if math.IsNaN(val) || math.IsInf(val, 0) {
				return nil, errs.NewParseError(sourcePath, 0, fmt.Sprintf("non-finite candela value at [%d][%d]", h, v))
			}
			if val < 0 {
				rec.Warn("candela_negative: clamped value at h=%d v=%d to 0", h, v)
				val = 0
			}
			raw[h][v] = val
		}
	}

	cleanV, permV, dedupedV := NormalizeAngles(anglesV, angleDedupeEpsilon)
	cleanH, permH, dedupedH := NormalizeAngles(anglesH, angleDedupeEpsilon)
	if dedupedV || dedupedH {
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

	system := SystemC
	switch photoType {
	case 2:
		system = SystemB
	case 3:
		system = SystemA
	}

	p := &CanonicalPhotometry{
		System:            system,
		AnglesH:           cleanH,
		AnglesV:           cleanV,
		Intensity:         intensity,
		Symmetry:          InferSymmetry(cleanH),
		Tilt:              tilt,
		LuminousFluxLm:    lumensPerLamp * float64(max(numLamps, 1)),
		CandelaMultiplier: candelaMult,
		SourcePath:        sourcePath,
		SourceFormat:      "ies",
	}
	_ = unitsType // width/length/height unit conversion is handled by geometry ingestion, not the photometric table itself
	return p, nil
}

func parseTiltDirective(tiltLine string, lines []string, idx *int, sourcePath string) (Tilt, error) {
	spec := strings.TrimPrefix(tiltLine, "TILT=")
	spec = strings.TrimSpace(spec)
	switch spec {
	case "NONE":
		return Tilt{Mode: TiltNone}, nil
	case "FILE":
		return Tilt{Mode: TiltFile}, nil
	case "INCLUDE":
		nFields, lineNo, err := nextFields(lines, idx, 1, sourcePath)
		if err != nil {
			return Tilt{}, err
		}
		n, ok := parseIntField(nFields[0])
		if !ok || n < 0 {
			return Tilt{}, errs.NewParseError(sourcePath, lineNo, "invalid TILT=INCLUDE count")
		}
		angles, err := nextFloatN(lines, idx, n, sourcePath)
		if err != nil {
			return Tilt{}, err
		}
		factors, err := nextFloatN(lines, idx, n, sourcePath)
		if err != nil {
			return Tilt{}, err
		}
		return Tilt{Mode: TiltInclude, Angles: angles, Factors: factors}, nil
	default:
		return Tilt{}, errs.NewParseError(sourcePath, 0, fmt.Sprintf("unrecognized TILT directive %q", tiltLine))
	}
}

// nextFields reads the next `count` whitespace-separated fields starting
// at *idx, advancing past the consumed line(s) if the fields span more
// than one physical line is not expected here (header/ballast lines are
// always single lines by LM-63 contract).
func nextFields(lines []string, idx *int, count int, sourcePath string) ([]string, int, error) {
	for *idx < len(lines) {
		line := strings.TrimSpace(lines[*idx])
		lineNo := *idx + 1
		*idx++
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < count {
			return nil, lineNo, errs.NewParseError(sourcePath, lineNo, fmt.Sprintf("expected %d fields, got %d", count, len(fields)))
		}
		return fields[:count], lineNo, nil
	}
	return nil, *idx + 1, errs.NewParseError(sourcePath, *idx+1, "unexpected end of file")
}

// nextFloatN reads exactly n float values, which may be spread across
// multiple lines (LM-63 allows angle/candela arrays to wrap).
func nextFloatN(lines []string, idx *int, n int, sourcePath string) ([]float64, error) {
	out := make([]float64, 0, n)
	for len(out) < n && *idx < len(lines) {
		line := strings.TrimSpace(lines[*idx])
		lineNo := *idx + 1
		*idx++
		if line == "" {
			continue
		}
		for _, f := range strings.Fields(line) {
			if len(out) >= n {
				break
			}
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errs.NewParseError(sourcePath, lineNo, fmt.Sprintf("invalid numeric field %q", f))
			}
			out = append(out, v)
		}
	}
	if len(out) != n {
		return nil, errs.NewParseError(sourcePath, *idx, fmt.Sprintf("expected %d values, got %d", n, len(out)))
	}
	return out, nil
}

func parseIntField(s string) (int, bool) {
	f, ok := parseFloatField(s)
	if !ok {
		return 0, false
	}
	if f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func parseFloatField(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
