// Package resultstore writes a job's result artifacts to
// .luxera/results/<hash>/ atomically: each file is written to a temp
// path in the same directory and renamed into place, and the manifest
// (a sha256 digest of every other file) is always written last so a
// directory containing manifest.json is guaranteed complete.
package resultstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"luxera/internal/hashutil"
)

// GridPoint is one row of grid.csv: an evaluation point and its
// illuminance.
type GridPoint struct {
	X, Y, Z     float64
	Illuminance float64
}

// SurfaceIlluminance is one row of surface_illuminance.csv: a radiosity
// patch's parent surface ID and its aggregated irradiance.
type SurfaceIlluminance struct {
	SurfaceID   string
	Illuminance float64
}

// Residual is one row of residuals.csv: the shooting loop's residual at
// a given iteration.
type Residual struct {
	Iteration int
	Residual  float64
}

// Result is the full artifact set for one job, keyed by its job hash.
type Result struct {
	JobID                string
	JobHash              string
	Job                  map[string]any
	Summary              map[string]any
	Assets               map[string]any
	Solver               map[string]any
	CoordinateConvention map[string]any

	Grid               []GridPoint
	Residuals          []Residual          // radiosity only
	SurfaceIlluminance []SurfaceIlluminance // radiosity only
}

// DefaultCoordinateConvention is the fixed right-handed, Z-up convention
// every result.json declares.
func DefaultCoordinateConvention() map[string]any {
	return map[string]any{
		"handedness":        "right",
		"world_up":          "+Z",
		"luminaire_local_up": "+Z",
		"nadir":             "-Z",
		"c0_direction":      "+X",
	}
}

// Store writes Result's artifacts into root/<hash>/, creating the
// directory if needed. It returns the directory path.
func Store(root string, r Result) (string, error) {
	dir := filepath.Join(root, r.JobHash)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("resultstore: mkdir %s: %w", dir, err)
	}

	written := make([]string, 0, 4)

	resultJSON := map[string]any{
		"job_id":                r.JobID,
		"job_hash":              r.JobHash,
		"job":                   r.Job,
		"summary":               r.Summary,
		"assets":                r.Assets,
		"solver":                r.Solver,
		"coordinate_convention": r.CoordinateConvention,
	}
	buf, err := hashutil.StableJSON(resultJSON)
	if err != nil {
		return "", fmt.Errorf("resultstore: marshal result.json: %w", err)
	}
	if err := writeAtomic(dir, "result.json", buf); err != nil {
		return "", err
	}
	written = append(written, "result.json")

	gridCSV := renderGridCSV(r.Grid)
	if err := writeAtomic(dir, "grid.csv", gridCSV); err != nil {
		return "", err
	}
	written = append(written, "grid.csv")

	if len(r.Residuals) > 0 {
		residualsCSV := renderResidualsCSV(r.Residuals)
		if err := writeAtomic(dir, "residuals.csv", residualsCSV); err != nil {
			return "", err
		}
		written = append(written, "residuals.csv")
	}

	if len(r.SurfaceIlluminance) > 0 {
		surfCSV := renderSurfaceCSV(r.SurfaceIlluminance)
		if err := writeAtomic(dir, "surface_illuminance.csv", surfCSV); err != nil {
			return "", err
		}
		written = append(written, "surface_illuminance.csv")
	}

	if err := writeManifest(dir, written); err != nil {
		return "", err
	}

	return dir, nil
}

// Exists reports whether a complete result directory (manifest.json
// present) already exists for hash under root, returning its path.
func Exists(root, hash string) (string, bool) {
	dir := filepath.Join(root, hash)
	if _, err := os.Stat(filepath.Join(dir, "manifest.json")); err != nil {
		return "", false
	}
	return dir, true
}

// writeAtomic writes data to name inside dir via a temp file + rename,
// so a crash mid-write never leaves a truncated artifact in place.
func writeAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("resultstore: create temp for %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("resultstore: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("resultstore: close %s: %w", name, err)
	}
	dest := filepath.Join(dir, name)
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("resultstore: rename into place %s: %w", name, err)
	}
	return nil
}

// writeManifest computes sha256 over every file in names (already
// written) and writes manifest.json last.
func writeManifest(dir string, names []string) error {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	digests := make(map[string]string, len(sorted))
	for _, name := range sorted {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("resultstore: read %s for manifest: %w", name, err)
		}
		sum := sha256.Sum256(data)
		digests[name] = hex.EncodeToString(sum[:])
	}
	buf, err := hashutil.StableJSON(digests)
	if err != nil {
		return fmt.Errorf("resultstore: marshal manifest.json: %w", err)
	}
	return writeAtomic(dir, "manifest.json", buf)
}

func renderGridCSV(points []GridPoint) []byte {
	var b strings.Builder
	b.WriteString("x,y,z,illuminance\n")
	for _, p := range points {
		fmt.Fprintf(&b, "%s,%s,%s,%s\n", formatCSVFloat(p.X), formatCSVFloat(p.Y), formatCSVFloat(p.Z), formatCSVFloat(p.Illuminance))
	}
	return []byte(b.String())
}

func renderResidualsCSV(residuals []Residual) []byte {
	var b strings.Builder
	b.WriteString("iteration,residual\n")
	for _, r := range residuals {
		fmt.Fprintf(&b, "%d,%s\n", r.Iteration, formatCSVFloat(r.Residual))
	}
	return []byte(b.String())
}

func renderSurfaceCSV(rows []SurfaceIlluminance) []byte {
	var b strings.Builder
	b.WriteString("surface_id,illuminance\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%s\n", r.SurfaceID, formatCSVFloat(r.Illuminance))
	}
	return []byte(b.String())
}

func formatCSVFloat(v float64) string {
	return jsonNumber(v)
}

// jsonNumber renders v the same way hashutil normalizes floats for
// hashing, so CSV output and result.json agree on precision.
func jsonNumber(v float64) string {
	buf, err := hashutil.StableJSON(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(buf)
}
