package resultstore_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"luxera/internal/resultstore"
)

func TestStoreWritesManifestLast(t *testing.T) {
	root := t.TempDir()
	r := resultstore.Result{
		JobID:                "job-1",
		JobHash:              "abc123",
		Job:                  map[string]any{"type": "direct"},
		Summary:              map[string]any{"eavg": 42.0},
		Assets:               map[string]any{},
		Solver:               map[string]any{},
		CoordinateConvention: resultstore.DefaultCoordinateConvention(),
		Grid: []resultstore.GridPoint{
			{X: 0, Y: 0, Z: 0, Illuminance: 12.5},
			{X: 1, Y: 0, Z: 0, Illuminance: 8.25},
		},
	}

	dir, err := resultstore.Store(root, r)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	for _, name := range []string{"result.json", "grid.csv", "manifest.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "residuals.csv")); err == nil {
		t.Error("residuals.csv should not exist for a direct job")
	}

	manifestBytes, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var manifest map[string]string
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if _, ok := manifest["result.json"]; !ok {
		t.Error("manifest missing result.json entry")
	}
	if _, ok := manifest["grid.csv"]; !ok {
		t.Error("manifest missing grid.csv entry")
	}
	if _, ok := manifest["manifest.json"]; ok {
		t.Error("manifest should not list itself")
	}

	dirPath, ok := resultstore.Exists(root, "abc123")
	if !ok || dirPath != dir {
		t.Errorf("Exists(root, hash) = (%q, %v), want (%q, true)", dirPath, ok, dir)
	}
	if _, ok := resultstore.Exists(root, "missing"); ok {
		t.Error("Exists should report false for an unwritten hash")
	}
}

func TestStoreWritesRadiosityArtifacts(t *testing.T) {
	root := t.TempDir()
	r := resultstore.Result{
		JobID:                "job-2",
		JobHash:              "def456",
		Job:                  map[string]any{"type": "radiosity"},
		Summary:              map[string]any{},
		Assets:               map[string]any{},
		Solver:               map[string]any{},
		CoordinateConvention: resultstore.DefaultCoordinateConvention(),
		Grid:                 []resultstore.GridPoint{{X: 0, Y: 0, Z: 0, Illuminance: 1}},
		Residuals:            []resultstore.Residual{{Iteration: 0, Residual: 1.0}, {Iteration: 1, Residual: 0.1}},
		SurfaceIlluminance:   []resultstore.SurfaceIlluminance{{SurfaceID: "wall-1", Illuminance: 55.5}},
	}

	dir, err := resultstore.Store(root, r)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	for _, name := range []string{"residuals.csv", "surface_illuminance.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}
