package project

import "testing"

func TestMigrateFromV1(t *testing.T) {
	raw := map[string]any{
		"schema_version": float64(1),
		"geometry": map[string]any{
			"rooms": []any{
				map[string]any{"id": "r1"},
			},
		},
	}

	p, err := Migrate(raw)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if p.SchemaVersion != CurrentSchemaVersion {
		t.Fatalf("SchemaVersion = %d, want %d", p.SchemaVersion, CurrentSchemaVersion)
	}
	if len(p.Geometry.Rooms) != 1 {
		t.Fatalf("expected 1 room to survive migration, got %d", len(p.Geometry.Rooms))
	}
	if p.Geometry.LengthUnit != "m" {
		t.Errorf("LengthUnit = %q, want m", p.Geometry.LengthUnit)
	}
	if p.ComplianceProfiles == nil {
		t.Errorf("expected compliance_profiles to be initialized by v4->v5")
	}
}

func TestMigrateAlreadyV5IsNoOp(t *testing.T) {
	raw := map[string]any{
		"schema_version": float64(5),
		"geometry":       map[string]any{"length_unit": "ft"},
	}
	p, err := Migrate(raw)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if p.SchemaVersion != 5 {
		t.Fatalf("SchemaVersion = %d, want 5", p.SchemaVersion)
	}
	if p.Geometry.LengthUnit != "ft" {
		t.Errorf("an already-v5 document's length_unit should not be overwritten, got %q", p.Geometry.LengthUnit)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	raw := map[string]any{"schema_version": float64(1)}
	first, err := Migrate(raw)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	second, err := Migrate(map[string]any{"schema_version": float64(first.SchemaVersion)})
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if second.SchemaVersion != first.SchemaVersion {
		t.Errorf("re-migrating a v5 document changed schema_version: %d vs %d", second.SchemaVersion, first.SchemaVersion)
	}
}

func TestUnitScaleToMeters(t *testing.T) {
	tests := []struct {
		unit string
		want float64
	}{
		{"m", 1.0},
		{"mm", 0.001},
		{"cm", 0.01},
		{"ft", 0.3048},
		{"in", 0.0254},
		{"bogus", 1.0},
	}
	for _, tt := range tests {
		if got := unitScaleToMeters(tt.unit); got != tt.want {
			t.Errorf("unitScaleToMeters(%q) = %v, want %v", tt.unit, got, tt.want)
		}
	}
}
