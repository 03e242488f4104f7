package project

import (
	"encoding/json"
	"strings"
)

// schemaVersion reads data["schema_version"], defaulting to def when
// absent.
func schemaVersion(data map[string]any, def float64) float64 {
	v, ok := data["schema_version"]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}

func setDefault(m map[string]any, key string, value any) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

// migrateV1ToV2 adds a nullable activity_type to every room.
func migrateV1ToV2(data map[string]any) map[string]any {
	if schemaVersion(data, 1) != 1 {
		return data
	}
	geometry := asMap(data["geometry"])
	for _, r := range asSlice(geometry["rooms"]) {
		room := asMap(r)
		setDefault(room, "activity_type", nil)
	}
	data["schema_version"] = float64(2)
	data["geometry"] = geometry
	return data
}

// migrateV2ToV3 introduces material_library/luminaire_families/
// asset_bundle_path and a per-luminaire family_id.
func migrateV2ToV3(data map[string]any) map[string]any {
	if schemaVersion(data, 2) != 2 {
		return data
	}
	setDefault(data, "material_library", []any{})
	setDefault(data, "luminaire_families", []any{})
	setDefault(data, "asset_bundle_path", nil)
	for _, l := range asSlice(data["luminaires"]) {
		setDefault(asMap(l), "family_id", nil)
	}
	data["schema_version"] = float64(3)
	return data
}

// migrateV3ToV4 introduces agent_history.
func migrateV3ToV4(data map[string]any) map[string]any {
	if schemaVersion(data, 3) != 3 {
		return data
	}
	setDefault(data, "agent_history", []any{})
	data["schema_version"] = float64(4)
	return data
}

func unitScaleToMeters(unit string) float64 {
	switch strings.ToLower(unit) {
	case "m":
		return 1.0
	case "mm":
		return 0.001
	case "cm":
		return 0.01
	case "ft":
		return 0.3048
	case "in":
		return 0.0254
	default:
		return 1.0
	}
}

func normalizeUnit(unit string) string {
	switch strings.ToLower(unit) {
	case "m", "meter", "meters":
		return "m"
	case "mm", "millimeter", "millimeters":
		return "mm"
	case "cm", "centimeter", "centimeters":
		return "cm"
	case "ft", "feet", "foot":
		return "ft"
	case "in", "inch", "inches":
		return "in"
	default:
		return "m"
	}
}

// migrateV4ToV5 is the largest step: it introduces zones, coordinate
// systems, per-entity linkage fields, and the remaining top-level
// collections (workplanes, point sets, glare views, roadways, compliance
// profiles, variants, assistant undo/redo stacks), and records length
// units: each unit name is normalized and paired with its scale_to_meters;
// coordinates themselves are not rescaled.
func migrateV4ToV5(data map[string]any) map[string]any {
	if schemaVersion(data, 4) != 4 {
		return data
	}

	geometry := asMap(data["geometry"])
	setDefault(geometry, "zones", []any{})
	setDefault(geometry, "no_go_zones", []any{})
	setDefault(geometry, "surfaces", []any{})
	setDefault(geometry, "openings", []any{})
	setDefault(geometry, "obstructions", []any{})
	setDefault(geometry, "levels", []any{})
	setDefault(geometry, "coordinate_systems", []any{})
	setDefault(geometry, "length_unit", "m")
	lengthUnit, _ := geometry["length_unit"].(string)
	setDefault(geometry, "scale_to_meters", unitScaleToMeters(lengthUnit))

	for _, r := range asSlice(geometry["rooms"]) {
		room := asMap(r)
		setDefault(room, "level_id", nil)
		setDefault(room, "coordinate_system_id", nil)
	}
	for _, c := range asSlice(geometry["coordinate_systems"]) {
		cs := asMap(c)
		rawUnit, _ := cs["length_unit"].(string)
		if rawUnit == "" {
			rawUnit, _ = cs["units"].(string)
		}
		unit := normalizeUnit(rawUnit)
		setDefault(cs, "units", unit)
		setDefault(cs, "length_unit", unit)
		setDefault(cs, "scale_to_meters", unitScaleToMeters(unit))
	}
	data["geometry"] = geometry

	for _, m := range asSlice(data["materials"]) {
		mat := asMap(m)
		setDefault(mat, "reflectance_rgb", nil)
		setDefault(mat, "maintenance_factor_placeholder", nil)
	}
	for _, l := range asSlice(data["luminaires"]) {
		lum := asMap(l)
		setDefault(lum, "mounting_type", nil)
		setDefault(lum, "mounting_height_m", nil)
	}
	for _, g := range asSlice(data["grids"]) {
		grid := asMap(g)
		setDefault(grid, "room_id", nil)
		setDefault(grid, "zone_id", nil)
	}

	setDefault(data, "workplanes", []any{})
	setDefault(data, "polygon_workplanes", []any{})
	setDefault(data, "vertical_planes", []any{})
	setDefault(data, "point_sets", []any{})
	setDefault(data, "glare_views", []any{})
	setDefault(data, "roadways", []any{})
	setDefault(data, "roadway_grids", []any{})
	setDefault(data, "compliance_profiles", []any{})
	setDefault(data, "variants", []any{})
	setDefault(data, "active_variant_id", nil)
	setDefault(data, "assistant_undo_stack", []any{})
	setDefault(data, "assistant_redo_stack", []any{})

	data["schema_version"] = float64(5)
	return data
}

// Migrate runs the full v1->v5 forward migration pipeline over a decoded
// JSON document, then decodes the result into a Project. Each step updates
// the map in place and returns it, and is a no-op if the document is already
// past that step's source version (matching the reference migrations'
// own guard clauses, so Migrate is idempotent on an already-v5 document).
func Migrate(raw map[string]any) (*Project, error) {
	data := raw
	data = migrateV1ToV2(data)
	data = migrateV2ToV3(data)
	data = migrateV3ToV4(data)
	data = migrateV4ToV5(data)

	blob, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var p Project
	if err := json.Unmarshal(blob, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Decode parses raw JSON bytes as a generic document and runs Migrate.
func Decode(jsonBytes []byte) (*Project, error) {
	var raw map[string]any
	if err := json.Unmarshal(jsonBytes, &raw); err != nil {
		return nil, err
	}
	return Migrate(raw)
}
