// Package project defines the Luxera project file schema and its
// forward-only v1->v5 migration pipeline.
package project

// CurrentSchemaVersion is the schema_version a freshly migrated project
// document carries.
const CurrentSchemaVersion = 5

// Geometry holds the project's spatial inputs.
type Geometry struct {
	Rooms             []map[string]any `json:"rooms"`
	Surfaces          []map[string]any `json:"surfaces"`
	Openings          []map[string]any `json:"openings"`
	Obstructions      []map[string]any `json:"obstructions"`
	Zones             []map[string]any `json:"zones"`
	NoGoZones         []map[string]any `json:"no_go_zones"`
	Levels            []map[string]any `json:"levels"`
	CoordinateSystems []map[string]any `json:"coordinate_systems"`
	LengthUnit        string           `json:"length_unit"`
	ScaleToMeters     float64          `json:"scale_to_meters"`
}

// PhotometryAsset is the project-file-level reference to a photometry
// file, resolved to a CanonicalPhotometry through the Parser + cache.
type PhotometryAsset struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	Format      string `json:"format"` // ies | ldt | cie
	ContentHash string `json:"content_hash,omitempty"`
}

// Project is the fully-migrated (schema_version 5) in-memory project
// document.
type Project struct {
	SchemaVersion int `json:"schema_version"`

	Geometry           Geometry           `json:"geometry"`
	Materials          []map[string]any   `json:"materials"`
	MaterialLibrary    []map[string]any   `json:"material_library"`
	LuminaireFamilies  []map[string]any   `json:"luminaire_families"`
	AssetBundlePath    *string            `json:"asset_bundle_path"`
	PhotometryAssets   []PhotometryAsset  `json:"photometry_assets"`
	Luminaires         []map[string]any   `json:"luminaires"`

	Grids             []map[string]any `json:"grids"`
	VerticalPlanes    []map[string]any `json:"vertical_planes"`
	ArbitraryPlanes   []map[string]any `json:"arbitrary_planes"`
	PointSets         []map[string]any `json:"point_sets"`
	LineGrids         []map[string]any `json:"line_grids"`
	PolygonWorkplanes []map[string]any `json:"polygon_workplanes"`
	Workplanes        []map[string]any `json:"workplanes"`
	GlareViews        []map[string]any `json:"glare_views"`

	Roadways     []map[string]any `json:"roadways"`
	RoadwayGrids []map[string]any `json:"roadway_grids"`

	Jobs                []map[string]any `json:"jobs"`
	Results             []map[string]any `json:"results"`
	ComplianceProfiles  []map[string]any `json:"compliance_profiles"`

	Variants          []map[string]any `json:"variants"`
	ActiveVariantID   *string          `json:"active_variant_id"`

	AgentHistory        []map[string]any `json:"agent_history"`
	AssistantUndoStack  []map[string]any `json:"assistant_undo_stack"`
	AssistantRedoStack  []map[string]any `json:"assistant_redo_stack"`
}
