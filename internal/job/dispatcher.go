package job

import (
	"context"
	"fmt"

	"luxera/internal/accel"
	"luxera/internal/compliance"
	"luxera/internal/direct"
	"luxera/internal/errs"
	"luxera/internal/geometry"
	"luxera/internal/hashutil"
	"luxera/internal/logger"
	"luxera/internal/photometry"
	"luxera/internal/radiosity"
	"luxera/internal/resultstore"
)

// Inputs is the set of already-resolved scene data a Spec runs against:
// the project's geometry and photometry ingestion (parsing the generic
// project-file schema into luminaires/surfaces/occlusion context) is a
// caller concern, upstream of Dispatch.
type Inputs struct {
	Luminaires []*photometry.Luminaire
	Occluder   *accel.TLAS
	Target     direct.Target
	Surfaces   []radiosity.Surface // radiosity jobs only

	// ComplianceProfiles carries the project's custom compliance_profiles
	// entries through to threshold evaluation, on top of whatever
	// built-in profile a roadway/emergency job's own Settings select.
	ComplianceProfiles []map[string]any

	Rec *errs.Recovery
}

// Outcome is what Dispatch returns: the result directory path, the job
// hash it was stored/served under, and whether it was served from the
// cache.
type Outcome struct {
	ResultDir string
	Hash      string
	Cached    bool
}

// Hash computes the spec's canonical job hash: sha256 of stable JSON over
// {schema_version, job, scene}, matching the dedup contract used to key
// .luxera/results/<hash>/. scene is the resolved scene digest (see
// sceneDigest) — folding it in means two submissions with an identical
// JobSpec but a different scene (moved luminaires, a different target,
// different surfaces) never collide on the same cached result.
func (s Spec) Hash(schemaVersion int, scene map[string]any) (string, error) {
	doc := map[string]any{
		"schema_version": schemaVersion,
		"job":            jobDoc(s),
		"scene":          scene,
	}
	return hashutil.Sum256(hashutil.StripVolatileJobFields(doc))
}

// sceneDigest extracts the JSON-marshalable, hash-relevant content of a
// resolved scene: luminaire placement and photometry identity, the
// evaluation target's resolved points/normals, and (for radiosity)
// surface geometry/material. Inputs itself isn't hashable directly (it
// carries a *accel.TLAS, function-valued Target implementations, and
// unexported luminaire fields), so this pulls out just the content that
// determines the result.
func sceneDigest(in Inputs, points []geometry.Vector3, normals []geometry.Direction) map[string]any {
	luminaires := make([]map[string]any, len(in.Luminaires))
	for i, l := range in.Luminaires {
		photHash := ""
		if l.PhotometryRef != nil {
			photHash = l.PhotometryRef.Hash()
		}
		luminaires[i] = map[string]any{
			"id":              l.ID,
			"photometry_hash": photHash,
			"position":        l.Transform.Position,
			"rotation":        l.Transform.Rotation,
			"scale":           l.Transform.Scale,
			"flux_multiplier": l.FluxMultiplier,
			"tilt_deg":        l.TiltDeg,
		}
	}

	targetNormals := make([]geometry.Vector3, len(normals))
	for i, n := range normals {
		targetNormals[i] = n.Vec()
	}

	surfaces := make([]map[string]any, len(in.Surfaces))
	for i, s := range in.Surfaces {
		surfaces[i] = map[string]any{
			"id":          s.ID,
			"vertices":    s.Polygon.Vertices,
			"area":        s.Polygon.Area(),
			"reflectance": s.Material.ScalarReflectance(),
		}
	}

	return map[string]any{
		"luminaires":          luminaires,
		"target_points":       points,
		"target_normals":      targetNormals,
		"surfaces":            surfaces,
		"compliance_profiles": in.ComplianceProfiles,
	}
}

// Dispatch resolves a cached result if one already exists for s's hash
// under resultsRoot; otherwise it runs the engine matching s.Type and
// writes a new result directory via internal/resultstore.
func Dispatch(ctx context.Context, resultsRoot string, schemaVersion int, s Spec, in Inputs) (Outcome, error) {
	var points []geometry.Vector3
	var normals []geometry.Direction
	if in.Target != nil {
		points, normals = in.Target.Evaluate()
	}

	hash, err := s.Hash(schemaVersion, sceneDigest(in, points, normals))
	if err != nil {
		return Outcome{}, fmt.Errorf("job: hash spec: %w", err)
	}
	if dir, ok := resultstore.Exists(resultsRoot, hash); ok {
		return Outcome{ResultDir: dir, Hash: hash, Cached: true}, nil
	}

	rec := in.Rec
	if rec == nil {
		rec = errs.NewRecovery()
	}

	switch s.Type {
	case TypeDirect:
		return dispatchDirect(ctx, resultsRoot, hash, s, in, points, normals, rec)
	case TypeRoadway:
		return dispatchRoadway(ctx, resultsRoot, hash, s, in, points, normals, rec)
	case TypeEmergency:
		return dispatchEmergency(ctx, resultsRoot, hash, s, in, points, normals, rec)
	case TypeDaylight:
		return dispatchDaylight(ctx, resultsRoot, hash, s, in, points, normals, rec)
	case TypeRadiosity:
		return dispatchRadiosity(ctx, resultsRoot, hash, s, in, points, normals, rec)
	default:
		return Outcome{}, errs.NewRuntimeError("unsupported job type: " + string(s.Type))
	}
}

func dispatchDirect(ctx context.Context, resultsRoot, hash string, s Spec, in Inputs, points []geometry.Vector3, normals []geometry.Direction, rec *errs.Recovery) (Outcome, error) {
	params := s.DirectParams()
	settings := direct.Settings{
		UseOcclusion: params.UseOcclusion,
		UserEpsilon:  params.UserEpsilon,
		SceneScale:   params.SceneScale,
	}

	res, err := direct.RunParallel(ctx, points, normals, in.Luminaires, in.Occluder, settings, rec)
	if err != nil {
		return Outcome{}, err
	}
	thresholds := compliance.ProfilesFromProject(in.ComplianceProfiles)
	return storeDirectOutcome(resultsRoot, hash, s, in, res, rec, thresholds, nil)
}

// dispatchRoadway reuses the Direct Illuminance Engine against the
// caller-resolved carriageway target (a LineGrid/RectGrid, chosen
// upstream of Dispatch), then checks the result against the EN 13201
// luminance-class profile named in RoadwayParams.Profile.
func dispatchRoadway(ctx context.Context, resultsRoot, hash string, s Spec, in Inputs, points []geometry.Vector3, normals []geometry.Direction, rec *errs.Recovery) (Outcome, error) {
	rp := s.RoadwayParams()
	dparams := s.DirectParams()
	settings := direct.Settings{
		UseOcclusion: dparams.UseOcclusion,
		UserEpsilon:  dparams.UserEpsilon,
		SceneScale:   dparams.SceneScale,
	}

	res, err := direct.RunParallel(ctx, points, normals, in.Luminaires, in.Occluder, settings, rec)
	if err != nil {
		return Outcome{}, err
	}
	thresholds := append(compliance.RoadwayThresholds(rp.Profile), compliance.ProfilesFromProject(in.ComplianceProfiles)...)
	extra := map[string]any{
		"roadway_profile":   rp.Profile,
		"observer_height_m": rp.ObserverHeightM,
	}
	return storeDirectOutcome(resultsRoot, hash, s, in, res, rec, thresholds, extra)
}

// dispatchEmergency runs a Direct Illuminance pass over the caller's
// escape-route LineGrid and checks it against EN 1838-style minimum
// illuminance and uniformity thresholds — a compliance-profile
// difference over the same engine, not a new kernel.
func dispatchEmergency(ctx context.Context, resultsRoot, hash string, s Spec, in Inputs, points []geometry.Vector3, normals []geometry.Direction, rec *errs.Recovery) (Outcome, error) {
	ep := s.EmergencyParams()
	dparams := s.DirectParams()
	settings := direct.Settings{
		UseOcclusion: dparams.UseOcclusion,
		UserEpsilon:  dparams.UserEpsilon,
		SceneScale:   dparams.SceneScale,
	}

	res, err := direct.RunParallel(ctx, points, normals, in.Luminaires, in.Occluder, settings, rec)
	if err != nil {
		return Outcome{}, err
	}
	thresholds := append(compliance.EmergencyThresholds(ep.MinLux), compliance.ProfilesFromProject(in.ComplianceProfiles)...)
	extra := map[string]any{
		"min_lux":       ep.MinLux,
		"route_width_m": ep.RouteWidthM,
	}
	return storeDirectOutcome(resultsRoot, hash, s, in, res, rec, thresholds, extra)
}

// dispatchDaylight models the sky as a hemisphere of uniform-intensity
// virtual luminaires (see skyHemisphereLuminaires) centered above the
// evaluation target, then runs the same Direct Illuminance integration
// against them in place of any real luminaires.
func dispatchDaylight(ctx context.Context, resultsRoot, hash string, s Spec, in Inputs, points []geometry.Vector3, normals []geometry.Direction, rec *errs.Recovery) (Outcome, error) {
	dp := s.DaylightParams()
	sky := skyHemisphereLuminaires(centroidOf(points), dp.SkyDiffuseLux, dp.SkyCondition)

	settings := direct.Settings{UseOcclusion: true}
	res, err := direct.RunParallel(ctx, points, normals, sky, in.Occluder, settings, rec)
	if err != nil {
		return Outcome{}, err
	}
	thresholds := compliance.ProfilesFromProject(in.ComplianceProfiles)
	extra := map[string]any{
		"sky_condition":           dp.SkyCondition,
		"sky_diffuse_lux":         dp.SkyDiffuseLux,
		"virtual_luminaire_count": len(sky),
	}
	return storeDirectOutcome(resultsRoot, hash, s, in, res, rec, thresholds, extra)
}

// storeDirectOutcome is shared by every job type that bottoms out in a
// direct.Result: it builds the result grid, evaluates compliance
// thresholds over the sampled values, and writes the result directory.
func storeDirectOutcome(resultsRoot, hash string, s Spec, in Inputs, res direct.Result, rec *errs.Recovery, thresholds []compliance.Threshold, assetExtra map[string]any) (Outcome, error) {
	log := logger.WithJob(hash)
	log.Debug("direct illuminance complete", "job_type", string(s.Type), "points", len(res.Points))

	grid := make([]resultstore.GridPoint, len(res.Points))
	for i, p := range res.Points {
		grid[i] = resultstore.GridPoint{X: p.X, Y: p.Y, Z: p.Z, Illuminance: res.ValuesLux[i]}
	}

	assets := map[string]any{"luminaire_count": len(in.Luminaires)}
	for k, v := range assetExtra {
		assets[k] = v
	}

	dir, err := resultstore.Store(resultsRoot, resultstore.Result{
		JobID:                s.ID,
		JobHash:              hash,
		Job:                  jobDoc(s),
		Summary:              summaryOf(res.ValuesLux, thresholds, rec),
		Assets:               assets,
		Solver:               map[string]any{"engine": string(s.Type)},
		CoordinateConvention: resultstore.DefaultCoordinateConvention(),
		Grid:                 grid,
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{ResultDir: dir, Hash: hash}, nil
}

func dispatchRadiosity(ctx context.Context, resultsRoot, hash string, s Spec, in Inputs, points []geometry.Vector3, normals []geometry.Direction, rec *errs.Recovery) (Outcome, error) {
	log := logger.WithJob(hash)
	params := s.RadiosityParams()

	directSettings := direct.Settings{UseOcclusion: params.UseVisibility}
	directIncident, err := directIncidentPerSurface(ctx, in, directSettings, rec)
	if err != nil {
		return Outcome{}, err
	}

	config := radiosity.RadiosityConfig{
		MaxIters:          params.MaxIters,
		Tol:               params.Tol,
		Damping:           params.Damping,
		PatchMaxArea:      params.PatchMaxArea,
		UseVisibility:     params.UseVisibility,
		FormFactorMethod:  params.FormFactorMethod,
		MonteCarloSamples: params.MonteCarloSamples,
		Seed:              s.Seed,
	}
	solve := radiosity.SolveRadiosity(in.Surfaces, directIncident, config)
	log.Debug("radiosity solve complete", "converged", solve.Status.Converged, "iterations", solve.Status.Iterations)

	surfaceIrradiance := radiosity.AggregateToSurfaces(solve.Patches, solve.Irradiance)
	surfaceRows := make([]resultstore.SurfaceIlluminance, 0, len(surfaceIrradiance))
	surfaceValues := make([]float64, 0, len(surfaceIrradiance))
	for id, e := range surfaceIrradiance {
		surfaceRows = append(surfaceRows, resultstore.SurfaceIlluminance{SurfaceID: id, Illuminance: e})
		surfaceValues = append(surfaceValues, e)
	}

	residualRows := []resultstore.Residual{{Iteration: solve.Status.Iterations, Residual: solve.Status.Residual}}

	var grid []resultstore.GridPoint
	if len(points) > 0 {
		res, err := direct.RunParallel(ctx, points, normals, in.Luminaires, in.Occluder, directSettings, rec)
		if err != nil {
			return Outcome{}, err
		}
		grid = make([]resultstore.GridPoint, len(res.Points))
		for i, p := range res.Points {
			grid[i] = resultstore.GridPoint{X: p.X, Y: p.Y, Z: p.Z, Illuminance: res.ValuesLux[i]}
		}
	}

	thresholds := compliance.ProfilesFromProject(in.ComplianceProfiles)
	complianceReport := compliance.Evaluate(surfaceValues, thresholds)

	dir, err := resultstore.Store(resultsRoot, resultstore.Result{
		JobID:   s.ID,
		JobHash: hash,
		Job:     jobDoc(s),
		Summary: map[string]any{
			"converged":  solve.Status.Converged,
			"iterations": solve.Status.Iterations,
			"residual":   solve.Status.Residual,
			"warnings":   append(append([]string{}, solve.Status.Warnings...), rec.Warnings()...),
			"energy": map[string]any{
				"emitted":   solve.Energy.TotalEmitted,
				"absorbed":  solve.Energy.TotalAbsorbed,
				"reflected": solve.Energy.TotalReflected,
				"exitance":  solve.Energy.TotalExitance,
			},
			"compliance": complianceSummary(complianceReport),
		},
		Assets:               map[string]any{"patch_count": len(solve.Patches)},
		Solver:               map[string]any{"engine": "radiosity", "form_factor_method": params.FormFactorMethod},
		CoordinateConvention: resultstore.DefaultCoordinateConvention(),
		Grid:                 grid,
		Residuals:            residualRows,
		SurfaceIlluminance:   surfaceRows,
	})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{ResultDir: dir, Hash: hash}, nil
}

// directIncidentPerSurface evaluates direct illuminance at each surface's
// centroid (along its normal) to seed the radiosity emission bootstrap.
func directIncidentPerSurface(ctx context.Context, in Inputs, settings direct.Settings, rec *errs.Recovery) (map[string]float64, error) {
	if len(in.Surfaces) == 0 {
		return nil, nil
	}
	points := make([]geometry.Vector3, len(in.Surfaces))
	normals := make([]geometry.Direction, len(in.Surfaces))
	for i, s := range in.Surfaces {
		points[i] = s.Polygon.Centroid()
		normals[i] = s.Polygon.Normal()
	}
	res, err := direct.RunParallel(ctx, points, normals, in.Luminaires, in.Occluder, settings, rec)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(in.Surfaces))
	for i, s := range in.Surfaces {
		out[s.ID] = res.ValuesLux[i]
	}
	return out, nil
}

func jobDoc(s Spec) map[string]any {
	return map[string]any{
		"id":       s.ID,
		"type":     string(s.Type),
		"backend":  s.Backend,
		"settings": s.Settings,
		"seed":     s.Seed,
	}
}

// summaryOf reduces values to compliance.Metrics and, when thresholds are
// given, a threshold-check report, folding both into the result's
// summary document alongside any recovered warnings. An empty values
// slice (a job with no evaluation target) produces only the warnings
// entry.
func summaryOf(values []float64, thresholds []compliance.Threshold, rec *errs.Recovery) map[string]any {
	summary := map[string]any{"warnings": rec.Warnings()}
	if len(values) == 0 {
		return summary
	}
	report := compliance.Evaluate(values, thresholds)
	summary["eavg"] = report.Metrics.Eavg
	summary["emin"] = report.Metrics.Emin
	summary["emax"] = report.Metrics.Emax
	summary["u0"] = report.Metrics.U0
	summary["u1"] = report.Metrics.U1
	summary["p50"] = report.Metrics.P50
	summary["p90"] = report.Metrics.P90
	if len(report.Checks) > 0 {
		summary["compliance"] = complianceSummary(report)
	}
	return summary
}

func complianceSummary(report compliance.Report) map[string]any {
	checks := make([]map[string]any, len(report.Checks))
	for i, c := range report.Checks {
		checks[i] = map[string]any{
			"metric":    c.Metric,
			"threshold": c.Threshold,
			"actual":    c.Actual,
			"pass":      c.Pass,
		}
	}
	return map[string]any{"pass": report.Pass, "checks": checks}
}
