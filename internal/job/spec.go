// Package job implements the tagged-union job dispatcher: stable job
// hashing, result-directory cache lookup, and dispatch to the direct
// illuminance and radiosity engines (with roadway/emergency/daylight
// jobs realized as thin reparameterizations of the same two engines).
package job

import "strconv"

// Type is the job.type tagged-union discriminant.
type Type string

const (
	TypeDirect    Type = "direct"
	TypeRadiosity Type = "radiosity"
	TypeRoadway   Type = "roadway"
	TypeEmergency Type = "emergency"
	TypeDaylight  Type = "daylight"
)

// Spec is a JobSpec: (id, type, backend, settings, seed).
type Spec struct {
	ID       string
	Type     Type
	Backend  string
	Settings map[string]string
	Seed     uint64
}

// settingFloat reads a numeric setting, returning def if absent or
// unparsable.
func (s Spec) settingFloat(key string, def float64) float64 {
	raw, ok := s.Settings[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func (s Spec) settingInt(key string, def int) int {
	raw, ok := s.Settings[key]
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func (s Spec) settingBool(key string, def bool) bool {
	raw, ok := s.Settings[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func (s Spec) settingString(key, def string) string {
	if v, ok := s.Settings[key]; ok && v != "" {
		return v
	}
	return def
}

// DirectParams is the typed view of Settings for direct/radiosity jobs'
// shared direct-illuminance controls.
type DirectParams struct {
	UseOcclusion bool
	UserEpsilon  float64
	SceneScale   float64
}

func (s Spec) DirectParams() DirectParams {
	return DirectParams{
		UseOcclusion: s.settingBool("use_occlusion", true),
		UserEpsilon:  s.settingFloat("user_epsilon", 0),
		SceneScale:   s.settingFloat("scene_scale", 1),
	}
}

// RadiosityParams is the typed view of Settings for radiosity jobs.
type RadiosityParams struct {
	PatchMaxArea      float64
	MaxIters          int
	Tol               float64
	Damping           float64
	FormFactorMethod  string
	MonteCarloSamples int
	UseVisibility     bool
}

func (s Spec) RadiosityParams() RadiosityParams {
	return RadiosityParams{
		PatchMaxArea:      s.settingFloat("patch_max_area", 0.5),
		MaxIters:          s.settingInt("max_iters", 100),
		Tol:               s.settingFloat("tol", 1e-3),
		Damping:           s.settingFloat("damping", 1.0),
		FormFactorMethod:  s.settingString("form_factor_method", "monte_carlo"),
		MonteCarloSamples: s.settingInt("monte_carlo_samples", 16),
		UseVisibility:     s.settingBool("use_occlusion", true),
	}
}

// RoadwayParams is the typed view of Settings for roadway jobs: a
// carriageway observer height and a standard luminance-class profile
// name (ME1..ME6, S1..S7).
type RoadwayParams struct {
	ObserverHeightM float64
	Profile         string
}

func (s Spec) RoadwayParams() RoadwayParams {
	return RoadwayParams{
		ObserverHeightM: s.settingFloat("observer_height_m", 1.5),
		Profile:         s.settingString("profile", "ME3b"),
	}
}

// EmergencyParams is the typed view of Settings for emergency escape
// route jobs.
type EmergencyParams struct {
	MinLux     float64
	RouteWidthM float64
}

func (s Spec) EmergencyParams() EmergencyParams {
	return EmergencyParams{
		MinLux:      s.settingFloat("min_lux", 1.0),
		RouteWidthM: s.settingFloat("route_width_m", 2.0),
	}
}

// DaylightParams is the typed view of Settings for daylight jobs (a CIE
// overcast sky dome).
type DaylightParams struct {
	SkyCondition  string // overcast | clear
	SkyDiffuseLux float64
}

func (s Spec) DaylightParams() DaylightParams {
	return DaylightParams{
		SkyCondition:  s.settingString("sky_condition", "overcast"),
		SkyDiffuseLux: s.settingFloat("sky_diffuse_lux", 10000),
	}
}
