package compliance

// roadwayProfile is one EN 13201-2 road-lighting class's minimum
// requirements, expressed in the illuminance-based metrics this engine
// can evaluate.
type roadwayProfile struct {
	eavgLux float64
	u0      float64
}

// roadwayProfiles covers the ME (motorized-traffic luminance) and S
// (conflict-area/pedestrian illuminance) classes of EN 13201-2. This
// engine has no road-surface luminance or glare model, so ME class
// minimums (specified in the standard as cd/m^2) are carried here as an
// illuminance-equivalent at q0 ~= 0.1, a typical dry-asphalt luminance
// coefficient (E = L / q0). S classes are illuminance-native and need no
// conversion.
var roadwayProfiles = map[string]roadwayProfile{
	"ME1":  {eavgLux: 20.0, u0: 0.4},
	"ME2":  {eavgLux: 15.0, u0: 0.4},
	"ME3a": {eavgLux: 10.0, u0: 0.4},
	"ME3b": {eavgLux: 10.0, u0: 0.4},
	"ME3c": {eavgLux: 10.0, u0: 0.4},
	"ME4a": {eavgLux: 7.5, u0: 0.4},
	"ME4b": {eavgLux: 7.5, u0: 0.4},
	"ME5":  {eavgLux: 5.0, u0: 0.35},
	"ME6":  {eavgLux: 3.0, u0: 0.35},

	"S1": {eavgLux: 15.0},
	"S2": {eavgLux: 10.0},
	"S3": {eavgLux: 7.5},
	"S4": {eavgLux: 5.0},
	"S5": {eavgLux: 3.0},
	"S6": {eavgLux: 2.0},
	"S7": {eavgLux: 1.0},
}

// defaultRoadwayProfile matches RoadwayParams' own default.
const defaultRoadwayProfile = "ME3b"

// RoadwayThresholds looks up the named EN 13201 class's illuminance
// (and, for ME classes, overall-uniformity) minimums. An unrecognized
// profile name falls back to ME3b rather than failing the job outright,
// since a typo'd profile should still produce an evaluable (if wrong)
// compliance report.
func RoadwayThresholds(profile string) []Threshold {
	p, ok := roadwayProfiles[profile]
	if !ok {
		p = roadwayProfiles[defaultRoadwayProfile]
	}
	out := []Threshold{{Metric: "eavg", Value: p.eavgLux}}
	if p.u0 > 0 {
		out = append(out, Threshold{Metric: "u0", Value: p.u0})
	}
	return out
}

// EmergencyThresholds builds EN 1838 escape-route thresholds: a minimum
// centerline illuminance (minLux, job-specified rather than looked up,
// since EN 1838's floor of 1 lux is itself the configurable default) and
// the standard's 40:1 max:min uniformity ratio, expressed here as
// U1 = Emin/Emax >= 1/40.
func EmergencyThresholds(minLux float64) []Threshold {
	return []Threshold{
		{Metric: "emin", Value: minLux},
		{Metric: "u1", Value: 1.0 / 40.0},
	}
}
