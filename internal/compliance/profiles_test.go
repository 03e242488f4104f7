package compliance

import "testing"

func TestRoadwayThresholds(t *testing.T) {
	tests := []struct {
		name        string
		profile     string
		wantEavg    float64
		wantU0      bool
		wantU0Value float64
	}{
		{name: "ME1 carries uniformity", profile: "ME1", wantEavg: 20.0, wantU0: true, wantU0Value: 0.4},
		{name: "ME6 lowest ME class", profile: "ME6", wantEavg: 3.0, wantU0: true, wantU0Value: 0.35},
		{name: "S1 has no uniformity requirement", profile: "S1", wantEavg: 15.0, wantU0: false},
		{name: "unknown profile falls back to ME3b", profile: "bogus", wantEavg: 10.0, wantU0: true, wantU0Value: 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds := RoadwayThresholds(tt.profile)

			var gotEavg float64
			var gotU0 bool
			var gotU0Value float64
			for _, th := range thresholds {
				switch th.Metric {
				case "eavg":
					gotEavg = th.Value
				case "u0":
					gotU0 = true
					gotU0Value = th.Value
				}
			}

			if gotEavg != tt.wantEavg {
				t.Errorf("eavg threshold = %v, want %v", gotEavg, tt.wantEavg)
			}
			if gotU0 != tt.wantU0 {
				t.Errorf("u0 threshold present = %v, want %v", gotU0, tt.wantU0)
			}
			if tt.wantU0 && gotU0Value != tt.wantU0Value {
				t.Errorf("u0 threshold = %v, want %v", gotU0Value, tt.wantU0Value)
			}
		})
	}
}

func TestRoadwayThresholdsEvaluable(t *testing.T) {
	thresholds := RoadwayThresholds("ME3b")
	values := []float64{8, 9, 10, 11, 12}
	report := Evaluate(values, thresholds)
	if !report.Pass {
		t.Errorf("expected ME3b thresholds to pass against %v, got checks=%+v", values, report.Checks)
	}
}

func TestEmergencyThresholds(t *testing.T) {
	thresholds := EmergencyThresholds(1.0)
	if len(thresholds) != 2 {
		t.Fatalf("EmergencyThresholds returned %d thresholds, want 2", len(thresholds))
	}

	var minSeen, u1Seen bool
	for _, th := range thresholds {
		switch th.Metric {
		case "emin":
			minSeen = true
			if th.Value != 1.0 {
				t.Errorf("emin threshold = %v, want 1.0", th.Value)
			}
		case "u1":
			u1Seen = true
			if th.Value != 1.0/40.0 {
				t.Errorf("u1 threshold = %v, want %v", th.Value, 1.0/40.0)
			}
		}
	}
	if !minSeen || !u1Seen {
		t.Errorf("expected both emin and u1 thresholds, got %+v", thresholds)
	}
}

func TestEmergencyThresholdsEvaluation(t *testing.T) {
	thresholds := EmergencyThresholds(1.0)

	// Uniform route well above the centerline minimum and uniformity floor.
	pass := Evaluate([]float64{2, 2, 2, 2}, thresholds)
	if !pass.Pass {
		t.Errorf("expected uniform route to pass, got checks=%+v", pass.Checks)
	}

	// Below minimum centerline illuminance.
	fail := Evaluate([]float64{0.2, 0.3, 0.4}, thresholds)
	if fail.Pass {
		t.Error("expected sub-minimum route to fail emin check")
	}
}

func TestProfilesFromProject(t *testing.T) {
	profiles := []map[string]any{
		{"metric": "eavg", "value": 100.0},
		{"metric": "u0", "threshold": 5}, // int, via "threshold" key
		{"metric": "", "value": 1.0},     // missing metric name, skipped
		{"value": 1.0},                   // missing metric key entirely, skipped
		{"metric": "emax_max"},           // missing value, skipped
		{"metric": "emin", "value": "not a number"}, // wrong type, skipped
	}

	got := ProfilesFromProject(profiles)
	if len(got) != 2 {
		t.Fatalf("ProfilesFromProject returned %d thresholds, want 2: %+v", len(got), got)
	}
	if got[0].Metric != "eavg" || got[0].Value != 100.0 {
		t.Errorf("got[0] = %+v, want {eavg 100}", got[0])
	}
	if got[1].Metric != "u0" || got[1].Value != 5.0 {
		t.Errorf("got[1] = %+v, want {u0 5}", got[1])
	}
}

func TestProfilesFromProjectEmpty(t *testing.T) {
	if got := ProfilesFromProject(nil); len(got) != 0 {
		t.Errorf("ProfilesFromProject(nil) = %+v, want empty", got)
	}
}
