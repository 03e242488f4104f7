package compliance

import (
	"math"
	"testing"
)

func TestComputeMetrics(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}
	m := ComputeMetrics(values)

	if math.Abs(m.Eavg-30) > 1e-9 {
		t.Errorf("Eavg = %v, want 30", m.Eavg)
	}
	if m.Emin != 10 {
		t.Errorf("Emin = %v, want 10", m.Emin)
	}
	if m.Emax != 50 {
		t.Errorf("Emax = %v, want 50", m.Emax)
	}
	if math.Abs(m.U0-10.0/30.0) > 1e-9 {
		t.Errorf("U0 = %v, want %v", m.U0, 10.0/30.0)
	}
	if math.Abs(m.U1-10.0/50.0) > 1e-9 {
		t.Errorf("U1 = %v, want %v", m.U1, 10.0/50.0)
	}
}

func TestComputeMetricsEmpty(t *testing.T) {
	m := ComputeMetrics(nil)
	if m != (Metrics{}) {
		t.Errorf("empty input should produce zero Metrics, got %+v", m)
	}
}

func TestComputeMetricsZeroAverageU0(t *testing.T) {
	m := ComputeMetrics([]float64{0, 0, 0})
	if m.U0 != 0 {
		t.Errorf("U0 should be 0 when Eavg <= 1e-12, got %v", m.U0)
	}
}

func TestEvaluateThresholds(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		thresholds []Threshold
		wantPass   bool
	}{
		{
			name:       "min threshold satisfied",
			values:     []float64{100, 100, 100},
			thresholds: []Threshold{{Metric: "Eavg", Value: 50}},
			wantPass:   true,
		},
		{
			name:       "min threshold violated",
			values:     []float64{10, 10, 10},
			thresholds: []Threshold{{Metric: "Eavg", Value: 50}},
			wantPass:   false,
		},
		{
			name:       "max threshold satisfied",
			values:     []float64{10, 20, 30},
			thresholds: []Threshold{{Metric: "Emax_max", Value: 100}},
			wantPass:   true,
		},
		{
			name:       "max threshold violated",
			values:     []float64{10, 20, 300},
			thresholds: []Threshold{{Metric: "Emax_max", Value: 100}},
			wantPass:   false,
		},
		{
			name:   "mixed thresholds, one failing fails overall",
			values: []float64{10, 20, 30},
			thresholds: []Threshold{
				{Metric: "Eavg", Value: 15},
				{Metric: "Emax_max", Value: 20},
			},
			wantPass: false,
		},
		{
			name:       "unknown metric is skipped, not a failure",
			values:     []float64{10, 20, 30},
			thresholds: []Threshold{{Metric: "bogus", Value: 1}},
			wantPass:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Evaluate(tt.values, tt.thresholds)
			if report.Pass != tt.wantPass {
				t.Errorf("Pass = %v, want %v (checks=%+v)", report.Pass, tt.wantPass, report.Checks)
			}
		})
	}
}
