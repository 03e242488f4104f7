// Package compliance computes descriptive statistics over an evaluation
// result's value array (Eavg, Emin, Emax, U0, U1, P50, P90) and checks
// them against named thresholds.
package compliance

import "sort"

// Metrics holds the descriptive statistics computed over a value array.
type Metrics struct {
	Eavg float64
	Emin float64
	Emax float64
	U0   float64 // Emin/Eavg, 0 if Eavg <= 1e-12
	U1   float64 // Emin/Emax
	P50  float64
	P90  float64
}

// ComputeMetrics reduces values down to Metrics. An empty slice returns
// the zero Metrics.
func ComputeMetrics(values []float64) Metrics {
	n := len(values)
	if n == 0 {
		return Metrics{}
	}

	sum := 0.0
	emin := values[0]
	emax := values[0]
	for _, v := range values {
		sum += v
		if v < emin {
			emin = v
		}
		if v > emax {
			emax = v
		}
	}
	eavg := sum / float64(n)

	u0 := 0.0
	if eavg > 1e-12 {
		u0 = emin / eavg
	}
	u1 := 0.0
	if emax != 0 {
		u1 = emin / emax
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return Metrics{
		Eavg: eavg,
		Emin: emin,
		Emax: emax,
		U0:   u0,
		U1:   u1,
		P50:  percentile(sorted, 50),
		P90:  percentile(sorted, 90),
	}
}

// percentile linearly interpolates the p-th percentile (0..100) over an
// already-sorted slice.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := (p / 100.0) * float64(n-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Threshold is one named check: a metric name (e.g. "Eavg", "U0",
// "Emax_max") and the value it is compared against.
type Threshold struct {
	Metric string
	Value  float64
}

// CheckResult is one threshold's evaluation outcome.
type CheckResult struct {
	Metric    string
	Threshold float64
	Actual    float64
	Pass      bool
}

// Report is the overall pass/fail outcome of a set of threshold checks
// against a Metrics value.
type Report struct {
	Metrics Metrics
	Checks  []CheckResult
	Pass    bool
}

// metricValue looks up the named metric (stripping a trailing "_max" to
// resolve which field of m to compare against) from a Metrics value.
func metricValue(m Metrics, metric string) (float64, bool) {
	name := metric
	if len(name) > 4 && name[len(name)-4:] == "_max" {
		name = name[:len(name)-4]
	}
	switch name {
	case "Eavg", "eavg":
		return m.Eavg, true
	case "Emin", "emin":
		return m.Emin, true
	case "Emax", "emax":
		return m.Emax, true
	case "U0", "u0":
		return m.U0, true
	case "U1", "u1":
		return m.U1, true
	case "P50", "p50":
		return m.P50, true
	case "P90", "p90":
		return m.P90, true
	default:
		return 0, false
	}
}

// endsWithMax reports whether metric ends in "_max".
func endsWithMax(metric string) bool {
	return len(metric) > 4 && metric[len(metric)-4:] == "_max"
}

// Evaluate runs every threshold against m's metrics. A metric name ending
// in "_max" passes iff actual <= threshold; otherwise it passes iff
// actual >= threshold. Overall status is PASS iff every check passes.
// Thresholds naming an unknown metric are skipped (not counted as a
// failure), since that indicates a misconfigured profile rather than a
// measurement shortfall.
func Evaluate(values []float64, thresholds []Threshold) Report {
	m := ComputeMetrics(values)
	report := Report{Metrics: m, Pass: true}
	for _, th := range thresholds {
		actual, ok := metricValue(m, th.Metric)
		if !ok {
			continue
		}
		var pass bool
		if endsWithMax(th.Metric) {
			pass = actual <= th.Value
		} else {
			pass = actual >= th.Value
		}
		report.Checks = append(report.Checks, CheckResult{
			Metric:    th.Metric,
			Threshold: th.Value,
			Actual:    actual,
			Pass:      pass,
		})
		if !pass {
			report.Pass = false
		}
	}
	return report
}
