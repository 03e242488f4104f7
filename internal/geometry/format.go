package geometry

import "strconv"

// formatFloat renders f compactly for use inside deterministic vertex
// keys; it does not need to be reversible, only stable.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 9, 64)
}
