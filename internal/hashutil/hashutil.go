// Package hashutil implements the stable content-hashing scheme used for
// photometry content addresses and job spec deduplication: canonical JSON
// with sorted keys and fixed-precision floats, hashed with SHA-256.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// floatPrecision is the number of significant digits floats are normalized
// to before hashing, matching the `.12g` formatting used by the reference
// implementation so that hashes are stable across platforms and languages.
const floatPrecision = 12

// StableJSON renders v as JSON with object keys sorted and floats
// normalized to floatPrecision significant digits, so that semantically
// identical values always produce byte-identical output.
func StableJSON(v any) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// Sum256 returns the hex-encoded SHA-256 digest of v's stable JSON form.
func Sum256(v any) (string, error) {
	buf, err := StableJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

// MustSum256 is Sum256 but panics on error; intended for call sites where v
// is known to be JSON-marshalable (already-validated in-memory structs).
func MustSum256(v any) string {
	h, err := Sum256(v)
	if err != nil {
		panic(fmt.Sprintf("hashutil: %v", err))
	}
	return h
}

// normalize round-trips v through JSON to obtain a generic tree of
// map[string]any / []any / float64 / string / bool / nil, then rewrites it
// so object keys marshal in sorted order (via orderedMap) and every float
// is snapped to floatPrecision significant digits.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return normalizeValue(generic), nil
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return newOrderedMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case float64:
		return normalizeFloat(t)
	default:
		return v
	}
}

// normalizeFloat reduces f to floatPrecision significant digits, using the
// classic `%.12g` formatting chosen for cross-platform and cross-language
// stability. Integral floats are left as exact integers so e.g. 3.0 and 3
// hash identically.
func normalizeFloat(f float64) json.Number {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.Number(fmt.Sprintf("%g", f))
	}
	s := fmt.Sprintf("%.*g", floatPrecision, f)
	return json.Number(s)
}

// orderedMap marshals a map[string]any with its keys sorted lexically,
// independent of Go's randomized map iteration order.
type orderedMap struct {
	keys   []string
	values map[string]any
}

func newOrderedMap(m map[string]any) orderedMap {
	keys := make([]string, 0, len(m))
	values := make(map[string]any, len(m))
	for k, v := range m {
		keys = append(keys, k)
		values[k] = normalizeValue(v)
	}
	sort.Strings(keys)
	return orderedMap{keys: keys, values: values}
}

func (o orderedMap) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range o.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		valJSON, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, valJSON...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// StripVolatileJobFields removes keys that must not participate in job
// deduplication hashing: prior results, nested job bookkeeping, the root
// working directory, and agent interaction history. Mutates and returns m.
func StripVolatileJobFields(m map[string]any) map[string]any {
	for _, key := range []string{"results", "jobs", "root_dir", "agent_history"} {
		delete(m, key)
	}
	return m
}

// HashJobSpec computes the stable hash of a job specification after
// stripping volatile bookkeeping fields, so that two submissions of the
// same job (possibly run at different times, in different projects) yield
// the same content address.
func HashJobSpec(spec map[string]any) (string, error) {
	cleaned := make(map[string]any, len(spec))
	for k, v := range spec {
		cleaned[k] = v
	}
	StripVolatileJobFields(cleaned)
	return Sum256(cleaned)
}
