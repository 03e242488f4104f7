package hashutil

import "testing"

func TestSum256StableAcrossKeyOrder(t *testing.T) {
	a := map[string]any{"b": 2, "a": 1, "c": 3}
	b := map[string]any{"c": 3, "a": 1, "b": 2}
	ha, err := Sum256(a)
	if err != nil {
		t.Fatalf("Sum256(a): %v", err)
	}
	hb, err := Sum256(b)
	if err != nil {
		t.Fatalf("Sum256(b): %v", err)
	}
	if ha != hb {
		t.Fatalf("expected key-order-independent hash, got %q vs %q", ha, hb)
	}
}

func TestSum256DiffersOnContent(t *testing.T) {
	a := map[string]any{"x": 1}
	b := map[string]any{"x": 2}
	ha, _ := Sum256(a)
	hb, _ := Sum256(b)
	if ha == hb {
		t.Fatal("expected differing content to hash differently")
	}
}

func TestNormalizeFloatPrecisionCollapsesNoise(t *testing.T) {
	a := map[string]any{"v": 1.0 / 3.0}
	b := map[string]any{"v": 0.3333333333333333}
	ha, _ := Sum256(a)
	hb, _ := Sum256(b)
	if ha != hb {
		t.Fatalf("expected values equal to 12 significant digits to hash identically, got %q vs %q", ha, hb)
	}
}

func TestNormalizeFloatIntegralMatchesInt(t *testing.T) {
	a := map[string]any{"v": 3.0}
	b := map[string]any{"v": 3}
	ha, _ := Sum256(a)
	hb, _ := Sum256(b)
	if ha != hb {
		t.Fatalf("expected 3.0 and 3 to hash identically, got %q vs %q", ha, hb)
	}
}

func TestStripVolatileJobFields(t *testing.T) {
	m := map[string]any{
		"id":            "job-1",
		"results":       []any{1, 2},
		"jobs":          map[string]any{"nested": true},
		"root_dir":      "/tmp/x",
		"agent_history": []any{"a"},
	}
	StripVolatileJobFields(m)
	for _, key := range []string{"results", "jobs", "root_dir", "agent_history"} {
		if _, ok := m[key]; ok {
			t.Fatalf("expected %q to be stripped", key)
		}
	}
	if _, ok := m["id"]; !ok {
		t.Fatal("expected non-volatile fields to survive stripping")
	}
}

func TestHashJobSpecIgnoresVolatileFields(t *testing.T) {
	a := map[string]any{"id": "job-1", "results": []any{1}}
	b := map[string]any{"id": "job-1", "results": []any{2, 3, 4}}
	ha, err := HashJobSpec(a)
	if err != nil {
		t.Fatalf("HashJobSpec(a): %v", err)
	}
	hb, err := HashJobSpec(b)
	if err != nil {
		t.Fatalf("HashJobSpec(b): %v", err)
	}
	if ha != hb {
		t.Fatalf("expected volatile 'results' field to not affect hash, got %q vs %q", ha, hb)
	}
}

func TestHashJobSpecDoesNotMutateCaller(t *testing.T) {
	spec := map[string]any{"id": "job-1", "results": []any{1}}
	if _, err := HashJobSpec(spec); err != nil {
		t.Fatalf("HashJobSpec: %v", err)
	}
	if _, ok := spec["results"]; !ok {
		t.Fatal("expected HashJobSpec to operate on a copy, leaving caller's map untouched")
	}
}

func TestMustSum256Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected MustSum256 to panic on unmarshalable input")
		}
	}()
	MustSum256(make(chan int))
}
