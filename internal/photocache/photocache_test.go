package photocache_test

import (
	"path/filepath"
	"testing"

	"luxera/internal/photocache"
)

func TestPutGetRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "photometry.db")
	c, err := photocache.Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	hash := "deadbeef"
	if _, ok, err := c.Get(hash); err != nil || ok {
		t.Fatalf("Get on empty cache: ok=%v err=%v, want ok=false", ok, err)
	}

	blob := []byte(`{"system":"C"}`)
	if err := c.Put(hash, blob); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get(hash)
	if err != nil || !ok {
		t.Fatalf("Get after Put: ok=%v err=%v, want ok=true", ok, err)
	}
	if string(got) != string(blob) {
		t.Errorf("Get = %q, want %q", got, blob)
	}

	updated := []byte(`{"system":"B"}`)
	if err := c.Put(hash, updated); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, _, _ = c.Get(hash)
	if string(got) != string(updated) {
		t.Errorf("Get after overwrite = %q, want %q", got, updated)
	}

	health := c.Health()
	if health["status"] != "up" {
		t.Errorf("Health()[status] = %q, want up", health["status"])
	}
}
