package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	key := Key("probe", "/opt/jdk-21", "capabilities")

	if _, ok, _ := c.Get(ctx, key); ok {
		t.Fatal("Get() hit on empty cache")
	}

	if err := c.Set(ctx, key, []byte(`{"new_jlink_options":true}`), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v, %v", data, ok, err)
	}
	if string(data) != `{"new_jlink_options":true}` {
		t.Errorf("Get() data = %s", data)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, key); ok {
		t.Error("Get() hit after Delete()")
	}
	// Deleting again is not an error.
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete() second call error = %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "short-lived", []byte("x"), time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "short-lived"); ok {
		t.Error("Get() hit on expired entry")
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("NullCache stored a value")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestKeyDeterministic(t *testing.T) {
	a := Key("probe", "/opt/jdk", 21)
	b := Key("probe", "/opt/jdk", 21)
	if a != b {
		t.Errorf("Key() not deterministic: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "probe:") {
		t.Errorf("Key() = %s, want probe: prefix", a)
	}
	if c := Key("probe", "/opt/other", 21); c == a {
		t.Error("Key() collision for different parts")
	}
}

func TestHash(t *testing.T) {
	h := Hash([]byte("content"))
	if len(h) != 64 {
		t.Errorf("len(Hash()) = %d, want 64", len(h))
	}
	if h != Hash([]byte("content")) {
		t.Error("Hash() not deterministic")
	}
	if h == Hash([]byte("different")) {
		t.Error("Hash() collision")
	}
}
