package store

import (
	"context"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	var kv KV = NewMemory()

	if _, ok, err := kv.Get(ctx, "s1", "email"); ok || err != nil {
		t.Fatalf("empty store returned ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "s1", "email", "a@uni.edu"); err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(ctx, "s2", "email", "b@uni.edu"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := kv.Get(ctx, "s1", "email"); !ok || v != "a@uni.edu" {
		t.Errorf("get = %q %v", v, ok)
	}
	if err := kv.Set(ctx, "s1", "email", "c@uni.edu"); err != nil {
		t.Fatal(err)
	}
	if v, _, _ := kv.Get(ctx, "s1", "email"); v != "c@uni.edu" {
		t.Errorf("overwrite = %q", v)
	}
	if err := kv.Remove(ctx, "s1", "email"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := kv.Get(ctx, "s1", "email"); ok {
		t.Errorf("removed key still present")
	}
	if v, ok, _ := kv.Get(ctx, "s2", "email"); !ok || v != "b@uni.edu" {
		t.Errorf("namespaces must be independent")
	}
	if err := kv.Remove(ctx, "missing", "key"); err != nil {
		t.Errorf("removing a missing key: %v", err)
	}
}

func TestOpen(t *testing.T) {
	kv, err := Open(context.Background(), Options{Backend: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := kv.(*Memory); !ok {
		t.Errorf("memory backend = %T", kv)
	}
	if _, err := Open(context.Background(), Options{Backend: "etcd"}); err == nil {
		t.Errorf("unknown backend must fail")
	}
}
