package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(val) != "v" {
		t.Fatalf("expected v, got %q", val)
	}
}

func TestMemory_TTL(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestMemory_InvalidateByPrefix(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	keys := []string{
		"appointments:store-1:p=1",
		"appointments:store-1:p=2",
		"calendar:store-1:month",
		"appointments:store-2:p=1",
	}
	for _, k := range keys {
		if err := c.Set(ctx, k, []byte("x"), 0); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	if err := c.InvalidateByPrefix(ctx, "appointments:store-1:"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	for _, k := range keys[:2] {
		if _, ok, _ := c.Get(ctx, k); ok {
			t.Fatalf("expected %s to be invalidated", k)
		}
	}
	for _, k := range keys[2:] {
		if _, ok, _ := c.Get(ctx, k); !ok {
			t.Fatalf("expected %s to survive", k)
		}
	}
}
