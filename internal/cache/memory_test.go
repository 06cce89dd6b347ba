package cache

import (
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	c := NewMemory[string](time.Minute, time.Minute)

	c.Set("a", "alpha")
	got, ok := c.Get("a")
	if !ok || got != "alpha" {
		t.Errorf("Expected alpha, got %q (found=%v)", got, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory[int](20*time.Millisecond, time.Minute)

	c.Set("n", 1)
	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get("n"); ok {
		t.Error("Expected entry to expire")
	}
}

func TestMemory_DeleteClear(t *testing.T) {
	c := NewMemory[int](time.Minute, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Expected a to be deleted")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected empty cache, got %d entries", c.Len())
	}
}
