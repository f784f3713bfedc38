package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("identity:1", "alice", 1*time.Second)
	val, ok := c.Get("identity:1")
	if !ok || val != "alice" {
		t.Fatalf("expected alice, got %v, exists=%v", val, ok)
	}
}

func TestGetMissing(t *testing.T) {
	c := New()
	if _, ok := c.Get("identity:missing"); ok {
		t.Fatalf("expected missing key to return false")
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	c.Set("identity:1", "alice", 100*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	_, ok := c.Get("identity:1")
	if ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("identity:1", "alice", 1*time.Second)
	c.Delete("identity:1")
	_, ok := c.Get("identity:1")
	if ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestClear(t *testing.T) {
	c := New()
	c.Set("identity:1", "alice", 1*time.Second)
	c.Set("identity:2", "bob", 1*time.Second)
	c.Clear()
	_, ok1 := c.Get("identity:1")
	_, ok2 := c.Get("identity:2")
	if ok1 || ok2 {
		t.Fatalf("expected cleared cache to be empty")
	}
}
