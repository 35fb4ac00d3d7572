package generator

import (
	"testing"
	"time"
)

func TestHandles(t *testing.T) {
	h := NewHandles(0)

	a := &Result{Data: []byte("a")}
	id := h.Put(a)
	if id == "" || a.Handle != id {
		t.Fatalf("Put() = %q, handle %q", id, a.Handle)
	}
	if got, ok := h.Get(id); !ok || got != a {
		t.Error("Get() did not return the stored result")
	}

	b := &Result{Data: []byte("b")}
	idB := h.Replace(id, b)
	if _, ok := h.Get(id); ok {
		t.Error("Replace() kept the old result")
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}

	if !h.Release(idB) {
		t.Error("Release() of a held id = false")
	}
	if h.Release(idB) {
		t.Error("second Release() = true")
	}
	if h.Replace("", &Result{}) == "" || h.Len() != 1 {
		t.Error("Replace with no previous handle should just register")
	}
	if h.Expire() != 0 {
		t.Error("Expire() without ttl dropped results")
	}
}

func TestHandlesExpire(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	h := NewHandles(time.Minute)
	h.now = func() time.Time { return now }

	old := h.Put(&Result{})
	now = now.Add(50 * time.Second)
	fresh := h.Put(&Result{})
	now = now.Add(20 * time.Second)

	if n := h.Expire(); n != 1 {
		t.Fatalf("Expire() = %d, want 1", n)
	}
	if _, ok := h.Get(old); ok {
		t.Error("old result survived")
	}
	if _, ok := h.Get(fresh); !ok {
		t.Error("fresh result expired")
	}
}
