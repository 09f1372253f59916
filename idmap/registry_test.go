package idmap

import "testing"

func TestRegistry_Bijection(t *testing.T) {
	ids := []string{"u1", "u7", "u3", "u9"}
	r := New(ids)

	if r.Len() != len(ids) {
		t.Fatalf("Len() = %d, want %d", r.Len(), len(ids))
	}

	// 对每个已分配下标验证双向一致：IndexOf(IDOf(i)) == i 且 IDOf(IndexOf(id)) == id
	for i := 0; i < r.Len(); i++ {
		id, ok := r.IDOf(i)
		if !ok {
			t.Fatalf("IDOf(%d) not found", i)
		}
		idx, ok := r.IndexOf(id)
		if !ok || idx != i {
			t.Errorf("IndexOf(IDOf(%d)) = %d, want %d", i, idx, i)
		}
	}
	for _, id := range ids {
		idx, ok := r.IndexOf(id)
		if !ok {
			t.Fatalf("IndexOf(%q) not found", id)
		}
		got, ok := r.IDOf(idx)
		if !ok || got != id {
			t.Errorf("IDOf(IndexOf(%q)) = %q, want %q", id, got, id)
		}
	}
}

func TestRegistry_FirstSeenOrder(t *testing.T) {
	r := New([]string{"b", "a", "c", "a", "b"})

	want := []string{"b", "a", "c"}
	if r.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", r.Len(), len(want))
	}
	for i, id := range want {
		got, _ := r.IDOf(i)
		if got != id {
			t.Errorf("IDOf(%d) = %q, want %q", i, got, id)
		}
	}
}

func TestRegistry_ColdEntity(t *testing.T) {
	r := New([]string{"a", "b"})

	if _, ok := r.IndexOf("unknown"); ok {
		t.Error("IndexOf(unknown) should return ok=false")
	}
	if _, ok := r.IDOf(-1); ok {
		t.Error("IDOf(-1) should return ok=false")
	}
	if _, ok := r.IDOf(2); ok {
		t.Error("IDOf(out of range) should return ok=false")
	}
}

func TestRegistry_SkipEmpty(t *testing.T) {
	r := New([]string{"", "a", ""})
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}
