package recordstore

import (
	"bytes"
	"testing"
)

type sliceScanner struct {
	ids  []ID
	data [][]byte
}

func (s *sliceScanner) Scan(fn func(ID, []byte) bool) error {
	for i := range s.ids {
		if !fn(s.ids[i], s.data[i]) {
			return nil
		}
	}
	return nil
}

func (s *sliceScanner) add(id ID, b string) {
	s.ids = append(s.ids, id)
	s.data = append(s.data, []byte(b))
}

func collect(e *Enumeration) []string {
	var out []string
	for ok := e.First(); ok; ok = e.Next() {
		out = append(out, string(e.Record()))
	}
	return out
}

func TestEnumerationScanOrder(t *testing.T) {
	src := &sliceScanner{}
	src.add(1, "c")
	src.add(2, "a")
	src.add(3, "b")
	e, err := NewEnumeration(src, EnumerateOptions{})
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	defer e.Close()
	got := collect(e)
	if len(got) != 3 || got[0] != "c" || got[2] != "b" {
		t.Fatalf("unexpected order %v", got)
	}
	if e.Len() != 3 {
		t.Fatalf("len %d", e.Len())
	}
}

func TestEnumerationComparatorAndFilter(t *testing.T) {
	src := &sliceScanner{}
	src.add(1, "c")
	src.add(2, "a")
	src.add(3, "skip")
	src.add(4, "b")
	e, err := NewEnumeration(src, EnumerateOptions{
		Filter:     func(b []byte) bool { return len(b) == 1 },
		Comparator: bytes.Compare,
	})
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	got := collect(e)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected order %v", got)
	}
	ids := e.IDs()
	if ids[0] != 2 || ids[1] != 4 || ids[2] != 1 {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestEnumerationStableAmongEquals(t *testing.T) {
	src := &sliceScanner{}
	src.add(1, "x1")
	src.add(2, "x2")
	src.add(3, "x3")
	same := func(a, b []byte) int { return 0 }
	e, _ := NewEnumeration(src, EnumerateOptions{Comparator: same})
	ids := e.IDs()
	if ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("equal records reordered: %v", ids)
	}
}

func TestEnumerationReverse(t *testing.T) {
	src := &sliceScanner{}
	src.add(1, "b")
	src.add(2, "a")
	src.add(3, "b")
	src.add(4, "c")
	e, _ := NewEnumeration(src, EnumerateOptions{Comparator: bytes.Compare, Reverse: true})
	ids := e.IDs()
	// exact mirror of the ascending order [2 1 3 4], equal records included
	if len(ids) != 4 || ids[0] != 4 || ids[1] != 3 || ids[2] != 1 || ids[3] != 2 {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestEnumerationRestartable(t *testing.T) {
	src := &sliceScanner{}
	src.add(1, "a")
	e, _ := NewEnumeration(src, EnumerateOptions{})
	first := collect(e)
	src.add(2, "b")
	second := collect(e)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("snapshot enumeration changed: %v %v", first, second)
	}
}

func TestEnumerationKeepUpdated(t *testing.T) {
	src := &sliceScanner{}
	src.add(1, "a")
	e, _ := NewEnumeration(src, EnumerateOptions{KeepUpdated: true})
	if got := collect(e); len(got) != 1 {
		t.Fatalf("want 1, got %v", got)
	}
	src.add(2, "b")
	if got := collect(e); len(got) != 2 {
		t.Fatalf("keepUpdated did not pick up new record: %v", got)
	}
}

func TestEnumerationClosed(t *testing.T) {
	src := &sliceScanner{}
	src.add(1, "a")
	e, _ := NewEnumeration(src, EnumerateOptions{})
	_ = e.Close()
	if e.First() || e.Valid() || e.Record() != nil || e.ID() != 0 {
		t.Fatalf("closed enumeration still usable")
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"microlog", true},
		{"", false},
		{"a/b", false},
		{"0123456789012345678901234567890123", false},
		{"01234567890123456789012345678901", true},
	}
	for _, tt := range tests {
		err := ValidateName(tt.name)
		if (err == nil) != tt.ok {
			t.Fatalf("ValidateName(%q) = %v", tt.name, err)
		}
	}
}
