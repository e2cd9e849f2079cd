package ringlog

import (
	"math"
	"sort"
	"testing"
)

func TestCompareRecordsHighBitBytes(t *testing.T) {
	// every timestamp here has at least one byte >= 0x80 somewhere in its
	// encoding; a sign-extending key read misorders them
	stamps := []int64{
		0x80,
		0x7F,
		0xFF,
		0x0100,
		0x80FF,
		0x00FF00FF00FF00FF,
		0x7FFFFFFFFFFFFFFF,
		0x0000000000008000,
		-1,
		math.MinInt64,
		-0x80,
	}
	recs := make([][]byte, len(stamps))
	for i, ts := range stamps {
		recs[i] = EncodeRecord(ts, "")
	}
	sort.Slice(recs, func(i, j int) bool { return CompareRecords(recs[i], recs[j], Ascending) < 0 })

	var prev int64 = math.MinInt64
	for i, r := range recs {
		ts, _, err := DecodeRecord(r)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if i > 0 && ts < prev {
			t.Fatalf("ascending order broken at %d: %d after %d", i, ts, prev)
		}
		prev = ts
	}
}

func TestCompareRecordsPairs(t *testing.T) {
	cases := []struct {
		a, b int64
		want int
	}{
		{100, 200, -1},
		{200, 100, 1},
		{5, 5, 0},
		{0x7F, 0x80, -1},
		{0xFF, 0x0100, -1},
		{-1, 0, -1},
		{math.MinInt64, math.MaxInt64, -1},
	}
	for _, c := range cases {
		a, b := EncodeRecord(c.a, "x"), EncodeRecord(c.b, "different text")
		if got := CompareRecords(a, b, Ascending); got != c.want {
			t.Fatalf("asc(%d,%d) = %d want %d", c.a, c.b, got, c.want)
		}
		if got := CompareRecords(a, b, Descending); got != -c.want {
			t.Fatalf("desc(%d,%d) = %d want %d", c.a, c.b, got, -c.want)
		}
	}
}

func TestCompareRecordsShort(t *testing.T) {
	short := []byte{0xff}
	ok := EncodeRecord(math.MinInt64, "")
	if CompareRecords(short, ok, Ascending) != -1 || CompareRecords(ok, short, Ascending) != 1 {
		t.Fatalf("short records must sort first ascending")
	}
	if CompareRecords(short, []byte{}, Ascending) != 0 {
		t.Fatalf("two short records compare equal")
	}
}

func TestOrderHelpers(t *testing.T) {
	if Ascending.Reverse() != Descending || Descending.Reverse() != Ascending {
		t.Fatalf("Reverse")
	}
	for in, want := range map[string]Order{"": Ascending, "asc": Ascending, "desc": Descending, "descending": Descending} {
		got, ok := ParseOrder(in)
		if !ok || got != want {
			t.Fatalf("ParseOrder(%q) = %v,%v", in, got, ok)
		}
	}
	if _, ok := ParseOrder("sideways"); ok {
		t.Fatalf("ParseOrder accepted junk")
	}
}
