package ringlog

import "github.com/yuuhhe/microlog/internal/recordstore"

// Order is a read direction over record timestamps.
type Order int

const (
	Ascending Order = iota
	Descending
)

func (o Order) String() string {
	if o == Descending {
		return "descending"
	}
	return "ascending"
}

// Reverse returns the opposite direction.
func (o Order) Reverse() Order {
	if o == Descending {
		return Ascending
	}
	return Descending
}

// ParseOrder accepts "asc"/"ascending" and "desc"/"descending".
func ParseOrder(s string) (Order, bool) {
	switch s {
	case "", "asc", "ascending":
		return Ascending, true
	case "desc", "descending":
		return Descending, true
	}
	return Ascending, false
}

// Comparator returns a stateless recordstore comparator for o.
func (o Order) Comparator() recordstore.Comparator {
	return func(a, b []byte) int { return CompareRecords(a, b, o) }
}

// enumerateOptions sorts ascending and walks backwards for Descending, so a
// descending read is the exact reverse of an ascending one, ties included.
func (o Order) enumerateOptions() recordstore.EnumerateOptions {
	return recordstore.EnumerateOptions{
		Comparator: Ascending.Comparator(),
		Reverse:    o == Descending,
	}
}

// recordKey reads the timestamp prefix. Every byte is masked to 0..255
// before shifting so a byte >= 0x80 never sign-extends into the key.
func recordKey(b []byte) (int64, bool) {
	if len(b) < timestampLen {
		return 0, false
	}
	var k uint64
	for i := 0; i < timestampLen; i++ {
		k = k<<8 | uint64(b[i]&0xFF)
	}
	return int64(k), true
}

// CompareRecords orders two encoded records by timestamp: -1 when a comes
// before b in direction o, 1 when after, 0 for equal timestamps. Records too
// short to carry a timestamp sort before all others when ascending.
func CompareRecords(a, b []byte, o Order) int {
	c := compareAscending(a, b)
	if o == Descending {
		return -c
	}
	return c
}

func compareAscending(a, b []byte) int {
	ka, okA := recordKey(a)
	kb, okB := recordKey(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	}
	return 0
}
