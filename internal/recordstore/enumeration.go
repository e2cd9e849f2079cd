package recordstore

import "sort"

type entry struct {
	id   ID
	data []byte
}

// Enumeration is a restartable cursor over a store's records, shaped like
// a Pebble iterator: First/Next position it, Valid reports whether it sits
// on a record.
type Enumeration struct {
	src    Scanner
	opts   EnumerateOptions
	items  []entry
	pos    int
	built  bool
	err    error
	closed bool
}

// NewEnumeration builds an enumeration over src. Backends call this from
// their EnumerateRecords.
func NewEnumeration(src Scanner, opts EnumerateOptions) (*Enumeration, error) {
	e := &Enumeration{src: src, opts: opts, pos: -1}
	if err := e.rebuild(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Enumeration) rebuild() error {
	items := e.items[:0]
	err := e.src.Scan(func(id ID, data []byte) bool {
		if e.opts.Filter != nil && !e.opts.Filter(data) {
			return true
		}
		items = append(items, entry{id: id, data: append([]byte(nil), data...)})
		return true
	})
	if err != nil {
		return err
	}
	if cmp := e.opts.Comparator; cmp != nil {
		// stable: records the comparator treats as equal keep scan order
		sort.SliceStable(items, func(i, j int) bool { return cmp(items[i].data, items[j].data) < 0 })
	}
	if e.opts.Reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	e.items = items
	e.built = true
	return nil
}

// First positions the enumeration on the first record. With KeepUpdated
// it first re-reads the store.
func (e *Enumeration) First() bool {
	if e.closed {
		return false
	}
	if e.opts.KeepUpdated && e.built && e.pos >= 0 {
		if err := e.rebuild(); err != nil {
			e.err = err
			e.pos = len(e.items)
			return false
		}
	}
	e.pos = 0
	return e.Valid()
}

// Next advances to the following record.
func (e *Enumeration) Next() bool {
	if e.closed || e.pos >= len(e.items) {
		return false
	}
	e.pos++
	return e.Valid()
}

// Valid reports whether the enumeration is positioned on a record.
func (e *Enumeration) Valid() bool {
	return !e.closed && e.pos >= 0 && e.pos < len(e.items)
}

// ID returns the current record's ID.
func (e *Enumeration) ID() ID {
	if !e.Valid() {
		return 0
	}
	return e.items[e.pos].id
}

// Record returns the current record's bytes. The slice is owned by the
// enumeration.
func (e *Enumeration) Record() []byte {
	if !e.Valid() {
		return nil
	}
	return e.items[e.pos].data
}

// Len returns the number of records in the enumeration.
func (e *Enumeration) Len() int { return len(e.items) }

// IDs returns every record ID in enumeration order.
func (e *Enumeration) IDs() []ID {
	ids := make([]ID, len(e.items))
	for i, it := range e.items {
		ids[i] = it.id
	}
	return ids
}

// Err returns the error from the last rebuild, if any.
func (e *Enumeration) Err() error { return e.err }

// Close releases the snapshot.
func (e *Enumeration) Close() error {
	e.closed = true
	e.items = nil
	return nil
}
