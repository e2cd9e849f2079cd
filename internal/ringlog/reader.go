package ringlog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/yuuhhe/microlog/internal/recordstore"
	"github.com/yuuhhe/microlog/pkg/log"
)

// Entry is a decoded log record.
type Entry struct {
	ID        recordstore.ID
	Timestamp int64
	Text      string
}

// Reader reads a store's entries in time order. It does not share state
// with any Writer; each call opens its own handle and releases it.
type Reader struct {
	mu     sync.Mutex
	opener recordstore.Opener
	logger log.Logger
	name   string
	order  Order
	filter *Filter
}

// NewReader returns an ascending reader of the named store. A nil logger
// discards diagnostics.
func NewReader(opener recordstore.Opener, name string, logger log.Logger) *Reader {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if name == "" {
		name = DefaultStoreName
	}
	return &Reader{
		opener: opener,
		logger: logger.WithComponent("ringlog.reader"),
		name:   name,
	}
}

func (r *Reader) SetStoreName(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	r.mu.Lock()
	r.name = name
	r.mu.Unlock()
	return nil
}

func (r *Reader) StoreName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

// SetOrder sets the direction used by subsequent reads.
func (r *Reader) SetOrder(o Order) {
	r.mu.Lock()
	r.order = o
	r.mu.Unlock()
}

func (r *Reader) Order() Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order
}

// SwitchOrder flips the read direction and returns the new one.
func (r *Reader) SwitchOrder() Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = r.order.Reverse()
	return r.order
}

// SetFilter installs a CEL predicate for subsequent reads; an empty
// expression removes it.
func (r *Reader) SetFilter(expr string) error {
	f, err := NewFilter(expr)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.filter = f
	r.mu.Unlock()
	return nil
}

func (r *Reader) snapshot() (string, Order, *Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name, r.order, r.filter
}

func (r *Reader) open(name string) (recordstore.Store, error) {
	st, err := r.opener.Open(name, true)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStoreUnavailable, name, err)
	}
	return st, nil
}

// Entries returns a cursor over the store in the configured order. The
// cursor holds a store handle until Close.
func (r *Reader) Entries() (*Entries, error) {
	name, order, filter := r.snapshot()
	st, err := r.open(name)
	if err != nil {
		return nil, err
	}
	opts := order.enumerateOptions()
	opts.KeepUpdated = true
	en, err := st.EnumerateRecords(opts)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("enumerate %s: %w", name, err)
	}
	return &Entries{store: st, en: en, filter: filter, logger: r.logger}, nil
}

// ReadAll renders every entry's text followed by a newline.
func (r *Reader) ReadAll() (string, error) {
	es, err := r.Entries()
	if err != nil {
		return "", err
	}
	defer es.Close()
	var sb strings.Builder
	for ok := es.First(); ok; ok = es.Next() {
		sb.WriteString(es.Entry().Text)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// Clear deletes every record in the store, regardless of any writer.
func (r *Reader) Clear() error {
	name, _, _ := r.snapshot()
	st, err := r.open(name)
	if err != nil {
		return err
	}
	defer st.Close()
	return clearStore(st, r.logger)
}

// Count returns the number of records in the store.
func (r *Reader) Count() (int, error) {
	name, _, _ := r.snapshot()
	st, err := r.open(name)
	if err != nil {
		return 0, err
	}
	defer st.Close()
	return st.NumRecords()
}

// Size returns the store's payload bytes, or SizeUndefined when it holds no
// records.
func (r *Reader) Size() (int64, error) {
	name, _, _ := r.snapshot()
	st, err := r.open(name)
	if err != nil {
		return SizeUndefined, err
	}
	defer st.Close()
	n, err := st.NumRecords()
	if err != nil {
		return SizeUndefined, err
	}
	if n == 0 {
		return SizeUndefined, nil
	}
	return st.Size()
}

// Entries is a lazy, restartable cursor of decoded entries. Records that
// fail to decode are reported and skipped. First re-reads the store.
type Entries struct {
	store  recordstore.Store
	en     *recordstore.Enumeration
	filter *Filter
	logger log.Logger
	cur    Entry
	valid  bool
}

// First positions the cursor on the first decodable entry.
func (e *Entries) First() bool {
	return e.settle(e.en.First())
}

// Next advances to the following decodable entry.
func (e *Entries) Next() bool {
	if !e.valid {
		return false
	}
	return e.settle(e.en.Next())
}

func (e *Entries) settle(ok bool) bool {
	for ; ok; ok = e.en.Next() {
		ts, text, err := DecodeRecord(e.en.Record())
		if err != nil {
			e.logger.Warn("skipping record",
				log.Store(e.store.Name()), log.Uint64("id", uint64(e.en.ID())), log.Err(err))
			continue
		}
		ent := Entry{ID: e.en.ID(), Timestamp: ts, Text: text}
		if !e.filter.Match(ent) {
			continue
		}
		e.cur = ent
		e.valid = true
		return true
	}
	e.cur = Entry{}
	e.valid = false
	return false
}

func (e *Entries) Valid() bool  { return e.valid }
func (e *Entries) Entry() Entry { return e.cur }

// Err reports a failure to re-read the store on First.
func (e *Entries) Err() error { return e.en.Err() }

// Close releases the enumeration and the store handle.
func (e *Entries) Close() error {
	_ = e.en.Close()
	return e.store.Close()
}
