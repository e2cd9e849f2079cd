package ringlog

import (
	"fmt"
	"sync"

	"github.com/yuuhhe/microlog/internal/recordstore"
	"github.com/yuuhhe/microlog/pkg/log"
)

const (
	DefaultStoreName = "microlog"
	DefaultCapacity  = 20
)

// State is the Writer lifecycle state.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Writer appends entries to a named record store, keeping at most
// Capacity of them. Every method runs under one mutex and blocks until the
// store I/O completes.
type Writer struct {
	mu       sync.Mutex
	opener   recordstore.Opener
	logger   log.Logger
	name     string
	capacity int
	state    State
	store    recordstore.Store
	ring     *ring
}

// WriterOption configures a Writer at construction.
type WriterOption func(*Writer)

// WithLogger sets the diagnostic sink for dropped appends and failed
// evictions.
func WithLogger(l log.Logger) WriterOption {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWriter returns a closed writer over stores from opener, configured
// with DefaultStoreName and DefaultCapacity.
func NewWriter(opener recordstore.Opener, opts ...WriterOption) *Writer {
	w := &Writer{
		opener:   opener,
		logger:   log.NewNopLogger(),
		name:     DefaultStoreName,
		capacity: DefaultCapacity,
	}
	for _, o := range opts {
		o(w)
	}
	w.logger = w.logger.WithComponent("ringlog.writer")
	return w
}

// Configure sets the store name and capacity. Invalid values are rejected;
// valid values are ignored unless the writer is closed.
func (w *Writer) Configure(name string, capacity int) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateCapacity(capacity); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateClosed {
		w.logger.Debug("configure ignored while open", log.Store(w.name))
		return nil
	}
	w.name = name
	w.capacity = capacity
	return nil
}

// SetCapacity changes only the capacity; see Configure.
func (w *Writer) SetCapacity(capacity int) error {
	w.mu.Lock()
	name := w.name
	w.mu.Unlock()
	return w.Configure(name, capacity)
}

// SetStoreName changes only the store name; see Configure.
func (w *Writer) SetStoreName(name string) error {
	w.mu.Lock()
	capacity := w.capacity
	w.mu.Unlock()
	return w.Configure(name, capacity)
}

func validateName(name string) error {
	if err := recordstore.ValidateName(name); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

func validateCapacity(capacity int) error {
	if capacity < 1 {
		return fmt.Errorf("%w: capacity %d must be positive", ErrInvalidConfiguration, capacity)
	}
	return nil
}

// Open opens the store, creating it if needed, and rebuilds the ring from
// its contents. Opening an open writer does nothing.
func (w *Writer) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateOpen {
		return nil
	}
	w.state = StateOpening
	st, err := w.opener.Open(w.name, true)
	if err != nil {
		w.state = StateClosed
		return fmt.Errorf("%w: open %s: %w", ErrStoreUnavailable, w.name, err)
	}
	r, deleted, err := reconstruct(st, w.capacity, w.logger)
	if err != nil {
		_ = st.Close()
		w.state = StateClosed
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	w.store = st
	w.ring = r
	w.state = StateOpen
	w.logger.Debug("opened",
		log.Store(w.name), log.Int("capacity", w.capacity),
		log.Int("live", len(r.live())), log.Int("evicted", deleted))
	return nil
}

// Append writes one entry, evicting the oldest once the window is full.
// It does nothing unless the writer is open. Failures are reported to the
// logger and never returned.
func (w *Writer) Append(ts int64, text string) {
	rec := EncodeRecord(ts, text)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateOpen {
		return
	}
	if victim, ok := w.ring.victim(); ok {
		if err := w.store.DeleteRecord(victim); err != nil {
			w.logger.Warn("evict failed",
				log.Store(w.name), log.Uint64("id", uint64(victim)),
				log.Err(fmt.Errorf("%w: evict %d: %w", ErrAppendFailed, victim, err)))
		} else {
			w.ring.evicted()
		}
	}
	id, err := w.store.AddRecord(rec)
	if err != nil {
		w.logger.Warn("entry dropped",
			log.Store(w.name), log.Int64("ts", ts),
			log.Err(fmt.Errorf("%w: write: %w", ErrAppendFailed, err)))
		return
	}
	w.ring.push(id)
}

// Clear deletes every record in the store and empties the ring.
func (w *Writer) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateOpen {
		return
	}
	if err := clearStore(w.store, w.logger); err != nil {
		w.logger.Warn("clear failed", log.Store(w.name), log.Err(err))
	}
	w.ring.reset()
}

// Close releases the store handle. Records stay in the store; the ring is
// discarded and rebuilt by the next Open.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return nil
	}
	err := w.store.Close()
	w.store = nil
	w.ring = nil
	w.state = StateClosed
	if err != nil {
		return fmt.Errorf("close %s: %w", w.name, err)
	}
	return nil
}

// Size returns the store's payload bytes, or SizeUndefined when the writer
// is not open or the store holds no records.
func (w *Writer) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateOpen {
		return SizeUndefined
	}
	n, err := w.store.NumRecords()
	if err != nil || n == 0 {
		return SizeUndefined
	}
	size, err := w.store.Size()
	if err != nil {
		w.logger.Debug("size unavailable", log.Store(w.name), log.Err(err))
		return SizeUndefined
	}
	return size
}

// Count returns the number of records in the store, or 0 when closed.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateOpen {
		return 0
	}
	n, err := w.store.NumRecords()
	if err != nil {
		return 0
	}
	return n
}

func (w *Writer) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Writer) Capacity() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.capacity
}

func (w *Writer) StoreName() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.name
}

// liveIDs exposes the ring, oldest first.
func (w *Writer) liveIDs() []recordstore.ID {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ring == nil {
		return nil
	}
	return w.ring.live()
}

// clearStore deletes every record in st. Records another handle removes
// mid-way are not an error.
func clearStore(st recordstore.Store, logger log.Logger) error {
	en, err := st.EnumerateRecords(recordstore.EnumerateOptions{})
	if err != nil {
		return err
	}
	defer en.Close()
	for _, id := range en.IDs() {
		if err := st.DeleteRecord(id); err != nil {
			logger.Debug("clear: delete failed",
				log.Store(st.Name()), log.Uint64("id", uint64(id)), log.Err(err))
		}
	}
	return nil
}
