package microlog

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/yuuhhe/microlog/internal/recordstore"
	"github.com/yuuhhe/microlog/internal/ringlog"
	"github.com/yuuhhe/microlog/pkg/log"
)

// Appender property names.
const (
	PropertyStoreName  = "recordStoreName"
	PropertyMaxEntries = "maxRecordStoreEntries"
)

// DefaultMaxEntries is the window size used unless configured.
const DefaultMaxEntries = ringlog.DefaultCapacity

// RecordStoreAppender formats log calls and keeps the most recent
// entries in a record store.
type RecordStoreAppender struct {
	mu        sync.Mutex
	writer    *ringlog.Writer
	formatter Formatter
	logger    log.Logger
}

// AppenderOption configures a RecordStoreAppender.
type AppenderOption func(*RecordStoreAppender)

// WithFormatter replaces the default SimpleFormatter. A nil formatter
// disables DoLog.
func WithFormatter(f Formatter) AppenderOption {
	return func(a *RecordStoreAppender) { a.formatter = f }
}

// WithLogger sets where dropped entries and store faults are reported.
func WithLogger(l log.Logger) AppenderOption {
	return func(a *RecordStoreAppender) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewRecordStoreAppender returns a closed appender over stores from opener.
func NewRecordStoreAppender(opener recordstore.Opener, opts ...AppenderOption) *RecordStoreAppender {
	a := &RecordStoreAppender{
		formatter: SimpleFormatter{},
		logger:    log.NewNopLogger(),
	}
	for _, o := range opts {
		o(a)
	}
	a.writer = ringlog.NewWriter(opener, ringlog.WithLogger(a.logger))
	return a
}

// Open opens the record store and rebuilds the window from it.
func (a *RecordStoreAppender) Open() error { return a.writer.Open() }

// Close releases the record store. Stored entries are kept.
func (a *RecordStoreAppender) Close() error { return a.writer.Close() }

// Clear removes every stored entry.
func (a *RecordStoreAppender) Clear() { a.writer.Clear() }

// IsOpen reports whether DoLog will store entries.
func (a *RecordStoreAppender) IsOpen() bool { return a.writer.State() == ringlog.StateOpen }

// LogSize returns the stored bytes, or ringlog.SizeUndefined.
func (a *RecordStoreAppender) LogSize() int64 { return a.writer.Size() }

// Count returns the number of stored entries.
func (a *RecordStoreAppender) Count() int { return a.writer.Count() }

func (a *RecordStoreAppender) SetFormatter(f Formatter) {
	a.mu.Lock()
	a.formatter = f
	a.mu.Unlock()
}

func (a *RecordStoreAppender) Formatter() Formatter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.formatter
}

// DoLog formats and stores one entry. It does nothing when the appender is
// closed or has no formatter.
func (a *RecordStoreAppender) DoLog(clientID, name string, ts int64, level Level, message any, err error) {
	f := a.Formatter()
	if f == nil {
		return
	}
	a.writer.Append(ts, f.Format(clientID, name, ts, level, message, err))
}

// PropertyNames lists the keys SetProperty accepts.
func (a *RecordStoreAppender) PropertyNames() []string {
	return []string{PropertyStoreName, PropertyMaxEntries}
}

// SetProperty applies a string-valued setting. Settings take effect on the
// next Open; they are ignored while the appender is open.
func (a *RecordStoreAppender) SetProperty(key, value string) error {
	switch key {
	case PropertyStoreName:
		return a.SetRecordStoreName(value)
	case PropertyMaxEntries:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ringlog.ErrInvalidConfiguration, key, value, err)
		}
		return a.SetMaxRecordStoreEntries(n)
	default:
		return fmt.Errorf("%w: unknown property %q", ringlog.ErrInvalidConfiguration, key)
	}
}

func (a *RecordStoreAppender) SetRecordStoreName(name string) error {
	return a.writer.SetStoreName(name)
}

func (a *RecordStoreAppender) RecordStoreName() string { return a.writer.StoreName() }

func (a *RecordStoreAppender) SetMaxRecordStoreEntries(n int) error {
	return a.writer.SetCapacity(n)
}

func (a *RecordStoreAppender) MaxRecordStoreEntries() int { return a.writer.Capacity() }
