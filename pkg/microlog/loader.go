package microlog

import (
	"github.com/yuuhhe/microlog/internal/recordstore"
	"github.com/yuuhhe/microlog/internal/ringlog"
	"github.com/yuuhhe/microlog/pkg/log"
)

// SortOrder is the direction LogLoader reads entries in.
type SortOrder = ringlog.Order

const (
	Ascending  = ringlog.Ascending
	Descending = ringlog.Descending
)

// LogLoader reads stored entries for display. Failures are reported to
// its logger and yield empty results.
type LogLoader struct {
	reader *ringlog.Reader
	logger log.Logger
}

// NewLogLoader returns an ascending loader for the default store.
func NewLogLoader(opener recordstore.Opener, logger log.Logger) *LogLoader {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &LogLoader{
		reader: ringlog.NewReader(opener, DefaultStoreName, logger),
		logger: logger.WithComponent("microlog.loader"),
	}
}

// SetRecordStoreName selects the store by its exact name. A name no backend
// can hold is rejected with ringlog.ErrInvalidConfiguration and the
// previous selection is kept.
func (l *LogLoader) SetRecordStoreName(name string) error {
	return l.reader.SetStoreName(name)
}

func (l *LogLoader) RecordStoreName() string { return l.reader.StoreName() }

// LogContent returns every entry followed by a newline, in the current
// sort order.
func (l *LogLoader) LogContent() string {
	s, err := l.reader.ReadAll()
	if err != nil {
		l.logger.Warn("read log failed", log.Store(l.reader.StoreName()), log.Err(err))
		return ""
	}
	return s
}

// Entries exposes the decoded entries in the current sort order.
func (l *LogLoader) Entries() ([]ringlog.Entry, error) {
	es, err := l.reader.Entries()
	if err != nil {
		return nil, err
	}
	defer es.Close()
	var out []ringlog.Entry
	for ok := es.First(); ok; ok = es.Next() {
		out = append(out, es.Entry())
	}
	return out, nil
}

// ClearLog deletes every stored entry.
func (l *LogLoader) ClearLog() {
	if err := l.reader.Clear(); err != nil {
		l.logger.Warn("clear log failed", log.Store(l.reader.StoreName()), log.Err(err))
	}
}

// NumLogItems returns the number of stored entries, 0 on failure.
func (l *LogLoader) NumLogItems() int {
	n, err := l.reader.Count()
	if err != nil {
		l.logger.Warn("count failed", log.Store(l.reader.StoreName()), log.Err(err))
		return 0
	}
	return n
}

// LogSize returns the store's payload bytes, or ringlog.SizeUndefined when it is
// empty or cannot be read.
func (l *LogLoader) LogSize() int64 {
	n, err := l.reader.Size()
	if err != nil {
		l.logger.Warn("size failed", log.Store(l.reader.StoreName()), log.Err(err))
		return ringlog.SizeUndefined
	}
	return n
}

// SwitchSortOrder toggles between ascending and descending.
func (l *LogLoader) SwitchSortOrder() SortOrder { return l.reader.SwitchOrder() }

func (l *LogLoader) SetSortOrder(o SortOrder) { l.reader.SetOrder(o) }

func (l *LogLoader) SortOrder() SortOrder { return l.reader.Order() }

// SetFilter restricts reads to entries matching a CEL expression over ts
// and text; empty clears it.
func (l *LogLoader) SetFilter(expr string) error { return l.reader.SetFilter(expr) }
