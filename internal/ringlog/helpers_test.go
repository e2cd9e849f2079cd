package ringlog

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/yuuhhe/microlog/internal/recordstore"
	boltstore "github.com/yuuhhe/microlog/internal/storage/bolt"
	"github.com/yuuhhe/microlog/internal/storage/memstore"
	pebblestore "github.com/yuuhhe/microlog/internal/storage/pebble"
	"github.com/yuuhhe/microlog/pkg/log"
)

type backend struct {
	name string
	open func(t *testing.T) recordstore.Opener
}

var backends = []backend{
	{"memory", func(t *testing.T) recordstore.Opener { return memstore.New() }},
	{"pebble", func(t *testing.T) recordstore.Opener {
		db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
		if err != nil {
			t.Fatalf("pebble open: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		return pebblestore.NewStores(db)
	}},
	{"bolt", func(t *testing.T) recordstore.Opener {
		s, err := boltstore.Open(boltstore.Options{Path: filepath.Join(t.TempDir(), "log.db"), NoSync: true})
		if err != nil {
			t.Fatalf("bolt open: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	}},
}

// forEachBackend runs fn once per store backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, opener recordstore.Opener)) {
	for _, b := range backends {
		b := b
		t.Run(b.name, func(t *testing.T) { fn(t, b.open(t)) })
	}
}

type captureOutput struct {
	mu      sync.Mutex
	entries []*log.Entry
}

func (c *captureOutput) Write(e *log.Entry, _ []byte) error {
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
	return nil
}
func (c *captureOutput) Close() error { return nil }

// errorsMatching counts captured entries whose error matches target.
func (c *captureOutput) errorsMatching(target error) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.Error != nil && errors.Is(e.Error, target) {
			n++
		}
	}
	return n
}

func newCaptureLogger() (log.Logger, *captureOutput) {
	out := &captureOutput{}
	return log.NewLogger(log.WithLevel(log.DebugLevel), log.WithOutput(out)), out
}

func openWriter(t *testing.T, opener recordstore.Opener, capacity int, opts ...WriterOption) *Writer {
	t.Helper()
	w := NewWriter(opener, opts...)
	if err := w.Configure("test", capacity); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := w.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

// storeContents returns every decoded entry in ascending order.
func storeContents(t *testing.T, opener recordstore.Opener, name string) []Entry {
	t.Helper()
	es, err := NewReader(opener, name, nil).Entries()
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	defer es.Close()
	var out []Entry
	for ok := es.First(); ok; ok = es.Next() {
		out = append(out, es.Entry())
	}
	return out
}

// faultyOpener wraps stores so adds or deletes can be made to fail.
type faultyOpener struct {
	recordstore.Opener
	mu          sync.Mutex
	failAdds    bool
	failDeletes bool
	failOpen    bool
}

var errInjected = errors.New("injected fault")

func (f *faultyOpener) Open(name string, create bool) (recordstore.Store, error) {
	f.mu.Lock()
	fail := f.failOpen
	f.mu.Unlock()
	if fail {
		return nil, errInjected
	}
	st, err := f.Opener.Open(name, create)
	if err != nil {
		return nil, err
	}
	return &faultyStore{Store: st, f: f}, nil
}

func (f *faultyOpener) set(adds, deletes bool) {
	f.mu.Lock()
	f.failAdds, f.failDeletes = adds, deletes
	f.mu.Unlock()
}

type faultyStore struct {
	recordstore.Store
	f *faultyOpener
}

func (s *faultyStore) AddRecord(b []byte) (recordstore.ID, error) {
	s.f.mu.Lock()
	fail := s.f.failAdds
	s.f.mu.Unlock()
	if fail {
		return 0, errInjected
	}
	return s.Store.AddRecord(b)
}

func (s *faultyStore) DeleteRecord(id recordstore.ID) error {
	s.f.mu.Lock()
	fail := s.f.failDeletes
	s.f.mu.Unlock()
	if fail {
		return errInjected
	}
	return s.Store.DeleteRecord(id)
}
