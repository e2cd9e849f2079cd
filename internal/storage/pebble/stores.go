package pebblestore

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/yuuhhe/microlog/internal/recordstore"
)

// Stores opens named record stores inside one DB. It implements
// recordstore.Opener, Lister and Remover.
type Stores struct {
	db *DB
	// mu serializes ID assignment and store creation/removal.
	mu sync.Mutex
}

// NewStores returns an opener over db.
func NewStores(db *DB) *Stores {
	return &Stores{db: db}
}

var (
	_ recordstore.Opener  = (*Stores)(nil)
	_ recordstore.Lister  = (*Stores)(nil)
	_ recordstore.Remover = (*Stores)(nil)
)

// Open returns a handle for name, creating the store when createIfMissing.
func (s *Stores) Open(name string, createIfMissing bool) (recordstore.Store, error) {
	if err := recordstore.ValidateName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.db.has(keyMeta(name))
	if err != nil {
		return nil, err
	}
	if !ok {
		if !createIfMissing {
			return nil, fmt.Errorf("%w: %s", recordstore.ErrStoreNotFound, name)
		}
		b := s.db.inner.NewBatch()
		defer b.Close()
		if err := b.Set(keyMeta(name), encodeID(0), nil); err != nil {
			return nil, err
		}
		if err := s.db.commit(b, 1); err != nil {
			return nil, err
		}
	}
	return &store{stores: s, name: name}, nil
}

// ListStores returns every store name in key order.
func (s *Stores) ListStores() ([]string, error) {
	iter, err := s.db.inner.NewIter(&pebble.IterOptions{
		LowerBound: storesPrefix,
		UpperBound: prefixEnd(storesPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var names []string
	for ok := iter.First(); ok; {
		rest := iter.Key()[len(storesPrefix):]
		i := indexByte(rest, '/')
		if i <= 0 {
			ok = iter.Next()
			continue
		}
		name := string(rest[:i])
		if string(rest[i:]) == string(metaSuffix) {
			names = append(names, name)
		}
		// skip the rest of this store's keys
		ok = iter.SeekGE(prefixEnd(keyStorePrefix(name)))
	}
	return names, iter.Error()
}

// DeleteStore removes a store and all its records.
func (s *Stores) DeleteStore(name string) error {
	if err := recordstore.ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.db.has(keyMeta(name))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", recordstore.ErrStoreNotFound, name)
	}
	prefix := keyStorePrefix(name)
	b := s.db.inner.NewBatch()
	defer b.Close()
	if err := b.DeleteRange(prefix, prefixEnd(prefix), nil); err != nil {
		return err
	}
	return s.db.commit(b, 1)
}

func indexByte(b []byte, c byte) int {
	for i := range b {
		if b[i] == c {
			return i
		}
	}
	return -1
}

type store struct {
	stores *Stores
	name   string
	closed atomic.Bool
}

func (st *store) Name() string { return st.name }

func (st *store) check() error {
	if st.closed.Load() {
		return recordstore.ErrNotOpen
	}
	return nil
}

func (st *store) AddRecord(data []byte) (recordstore.ID, error) {
	if err := st.check(); err != nil {
		return 0, err
	}
	start := time.Now()
	s := st.stores
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.db.get(keyMeta(st.name))
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, fmt.Errorf("%w: %s", recordstore.ErrStoreNotFound, st.name)
	}
	if err != nil {
		return 0, err
	}
	id := decodeID(meta) + 1

	b := s.db.inner.NewBatch()
	defer b.Close()
	if err := b.Set(keyRecord(st.name, id), data, nil); err != nil {
		return 0, err
	}
	if err := b.Set(keyMeta(st.name), encodeID(id), nil); err != nil {
		return 0, err
	}
	if err := s.db.commit(b, 2); err != nil {
		return 0, err
	}
	s.db.metrics.ObserveWrite(time.Since(start), len(data))
	return recordstore.ID(id), nil
}

func (st *store) DeleteRecord(id recordstore.ID) error {
	if err := st.check(); err != nil {
		return err
	}
	s := st.stores
	s.mu.Lock()
	defer s.mu.Unlock()
	key := keyRecord(st.name, uint64(id))
	ok, err := s.db.has(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", recordstore.ErrInvalidRecordID, id)
	}
	b := s.db.inner.NewBatch()
	defer b.Close()
	if err := b.Delete(key, nil); err != nil {
		return err
	}
	return s.db.commit(b, 1)
}

func (st *store) GetRecord(id recordstore.ID) ([]byte, error) {
	if err := st.check(); err != nil {
		return nil, err
	}
	v, err := st.stores.db.get(keyRecord(st.name, uint64(id)))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", recordstore.ErrInvalidRecordID, id)
	}
	return v, err
}

// Scan walks the store's records in ID order over a point-in-time iterator.
func (st *store) Scan(fn func(id recordstore.ID, data []byte) bool) error {
	if err := st.check(); err != nil {
		return err
	}
	prefix := keyRecordPrefix(st.name)
	iter, err := st.stores.db.inner.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()
	for ok := iter.First(); ok; ok = iter.Next() {
		id := decodeID(iter.Key()[len(prefix):])
		if !fn(recordstore.ID(id), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

func (st *store) EnumerateRecords(opts recordstore.EnumerateOptions) (*recordstore.Enumeration, error) {
	if err := st.check(); err != nil {
		return nil, err
	}
	return recordstore.NewEnumeration(st, opts)
}

func (st *store) NumRecords() (int, error) {
	n := 0
	err := st.Scan(func(recordstore.ID, []byte) bool {
		n++
		return true
	})
	return n, err
}

func (st *store) Size() (int64, error) {
	var total int64
	err := st.Scan(func(_ recordstore.ID, data []byte) bool {
		total += int64(len(data))
		return true
	})
	return total, err
}

func (st *store) Close() error {
	st.closed.Store(true)
	return nil
}
