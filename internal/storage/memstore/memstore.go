// Package memstore is an in-memory record store backend. Store names live
// in an adaptive radix tree and each store's records in a B-tree keyed by
// ID. An optional byte quota makes it useful for exercising store-full
// paths.
package memstore

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/btree"
	art "github.com/plar/go-adaptive-radix-tree"

	"github.com/yuuhhe/microlog/internal/recordstore"
)

const btreeDegree = 32

type item struct {
	id   recordstore.ID
	data []byte
}

func lessItem(a, b item) bool { return a.id < b.id }

type table struct {
	tree   *btree.BTreeG[item]
	nextID recordstore.ID
	bytes  int64
}

// Stores is a set of in-memory record stores sharing one optional quota.
type Stores struct {
	mu       sync.RWMutex
	names    art.Tree
	maxBytes int64
	used     int64
}

var (
	_ recordstore.Opener  = (*Stores)(nil)
	_ recordstore.Lister  = (*Stores)(nil)
	_ recordstore.Remover = (*Stores)(nil)
)

// Option configures Stores.
type Option func(*Stores)

// WithMaxBytes caps the payload bytes held across all stores. Zero means
// unlimited.
func WithMaxBytes(n int64) Option {
	return func(s *Stores) { s.maxBytes = n }
}

// New returns an empty set of stores.
func New(opts ...Option) *Stores {
	s := &Stores{names: art.New()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Stores) lookup(name string) (*table, bool) {
	v, ok := s.names.Search(art.Key(name))
	if !ok {
		return nil, false
	}
	return v.(*table), true
}

// Open returns a handle for name, creating the store when createIfMissing.
func (s *Stores) Open(name string, createIfMissing bool) (recordstore.Store, error) {
	if err := recordstore.ValidateName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(name); !ok {
		if !createIfMissing {
			return nil, fmt.Errorf("%w: %s", recordstore.ErrStoreNotFound, name)
		}
		s.names.Insert(art.Key(name), &table{tree: btree.NewG[item](btreeDegree, lessItem)})
	}
	return &store{stores: s, name: name}, nil
}

// ListStores returns store names in lexical order.
func (s *Stores) ListStores() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, s.names.Size())
	s.names.ForEach(func(n art.Node) bool {
		names = append(names, string(n.Key()))
		return true
	}, art.TraverseLeaf)
	return names, nil
}

// DeleteStore drops a store and returns its bytes to the quota.
func (s *Stores) DeleteStore(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", recordstore.ErrStoreNotFound, name)
	}
	s.used -= t.bytes
	s.names.Delete(art.Key(name))
	return nil
}

// Used reports the payload bytes held across all stores.
func (s *Stores) Used() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}

type store struct {
	stores *Stores
	name   string
	closed atomic.Bool
}

func (st *store) Name() string { return st.name }

func (st *store) table() (*table, error) {
	if st.closed.Load() {
		return nil, recordstore.ErrNotOpen
	}
	t, ok := st.stores.lookup(st.name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", recordstore.ErrStoreNotFound, st.name)
	}
	return t, nil
}

func (st *store) AddRecord(data []byte) (recordstore.ID, error) {
	s := st.stores
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := st.table()
	if err != nil {
		return 0, err
	}
	n := int64(len(data))
	if s.maxBytes > 0 && s.used+n > s.maxBytes {
		return 0, fmt.Errorf("%w: %d of %d bytes used", recordstore.ErrStoreFull, s.used, s.maxBytes)
	}
	t.nextID++
	t.tree.ReplaceOrInsert(item{id: t.nextID, data: append([]byte(nil), data...)})
	t.bytes += n
	s.used += n
	return t.nextID, nil
}

func (st *store) DeleteRecord(id recordstore.ID) error {
	s := st.stores
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := st.table()
	if err != nil {
		return err
	}
	old, ok := t.tree.Delete(item{id: id})
	if !ok {
		return fmt.Errorf("%w: %d", recordstore.ErrInvalidRecordID, id)
	}
	t.bytes -= int64(len(old.data))
	s.used -= int64(len(old.data))
	return nil
}

func (st *store) GetRecord(id recordstore.ID) ([]byte, error) {
	st.stores.mu.RLock()
	defer st.stores.mu.RUnlock()
	t, err := st.table()
	if err != nil {
		return nil, err
	}
	it, ok := t.tree.Get(item{id: id})
	if !ok {
		return nil, fmt.Errorf("%w: %d", recordstore.ErrInvalidRecordID, id)
	}
	return append([]byte(nil), it.data...), nil
}

// Scan walks records in ID order under the read lock.
func (st *store) Scan(fn func(id recordstore.ID, data []byte) bool) error {
	st.stores.mu.RLock()
	defer st.stores.mu.RUnlock()
	t, err := st.table()
	if err != nil {
		return err
	}
	t.tree.Ascend(func(it item) bool { return fn(it.id, it.data) })
	return nil
}

func (st *store) EnumerateRecords(opts recordstore.EnumerateOptions) (*recordstore.Enumeration, error) {
	if st.closed.Load() {
		return nil, recordstore.ErrNotOpen
	}
	return recordstore.NewEnumeration(st, opts)
}

func (st *store) NumRecords() (int, error) {
	st.stores.mu.RLock()
	defer st.stores.mu.RUnlock()
	t, err := st.table()
	if err != nil {
		return 0, err
	}
	return t.tree.Len(), nil
}

func (st *store) Size() (int64, error) {
	st.stores.mu.RLock()
	defer st.stores.mu.RUnlock()
	t, err := st.table()
	if err != nil {
		return 0, err
	}
	return t.bytes, nil
}

func (st *store) Close() error {
	st.closed.Store(true)
	return nil
}
