// Package boltstore keeps record stores in a bbolt file, one bucket per
// store. Record IDs come from the bucket sequence and are never reused.
package boltstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/yuuhhe/microlog/internal/recordstore"
)

// Options configures the bbolt file.
type Options struct {
	// Path is the database file. Required.
	Path string
	// Timeout bounds waiting for the file lock held by another process.
	Timeout time.Duration
	// NoSync skips fsync after each commit.
	NoSync bool
}

// Stores opens named record stores inside one bbolt file. bbolt locks the
// file, so a process opens it once and shares the handles.
type Stores struct {
	db *bolt.DB
}

var (
	_ recordstore.Opener  = (*Stores)(nil)
	_ recordstore.Lister  = (*Stores)(nil)
	_ recordstore.Remover = (*Stores)(nil)
)

// Open opens or creates the bbolt file.
func Open(opts Options) (*Stores, error) {
	if opts.Path == "" {
		return nil, errors.New("bolt: Options.Path is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(opts.Path, 0o600, &bolt.Options{Timeout: timeout, NoSync: opts.NoSync})
	if err != nil {
		return nil, err
	}
	return &Stores{db: db}, nil
}

// Close closes the file.
func (s *Stores) Close() error { return s.db.Close() }

// Open returns a handle for name, creating the bucket when createIfMissing.
func (s *Stores) Open(name string, createIfMissing bool) (recordstore.Store, error) {
	if err := recordstore.ValidateName(name); err != nil {
		return nil, err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(name)) != nil {
			return nil
		}
		if !createIfMissing {
			return fmt.Errorf("%w: %s", recordstore.ErrStoreNotFound, name)
		}
		_, err := tx.CreateBucket([]byte(name))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &store{db: s.db, name: name}, nil
}

// ListStores returns every bucket name.
func (s *Stores) ListStores() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

// DeleteStore drops the store's bucket.
func (s *Stores) DeleteStore(name string) error {
	if err := recordstore.ValidateName(name); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(name))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return fmt.Errorf("%w: %s", recordstore.ErrStoreNotFound, name)
		}
		return err
	})
}

type store struct {
	db     *bolt.DB
	name   string
	closed atomic.Bool
}

func key(id recordstore.ID) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

func (st *store) Name() string { return st.name }

func (st *store) bucket(tx *bolt.Tx) (*bolt.Bucket, error) {
	b := tx.Bucket([]byte(st.name))
	if b == nil {
		return nil, fmt.Errorf("%w: %s", recordstore.ErrStoreNotFound, st.name)
	}
	return b, nil
}

func (st *store) update(fn func(b *bolt.Bucket) error) error {
	if st.closed.Load() {
		return recordstore.ErrNotOpen
	}
	return st.db.Update(func(tx *bolt.Tx) error {
		b, err := st.bucket(tx)
		if err != nil {
			return err
		}
		return fn(b)
	})
}

func (st *store) view(fn func(b *bolt.Bucket) error) error {
	if st.closed.Load() {
		return recordstore.ErrNotOpen
	}
	return st.db.View(func(tx *bolt.Tx) error {
		b, err := st.bucket(tx)
		if err != nil {
			return err
		}
		return fn(b)
	})
}

func (st *store) AddRecord(data []byte) (recordstore.ID, error) {
	var id recordstore.ID
	err := st.update(func(b *bolt.Bucket) error {
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = recordstore.ID(seq)
		return b.Put(key(id), data)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (st *store) DeleteRecord(id recordstore.ID) error {
	return st.update(func(b *bolt.Bucket) error {
		k := key(id)
		if b.Get(k) == nil {
			return fmt.Errorf("%w: %d", recordstore.ErrInvalidRecordID, id)
		}
		return b.Delete(k)
	})
}

func (st *store) GetRecord(id recordstore.ID) ([]byte, error) {
	var out []byte
	err := st.view(func(b *bolt.Bucket) error {
		v := b.Get(key(id))
		if v == nil {
			return fmt.Errorf("%w: %d", recordstore.ErrInvalidRecordID, id)
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

// Scan walks records in ID order inside a read transaction.
func (st *store) Scan(fn func(id recordstore.ID, data []byte) bool) error {
	return st.view(func(b *bolt.Bucket) error {
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if !fn(recordstore.ID(binary.BigEndian.Uint64(k)), v) {
				break
			}
		}
		return nil
	})
}

func (st *store) EnumerateRecords(opts recordstore.EnumerateOptions) (*recordstore.Enumeration, error) {
	if st.closed.Load() {
		return nil, recordstore.ErrNotOpen
	}
	return recordstore.NewEnumeration(st, opts)
}

func (st *store) NumRecords() (int, error) {
	n := 0
	err := st.view(func(b *bolt.Bucket) error {
		n = b.Stats().KeyN
		return nil
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
