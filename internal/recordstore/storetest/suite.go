// Package storetest is a conformance suite shared by the record store
// backends.
package storetest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuuhhe/microlog/internal/recordstore"
)

// NewOpener returns a fresh, empty opener for one subtest.
type NewOpener func(t *testing.T) recordstore.Opener

// Run exercises the recordstore contract against a backend.
func Run(t *testing.T, newOpener NewOpener) {
	t.Run("OpenMissing", func(t *testing.T) { testOpenMissing(t, newOpener(t)) })
	t.Run("AddGetDelete", func(t *testing.T) { testAddGetDelete(t, newOpener(t)) })
	t.Run("IDsUniqueAcrossDeletes", func(t *testing.T) { testIDsUnique(t, newOpener(t)) })
	t.Run("CountAndSize", func(t *testing.T) { testCountAndSize(t, newOpener(t)) })
	t.Run("Enumerate", func(t *testing.T) { testEnumerate(t, newOpener(t)) })
	t.Run("SharedHandles", func(t *testing.T) { testSharedHandles(t, newOpener(t)) })
	t.Run("ClosedHandle", func(t *testing.T) { testClosedHandle(t, newOpener(t)) })
	t.Run("StoresIsolated", func(t *testing.T) { testStoresIsolated(t, newOpener(t)) })
	t.Run("ListAndDelete", func(t *testing.T) { testListAndDelete(t, newOpener(t)) })
}

func open(t *testing.T, o recordstore.Opener, name string) recordstore.Store {
	t.Helper()
	st, err := o.Open(name, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func testOpenMissing(t *testing.T, o recordstore.Opener) {
	_, err := o.Open("absent", false)
	require.ErrorIs(t, err, recordstore.ErrStoreNotFound)

	_, err = o.Open("", true)
	require.ErrorIs(t, err, recordstore.ErrInvalidName)

	st := open(t, o, "present")
	require.Equal(t, "present", st.Name())

	again, err := o.Open("present", false)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func testAddGetDelete(t *testing.T, o recordstore.Opener) {
	st := open(t, o, "s")
	id, err := st.AddRecord([]byte("hello"))
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := st.GetRecord(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	require.NoError(t, st.DeleteRecord(id))
	_, err = st.GetRecord(id)
	require.ErrorIs(t, err, recordstore.ErrInvalidRecordID)
	require.ErrorIs(t, st.DeleteRecord(id), recordstore.ErrInvalidRecordID)
}

func testIDsUnique(t *testing.T, o recordstore.Opener) {
	st := open(t, o, "s")
	seen := map[recordstore.ID]bool{}
	for i := 0; i < 10; i++ {
		id, err := st.AddRecord([]byte{byte(i)})
		require.NoError(t, err)
		require.False(t, seen[id], "id %d reused", id)
		seen[id] = true
		if i%2 == 0 {
			require.NoError(t, st.DeleteRecord(id))
		}
	}
}

func testCountAndSize(t *testing.T, o recordstore.Opener) {
	st := open(t, o, "s")
	n, err := st.NumRecords()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	size, err := st.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)

	a, _ := st.AddRecord([]byte("abc"))
	_, _ = st.AddRecord([]byte("defgh"))
	n, _ = st.NumRecords()
	size, _ = st.Size()
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(8), size)

	require.NoError(t, st.DeleteRecord(a))
	n, _ = st.NumRecords()
	size, _ = st.Size()
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(5), size)
}

func testEnumerate(t *testing.T, o recordstore.Opener) {
	st := open(t, o, "s")
	for _, s := range []string{"b", "c", "a", "zz"} {
		_, err := st.AddRecord([]byte(s))
		require.NoError(t, err)
	}
	en, err := st.EnumerateRecords(recordstore.EnumerateOptions{
		Filter:     func(b []byte) bool { return len(b) == 1 },
		Comparator: bytes.Compare,
	})
	require.NoError(t, err)
	defer en.Close()

	var got []string
	for ok := en.First(); ok; ok = en.Next() {
		got = append(got, string(en.Record()))
		rec, err := st.GetRecord(en.ID())
		require.NoError(t, err)
		assert.Equal(t, en.Record(), rec)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func testSharedHandles(t *testing.T, o recordstore.Opener) {
	w := open(t, o, "shared")
	r := open(t, o, "shared")
	id, err := w.AddRecord([]byte("x"))
	require.NoError(t, err)

	n, err := r.NumRecords()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, r.DeleteRecord(id))
	require.ErrorIs(t, w.DeleteRecord(id), recordstore.ErrInvalidRecordID)

	id2, err := r.AddRecord([]byte("y"))
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}

func testClosedHandle(t *testing.T, o recordstore.Opener) {
	st, err := o.Open("s", true)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = st.AddRecord([]byte("x"))
	require.ErrorIs(t, err, recordstore.ErrNotOpen)
	_, err = st.NumRecords()
	require.ErrorIs(t, err, recordstore.ErrNotOpen)
	_, err = st.EnumerateRecords(recordstore.EnumerateOptions{})
	require.ErrorIs(t, err, recordstore.ErrNotOpen)
}

func testStoresIsolated(t *testing.T, o recordstore.Opener) {
	a := open(t, o, "a")
	ab := open(t, o, "ab")
	_, err := a.AddRecord([]byte("1"))
	require.NoError(t, err)
	_, err = ab.AddRecord([]byte("2"))
	require.NoError(t, err)
	_, err = ab.AddRecord([]byte("3"))
	require.NoError(t, err)

	n, _ := a.NumRecords()
	assert.Equal(t, 1, n)
	n, _ = ab.NumRecords()
	assert.Equal(t, 2, n)
}

func testListAndDelete(t *testing.T, o recordstore.Opener) {
	open(t, o, "one")
	open(t, o, "two")
	if l, ok := o.(recordstore.Lister); ok {
		names, err := l.ListStores()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"one", "two"}, names)
	}
	if r, ok := o.(recordstore.Remover); ok {
		require.NoError(t, r.DeleteStore("one"))
		_, err := o.Open("one", false)
		require.ErrorIs(t, err, recordstore.ErrStoreNotFound)
		require.ErrorIs(t, r.DeleteStore("one"), recordstore.ErrStoreNotFound)
	}
}
