package ringlog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/yuuhhe/microlog/internal/recordstore"
	"github.com/yuuhhe/microlog/internal/storage/memstore"
)

func TestWriterBoundedWindow(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opener recordstore.Opener) {
		const capacity = 5
		w := openWriter(t, opener, capacity)
		for i := 1; i <= 17; i++ {
			w.Append(int64(i*10), fmt.Sprintf("m%d", i))
		}
		got := storeContents(t, opener, "test")
		if len(got) != capacity {
			t.Fatalf("want %d records, got %d", capacity, len(got))
		}
		for i, e := range got {
			want := fmt.Sprintf("m%d", 13+i)
			if e.Text != want {
				t.Fatalf("record %d = %q want %q", i, e.Text, want)
			}
		}
		if n := w.Count(); n != capacity {
			t.Fatalf("Count = %d", n)
		}
	})
}

func TestWriterCapacityThreeScenario(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opener recordstore.Opener) {
		w := openWriter(t, opener, 3)
		w.Append(100, "a")
		w.Append(200, "b")
		w.Append(300, "c")
		w.Append(400, "d")

		r := NewReader(opener, "test", nil)
		asc, err := r.ReadAll()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if asc != "b\nc\nd\n" {
			t.Fatalf("ascending = %q", asc)
		}
		r.SetOrder(Descending)
		desc, err := r.ReadAll()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if desc != "d\nc\nb\n" {
			t.Fatalf("descending = %q", desc)
		}
	})
}

func TestWriterCapacityOne(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opener recordstore.Opener) {
		w := openWriter(t, opener, 1)
		w.Append(1, "first")
		w.Append(2, "second")
		got := storeContents(t, opener, "test")
		if len(got) != 1 || got[0].Text != "second" {
			t.Fatalf("got %+v", got)
		}
	})
}

func TestReconstructionIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opener recordstore.Opener) {
		w := openWriter(t, opener, 4)
		w.Append(10, "a")
		w.Append(20, "b")
		w.Append(30, "c")
		before := w.liveIDs()
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		if err := w.Open(); err != nil {
			t.Fatalf("reopen: %v", err)
		}
		after := w.liveIDs()
		if fmt.Sprint(before) != fmt.Sprint(after) {
			t.Fatalf("ring changed across reopen: %v -> %v", before, after)
		}
		if got := storeContents(t, opener, "test"); len(got) != 3 {
			t.Fatalf("reopen deleted records: %+v", got)
		}

		// the window keeps evicting oldest first after reopen
		w.Append(40, "d")
		w.Append(50, "e")
		got := storeContents(t, opener, "test")
		if len(got) != 4 || got[0].Text != "b" || got[3].Text != "e" {
			t.Fatalf("after reopen appends: %+v", got)
		}
	})
}

func TestReconstructionEvictsSurplus(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opener recordstore.Opener) {
		st, err := opener.Open("test", true)
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		// insert out of timestamp order; reconstruction must go by timestamp
		for _, ts := range []int64{50, 10, 70, 30, 60, 20, 40} {
			if _, err := st.AddRecord(EncodeRecord(ts, fmt.Sprint(ts))); err != nil {
				t.Fatalf("add: %v", err)
			}
		}
		_ = st.Close()

		w := openWriter(t, opener, 3)
		got := storeContents(t, opener, "test")
		if len(got) != 3 {
			t.Fatalf("want 3 records, got %d", len(got))
		}
		for i, want := range []string{"50", "60", "70"} {
			if got[i].Text != want {
				t.Fatalf("record %d = %q want %q", i, got[i].Text, want)
			}
		}
		// next append evicts the oldest retained record
		w.Append(80, "80")
		got = storeContents(t, opener, "test")
		if len(got) != 3 || got[0].Text != "60" || got[2].Text != "80" {
			t.Fatalf("after append: %+v", got)
		}
	})
}

func TestReconstructionEqualTimestamps(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opener recordstore.Opener) {
		w := openWriter(t, opener, 2)
		w.Append(5, "one")
		w.Append(5, "two")
		_ = w.Close()
		if err := w.Open(); err != nil {
			t.Fatalf("reopen: %v", err)
		}
		w.Append(5, "three")
		got := storeContents(t, opener, "test")
		if len(got) != 2 || got[0].Text != "two" || got[1].Text != "three" {
			t.Fatalf("got %+v", got)
		}
	})
}

func TestReconstructionPartialWindow(t *testing.T) {
	opener := memstore.New()
	w := openWriter(t, opener, 4)
	w.Append(1, "a")
	w.Append(2, "b")
	_ = w.Close()
	if err := w.Open(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	for i := 3; i <= 5; i++ {
		w.Append(int64(i), string(rune('a'+i-1)))
	}
	got := storeContents(t, opener, "test")
	if len(got) != 4 || got[0].Text != "b" || got[3].Text != "e" {
		t.Fatalf("got %+v", got)
	}
}

func TestWriterClear(t *testing.T) {
	forEachBackend(t, func(t *testing.T, opener recordstore.Opener) {
		w := openWriter(t, opener, 3)
		for i := 0; i < 5; i++ {
			w.Append(int64(i), "x")
		}
		w.Clear()
		n, err := NewReader(opener, "test", nil).Count()
		if err != nil || n != 0 {
			t.Fatalf("count after clear = %d (%v)", n, err)
		}
		if len(w.liveIDs()) != 0 {
			t.Fatalf("ring not reset")
		}
		w.Append(100, "fresh")
		got := storeContents(t, opener, "test")
		if len(got) != 1 || got[0].Text != "fresh" {
			t.Fatalf("after clear: %+v", got)
		}
	})
}

func TestWriterSize(t *testing.T) {
	opener := memstore.New()
	w := NewWriter(opener)
	if w.Size() != SizeUndefined {
		t.Fatalf("closed writer must report SizeUndefined")
	}
	if err := w.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()
	if w.Size() != SizeUndefined {
		t.Fatalf("empty store must report SizeUndefined")
	}
	w.Append(1, "abc")
	if got, want := w.Size(), int64(len(EncodeRecord(1, "abc"))); got != want {
		t.Fatalf("Size = %d want %d", got, want)
	}
}

func TestWriterConfigure(t *testing.T) {
	w := NewWriter(memstore.New())
	if w.StoreName() != DefaultStoreName || w.Capacity() != DefaultCapacity {
		t.Fatalf("defaults: %s %d", w.StoreName(), w.Capacity())
	}
	for _, c := range []struct {
		name     string
		capacity int
	}{{"", 5}, {"ok", 0}, {"ok", -3}} {
		if err := w.Configure(c.name, c.capacity); !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("Configure(%q,%d) = %v", c.name, c.capacity, err)
		}
	}
	if w.StoreName() != DefaultStoreName || w.Capacity() != DefaultCapacity {
		t.Fatalf("rejected configuration changed state")
	}

	if err := w.SetCapacity(2); err != nil {
		t.Fatalf("SetCapacity: %v", err)
	}
	if err := w.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()
	if err := w.Configure("other", 9); err != nil {
		t.Fatalf("Configure while open: %v", err)
	}
	if w.StoreName() != DefaultStoreName || w.Capacity() != 2 {
		t.Fatalf("configuration applied while open")
	}
}

func TestWriterAppendWhenClosed(t *testing.T) {
	opener := memstore.New()
	w := NewWriter(opener)
	w.Append(1, "dropped")
	if n, _ := NewReader(opener, DefaultStoreName, nil).Count(); n != 0 {
		t.Fatalf("append on closed writer wrote %d records", n)
	}
}

func TestWriterOpenFailure(t *testing.T) {
	f := &faultyOpener{Opener: memstore.New(), failOpen: true}
	w := NewWriter(f)
	err := w.Open()
	if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, errInjected) {
		t.Fatalf("Open = %v", err)
	}
	if w.State() != StateClosed {
		t.Fatalf("state = %s", w.State())
	}
}

func TestWriterEvictionFailureIsNonFatal(t *testing.T) {
	logger, out := newCaptureLogger()
	f := &faultyOpener{Opener: memstore.New()}
	w := openWriter(t, f, 2, WithLogger(logger))
	w.Append(1, "a")
	w.Append(2, "b")

	f.set(false, true)
	w.Append(3, "c")
	if out.errorsMatching(ErrAppendFailed) != 1 {
		t.Fatalf("eviction failure not reported")
	}
	// the store grows past capacity until evictions succeed again
	if got := storeContents(t, f, "test"); len(got) != 3 {
		t.Fatalf("want 3 records after failed eviction, got %d", len(got))
	}
	if w.State() != StateOpen {
		t.Fatalf("writer left open state")
	}

	f.set(false, false)
	w.Append(4, "d")
	w.Append(5, "e")
	got := storeContents(t, f, "test")
	if len(got) != 3 || got[len(got)-1].Text != "e" {
		t.Fatalf("after recovery: %+v", got)
	}
}

func TestWriterWriteFailureDropsEntry(t *testing.T) {
	logger, out := newCaptureLogger()
	f := &faultyOpener{Opener: memstore.New()}
	w := openWriter(t, f, 3, WithLogger(logger))
	w.Append(1, "a")
	before := w.liveIDs()

	f.set(true, false)
	w.Append(2, "lost")
	if out.errorsMatching(ErrAppendFailed) != 1 || out.errorsMatching(errInjected) != 1 {
		t.Fatalf("write failure not reported")
	}
	if fmt.Sprint(w.liveIDs()) != fmt.Sprint(before) {
		t.Fatalf("ring changed on failed write")
	}

	f.set(false, false)
	w.Append(3, "b")
	got := storeContents(t, f, "test")
	if len(got) != 2 || got[1].Text != "b" {
		t.Fatalf("got %+v", got)
	}
}

func TestWriterWriteFailureAfterEviction(t *testing.T) {
	logger, out := newCaptureLogger()
	f := &faultyOpener{Opener: memstore.New()}
	w := openWriter(t, f, 2, WithLogger(logger))
	w.Append(1, "a")
	w.Append(2, "b")
	full := w.liveIDs()

	// the eviction of a succeeds, then the write of c fails
	f.set(true, false)
	w.Append(3, "c")
	if out.errorsMatching(ErrAppendFailed) != 1 || out.errorsMatching(errInjected) != 1 {
		t.Fatalf("write failure not reported")
	}
	got := storeContents(t, f, "test")
	if len(got) != 1 || got[0].Text != "b" {
		t.Fatalf("after failed write: %+v", got)
	}
	if fmt.Sprint(w.liveIDs()) != fmt.Sprint(full[1:]) {
		t.Fatalf("live = %v, want %v", w.liveIDs(), full[1:])
	}

	// the emptied slot is refilled without evicting b
	f.set(false, false)
	w.Append(4, "d")
	got = storeContents(t, f, "test")
	if len(got) != 2 || got[0].Text != "b" || got[1].Text != "d" {
		t.Fatalf("after refill: %+v", got)
	}
	if live := w.liveIDs(); len(live) != 2 || live[0] != full[1] {
		t.Fatalf("b should be next to evict, live = %v", live)
	}

	w.Append(5, "e")
	got = storeContents(t, f, "test")
	if len(got) != 2 || got[0].Text != "d" || got[1].Text != "e" {
		t.Fatalf("after next eviction: %+v", got)
	}
}

func TestWriterStoreFull(t *testing.T) {
	logger, out := newCaptureLogger()
	opener := memstore.New(memstore.WithMaxBytes(int64(len(EncodeRecord(0, "12345")))))
	w := openWriter(t, opener, 10, WithLogger(logger))
	w.Append(1, "12345")
	w.Append(2, "67890")
	if out.errorsMatching(recordstore.ErrStoreFull) != 1 {
		t.Fatalf("store full not reported")
	}
	if w.Count() != 1 {
		t.Fatalf("Count = %d", w.Count())
	}
}

func TestWriterReaderClearRace(t *testing.T) {
	logger, out := newCaptureLogger()
	opener := memstore.New()
	w := openWriter(t, opener, 2, WithLogger(logger))
	w.Append(1, "a")
	w.Append(2, "b")
	if err := NewReader(opener, "test", nil).Clear(); err != nil {
		t.Fatalf("reader clear: %v", err)
	}
	// stale slot: eviction fails harmlessly and the write proceeds
	w.Append(3, "c")
	if out.errorsMatching(recordstore.ErrInvalidRecordID) != 1 {
		t.Fatalf("stale eviction not reported")
	}
	got := storeContents(t, opener, "test")
	if len(got) != 1 || got[0].Text != "c" {
		t.Fatalf("got %+v", got)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{StateClosed: "closed", StateOpening: "opening", StateOpen: "open", State(9): "unknown"} {
		if s.String() != want {
			t.Fatalf("%d: %s", s, s.String())
		}
	}
}
