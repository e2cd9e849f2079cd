package transports

import (
	"context"
	"fmt"
	"time"

	"github.com/yuuhhe/microlog/internal/ringlog"
	"github.com/yuuhhe/microlog/internal/runtime"
	"github.com/yuuhhe/microlog/pkg/log"
)

// LocalTransport opens the data directory in-process. It takes the
// backend's file lock, so it cannot run next to a server on the same
// directory.
//
// Only Append opens the appender. Every other call goes through a loader,
// so inspecting a store never trims it to the configured capacity.
type LocalTransport struct {
	rt *runtime.Runtime
}

func NewLocalTransport(opts runtime.Options) (*LocalTransport, error) {
	if opts.Logger != nil {
		// Pebble reports through the standard library logger
		log.RedirectStdLog(opts.Logger)
	}
	opts.LazyAppender = true
	rt, err := runtime.Open(opts)
	if err != nil {
		return nil, err
	}
	return &LocalTransport{rt: rt}, nil
}

func (t *LocalTransport) Append(_ context.Context, req AppendRequest) error {
	level, err := log.ParseLevel(req.Level)
	if err != nil {
		return err
	}
	ts := req.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	app, err := t.rt.OpenAppender()
	if err != nil {
		return err
	}
	app.DoLog(t.rt.ClientID(), req.Name, ts, level, req.Message, nil)
	return nil
}

func (t *LocalTransport) Read(_ context.Context, req ReadRequest) ([]Entry, error) {
	order, ok := ringlog.ParseOrder(req.Order)
	if !ok {
		return nil, fmt.Errorf("unknown order %q", req.Order)
	}
	loader, err := t.rt.NewLoader(req.Store)
	if err != nil {
		return nil, err
	}
	loader.SetSortOrder(order)
	if err := loader.SetFilter(req.Filter); err != nil {
		return nil, err
	}
	entries, err := loader.Entries()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
		out = append(out, Entry{ID: uint64(e.ID), Timestamp: e.Timestamp, Text: e.Text})
	}
	return out, nil
}

func (t *LocalTransport) Count(_ context.Context, store string) (int, error) {
	loader, err := t.rt.NewLoader(store)
	if err != nil {
		return 0, err
	}
	return loader.NumLogItems(), nil
}

func (t *LocalTransport) Size(context.Context) (int64, error) {
	loader, err := t.rt.NewLoader("")
	if err != nil {
		return ringlog.SizeUndefined, err
	}
	return loader.LogSize(), nil
}

// Clear empties a store. An appender opened by an earlier Append clears
// its own store so its window restarts empty.
func (t *LocalTransport) Clear(_ context.Context, store string) error {
	loader, err := t.rt.NewLoader(store)
	if err != nil {
		return err
	}
	app := t.rt.Appender()
	if loader.RecordStoreName() == app.RecordStoreName() && app.IsOpen() {
		app.Clear()
		return nil
	}
	loader.ClearLog()
	return nil
}

func (t *LocalTransport) Drop(_ context.Context, store string) error {
	return t.rt.DropStore(store)
}

func (t *LocalTransport) Stores(context.Context) ([]string, error) {
	return t.rt.Stores()
}

func (t *LocalTransport) Close() error { return t.rt.Close() }
