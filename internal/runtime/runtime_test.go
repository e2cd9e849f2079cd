package runtime

import (
	"context"
	"errors"
	"strings"
	"testing"

	cfgpkg "github.com/yuuhhe/microlog/internal/config"
	"github.com/yuuhhe/microlog/internal/recordstore"
	"github.com/yuuhhe/microlog/internal/ringlog"
	"github.com/yuuhhe/microlog/pkg/microlog"
)

func mustLoader(t *testing.T, rt *Runtime, name string) *microlog.LogLoader {
	t.Helper()
	l, err := rt.NewLoader(name)
	if err != nil {
		t.Fatalf("NewLoader(%q): %v", name, err)
	}
	return l
}

func openRuntime(t *testing.T, backend string, mutate ...func(*cfgpkg.Config)) *Runtime {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.Storage.Backend = backend
	cfg.Storage.Fsync = "never"
	for _, m := range mutate {
		m(&cfg)
	}
	rt, err := Open(Options{Config: cfg, DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestOpenCloseHealth(t *testing.T) {
	for _, backend := range []string{cfgpkg.BackendPebble, cfgpkg.BackendBolt, cfgpkg.BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			rt := openRuntime(t, backend)
			if err := rt.CheckHealth(context.Background()); err != nil {
				t.Fatalf("health: %v", err)
			}
			if rt.Backend() != backend {
				t.Fatalf("backend %s", rt.Backend())
			}
			if err := rt.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			if err := rt.CheckHealth(context.Background()); err == nil {
				t.Fatalf("health after close should fail")
			}
		})
	}
}

func TestHealthHonoursContext(t *testing.T) {
	rt := openRuntime(t, cfgpkg.BackendMemory)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rt.CheckHealth(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestLogAndLoad(t *testing.T) {
	rt := openRuntime(t, cfgpkg.BackendPebble, func(c *cfgpkg.Config) {
		c.MaxRecordStoreEntries = 2
		c.RecordStoreName = "app"
		c.ClientID = "node-1"
	})
	rt.Log("svc", microlog.InfoLevel, "one")
	rt.Log("svc", microlog.InfoLevel, "two")
	rt.Log("svc", microlog.WarnLevel, "three")

	content := mustLoader(t, rt, "").LogContent()
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %q", content)
	}
	if !strings.HasSuffix(lines[0], "-node-1-svc-two") || !strings.Contains(lines[1], "[WARN]-node-1-svc-three") {
		t.Fatalf("unexpected content %q", content)
	}

	names, err := rt.Stores()
	if err != nil || len(names) != 1 || names[0] != "app" {
		t.Fatalf("stores = %v (%v)", names, err)
	}

	st := rt.Stats()
	if st.Records != 2 || st.Capacity != 2 || st.StoreName != "app" || st.SizeBytes <= 0 {
		t.Fatalf("stats %+v", st)
	}
	if st.Storage.Writes != 3 || st.Storage.Commits == 0 {
		t.Fatalf("storage metrics %+v", st.Storage)
	}
}

func TestDefaultClientID(t *testing.T) {
	rt := openRuntime(t, cfgpkg.BackendMemory)
	if len(rt.ClientID()) != 36 {
		t.Fatalf("expected generated uuid client id, got %q", rt.ClientID())
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Storage.Backend = "tape"
	if _, err := Open(Options{Config: cfg, DataDir: t.TempDir()}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestReopenKeepsWindow(t *testing.T) {
	dir := t.TempDir()
	cfg := cfgpkg.Default()
	cfg.Storage.Backend = cfgpkg.BackendBolt
	cfg.MaxRecordStoreEntries = 5
	rt, err := Open(Options{Config: cfg, DataDir: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 0; i < 4; i++ {
		rt.Log("x", microlog.InfoLevel, "m")
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	cfg.MaxRecordStoreEntries = 2
	rt, err = Open(Options{Config: cfg, DataDir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rt.Close()
	if n := mustLoader(t, rt, "").NumLogItems(); n != 2 {
		t.Fatalf("smaller capacity should trim to 2, got %d", n)
	}
}

func TestLazyAppenderLeavesStoreUntrimmed(t *testing.T) {
	dir := t.TempDir()
	cfg := cfgpkg.Default()
	cfg.Storage.Backend = cfgpkg.BackendPebble
	cfg.Storage.Fsync = "never"
	cfg.MaxRecordStoreEntries = 100
	rt, err := Open(Options{Config: cfg, DataDir: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for i := 0; i < 50; i++ {
		rt.Log("x", microlog.InfoLevel, "m")
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	cfg.MaxRecordStoreEntries = microlog.DefaultMaxEntries
	rt, err = Open(Options{Config: cfg, DataDir: dir, LazyAppender: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rt.Close()
	if rt.Appender().IsOpen() {
		t.Fatalf("appender opened eagerly")
	}
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	loader := mustLoader(t, rt, "")
	if n := loader.NumLogItems(); n != 50 {
		t.Fatalf("count = %d, want 50", n)
	}
	if st := rt.Stats(); st.Records != 50 || st.SizeBytes <= 0 {
		t.Fatalf("stats %+v", st)
	}

	app, err := rt.OpenAppender()
	if err != nil {
		t.Fatalf("OpenAppender: %v", err)
	}
	if again, err := rt.OpenAppender(); err != nil || again != app {
		t.Fatalf("second OpenAppender = %p (%v)", again, err)
	}
	if n := loader.NumLogItems(); n != microlog.DefaultMaxEntries {
		t.Fatalf("count after opening appender = %d", n)
	}
}

func TestNewLoaderRejectsInvalidName(t *testing.T) {
	rt := openRuntime(t, cfgpkg.BackendMemory)
	rt.Log("x", microlog.InfoLevel, "keep")
	for _, name := range []string{strings.Repeat("n", 40), "a/b"} {
		if _, err := rt.NewLoader(name); !errors.Is(err, ringlog.ErrInvalidConfiguration) {
			t.Fatalf("NewLoader(%q) = %v", name, err)
		}
	}
	if n := mustLoader(t, rt, "").NumLogItems(); n != 1 {
		t.Fatalf("configured store count = %d", n)
	}
}

func TestDropStore(t *testing.T) {
	for _, backend := range []string{cfgpkg.BackendPebble, cfgpkg.BackendBolt, cfgpkg.BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			rt := openRuntime(t, backend)
			side := mustLoader(t, rt, "side")
			rt.Log("x", microlog.InfoLevel, "main")
			st, err := rt.Opener().Open("side", true)
			if err != nil {
				t.Fatalf("open side: %v", err)
			}
			if _, err := st.AddRecord(ringlog.EncodeRecord(1, "side")); err != nil {
				t.Fatalf("add: %v", err)
			}
			_ = st.Close()

			if err := rt.DropStore(rt.Appender().RecordStoreName()); !errors.Is(err, recordstore.ErrStoreInUse) {
				t.Fatalf("drop configured store = %v", err)
			}
			if err := rt.DropStore(strings.Repeat("n", 40)); !errors.Is(err, recordstore.ErrInvalidName) {
				t.Fatalf("drop long name = %v", err)
			}
			if err := rt.DropStore("side"); err != nil {
				t.Fatalf("drop side: %v", err)
			}
			if err := rt.DropStore("side"); !errors.Is(err, recordstore.ErrStoreNotFound) {
				t.Fatalf("second drop = %v", err)
			}
			names, err := rt.Stores()
			if err != nil || len(names) != 1 || names[0] != microlog.DefaultStoreName {
				t.Fatalf("stores = %v (%v)", names, err)
			}
			if n := side.NumLogItems(); n != 0 {
				t.Fatalf("dropped store still has %d records", n)
			}
			if n := mustLoader(t, rt, "").NumLogItems(); n != 1 {
				t.Fatalf("configured store count = %d", n)
			}
		})
	}
}

func TestDropConfiguredStoreBeforeAppenderOpens(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Storage.Backend = cfgpkg.BackendMemory
	rt, err := Open(Options{Config: cfg, LazyAppender: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()
	st, err := rt.Opener().Open(microlog.DefaultStoreName, true)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	_ = st.Close()
	if err := rt.DropStore(microlog.DefaultStoreName); err != nil {
		t.Fatalf("drop: %v", err)
	}
	rt.Log("x", microlog.InfoLevel, "after drop")
	if n := mustLoader(t, rt, "").NumLogItems(); n != 1 {
		t.Fatalf("count = %d", n)
	}
}
