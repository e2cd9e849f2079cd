package microlog

import (
	"errors"
	"strings"
	"testing"

	"github.com/yuuhhe/microlog/internal/ringlog"
	"github.com/yuuhhe/microlog/internal/storage/memstore"
)

func TestSimpleFormatter(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"all parts",
			SimpleFormatter{}.Format("c1", "net", 42, WarnLevel, "link down", errors.New("timeout")),
			"42:[WARN]-c1-net-link down-timeout"},
		{"empty parts omitted",
			SimpleFormatter{}.Format("", "app", 7, InfoLevel, "hi", nil),
			"7:[INFO]-app-hi"},
		{"no parts",
			SimpleFormatter{}.Format("", "", 0, DebugLevel, nil, nil),
			"0:[DEBUG]"},
		{"custom delimiter",
			SimpleFormatter{Delimiter: " | "}.Format("c", "n", 1, ErrorLevel, 5, nil),
			"1:[ERROR] | c | n | 5"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("%s: got %q want %q", c.name, c.got, c.want)
		}
	}
}

func TestResolveStoreName(t *testing.T) {
	long := strings.Repeat("n", 32)
	for in, want := range map[string]string{
		"":          DefaultStoreName,
		"app":       "app",
		long:        DefaultStoreName,
		long[:31]:   long[:31],
		"microlog2": "microlog2",
	} {
		if got := ResolveStoreName(in); got != want {
			t.Fatalf("ResolveStoreName(%q) = %q want %q", in, got, want)
		}
	}
}

func TestAppenderAndLoader(t *testing.T) {
	stores := memstore.New()
	app := NewRecordStoreAppender(stores)
	if err := app.SetProperty(PropertyMaxEntries, "3"); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}
	if err := app.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer app.Close()
	if !app.IsOpen() {
		t.Fatalf("not open")
	}
	for i, msg := range []string{"a", "b", "c", "d"} {
		app.DoLog("", "", int64(100*(i+1)), InfoLevel, msg, nil)
	}

	loader := NewLogLoader(stores, nil)
	want := "200:[INFO]-b\n300:[INFO]-c\n400:[INFO]-d\n"
	if got := loader.LogContent(); got != want {
		t.Fatalf("LogContent = %q", got)
	}
	if loader.SwitchSortOrder() != Descending {
		t.Fatalf("SwitchSortOrder")
	}
	if got := loader.LogContent(); got != "400:[INFO]-d\n300:[INFO]-c\n200:[INFO]-b\n" {
		t.Fatalf("descending LogContent = %q", got)
	}
	if loader.NumLogItems() != 3 || app.Count() != 3 {
		t.Fatalf("counts %d %d", loader.NumLogItems(), app.Count())
	}
	if app.LogSize() <= 0 {
		t.Fatalf("LogSize = %d", app.LogSize())
	}

	loader.ClearLog()
	if loader.NumLogItems() != 0 {
		t.Fatalf("ClearLog left items")
	}
	app.DoLog("", "", 500, InfoLevel, "e", nil)
	if got := loader.LogContent(); got != "500:[INFO]-e\n" {
		t.Fatalf("after clear = %q", got)
	}
}

func TestAppenderWithoutFormatter(t *testing.T) {
	stores := memstore.New()
	app := NewRecordStoreAppender(stores, WithFormatter(nil))
	if err := app.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer app.Close()
	app.DoLog("c", "n", 1, InfoLevel, "ignored", nil)
	if app.Count() != 0 {
		t.Fatalf("DoLog without formatter stored an entry")
	}
	if app.LogSize() != ringlog.SizeUndefined {
		t.Fatalf("LogSize of empty store = %d", app.LogSize())
	}
}

func TestAppenderProperties(t *testing.T) {
	app := NewRecordStoreAppender(memstore.New())
	if got := app.PropertyNames(); len(got) != 2 || got[0] != PropertyStoreName || got[1] != PropertyMaxEntries {
		t.Fatalf("PropertyNames = %v", got)
	}
	if app.RecordStoreName() != DefaultStoreName || app.MaxRecordStoreEntries() != DefaultMaxEntries {
		t.Fatalf("defaults %s %d", app.RecordStoreName(), app.MaxRecordStoreEntries())
	}
	for _, kv := range [][2]string{
		{PropertyMaxEntries, "many"},
		{PropertyMaxEntries, "0"},
		{PropertyStoreName, ""},
		{"colour", "blue"},
	} {
		if err := app.SetProperty(kv[0], kv[1]); !errors.Is(err, ringlog.ErrInvalidConfiguration) {
			t.Fatalf("SetProperty(%q,%q) = %v", kv[0], kv[1], err)
		}
	}
	if err := app.SetProperty(PropertyStoreName, "events"); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}
	if app.RecordStoreName() != "events" {
		t.Fatalf("store name = %s", app.RecordStoreName())
	}
}

func TestLoaderRejectsInvalidStoreName(t *testing.T) {
	stores := memstore.New()
	app := NewRecordStoreAppender(stores)
	if err := app.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer app.Close()
	app.DoLog("c", "", 1, InfoLevel, "keep me", nil)

	l := NewLogLoader(stores, nil)
	if err := l.SetRecordStoreName("audit"); err != nil {
		t.Fatalf("SetRecordStoreName: %v", err)
	}
	for _, name := range []string{"", strings.Repeat("x", 40)} {
		err := l.SetRecordStoreName(name)
		if !errors.Is(err, ringlog.ErrInvalidConfiguration) {
			t.Fatalf("SetRecordStoreName(%q) err = %v", name, err)
		}
		if l.RecordStoreName() != "audit" {
			t.Fatalf("rejected name changed selection to %s", l.RecordStoreName())
		}
	}
	// a rejected name must never redirect a clear to the default store
	l.ClearLog()
	if n := app.Count(); n != 1 {
		t.Fatalf("default store lost entries: %d", n)
	}
}

func TestFormatterFunc(t *testing.T) {
	stores := memstore.New()
	app := NewRecordStoreAppender(stores, WithFormatter(FormatterFunc(
		func(_, _ string, _ int64, level Level, message any, _ error) string {
			return strings.ToLower(level.String()) + ":" + message.(string)
		})))
	if err := app.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer app.Close()
	app.DoLog("", "", 1, ErrorLevel, "boom", nil)
	entries, err := NewLogLoader(stores, nil).Entries()
	if err != nil || len(entries) != 1 || entries[0].Text != "error:boom" {
		t.Fatalf("entries = %+v (%v)", entries, err)
	}
}
