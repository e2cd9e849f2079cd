package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	cfgpkg "github.com/yuuhhe/microlog/internal/config"
	"github.com/yuuhhe/microlog/internal/recordstore"
	boltstore "github.com/yuuhhe/microlog/internal/storage/bolt"
	"github.com/yuuhhe/microlog/internal/storage/memstore"
	pebblestore "github.com/yuuhhe/microlog/internal/storage/pebble"
	"github.com/yuuhhe/microlog/pkg/log"
	"github.com/yuuhhe/microlog/pkg/microlog"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// DataDir overrides Config.Storage.DataDir when set.
	DataDir string
	Logger  log.Logger
	// LazyAppender leaves the appender closed until OpenAppender. Loaders
	// then read stores as they are on disk, untrimmed.
	LazyAppender bool
}

// Runtime owns the record store backend of a process and the appender
// writing to the configured store. Backends lock their files, so every
// reader and writer in the process shares the opener handed out here.
type Runtime struct {
	config   cfgpkg.Config
	logger   log.Logger
	backend  string
	dataDir  string
	clientID string

	opener  recordstore.Opener
	closeFn func() error
	db      *pebblestore.DB
	metrics *Metrics

	// mu orders appender opening against store drops.
	mu       sync.Mutex
	lazy     bool
	appender *microlog.RecordStoreAppender
}

// Open initializes storage and, unless Options.LazyAppender is set, opens
// the configured appender.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = cfg.DataDirOrDefault()
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}
	rt := &Runtime{
		config:   cfg,
		logger:   logger.WithComponent("runtime"),
		backend:  cfg.Storage.Backend,
		dataDir:  dataDir,
		clientID: clientID,
		metrics:  &Metrics{},
		lazy:     opts.LazyAppender,
	}
	if err := rt.openBackend(); err != nil {
		return nil, err
	}

	rt.appender = microlog.NewRecordStoreAppender(rt.opener, microlog.WithLogger(logger))
	if err := rt.appender.SetRecordStoreName(cfg.StoreName()); err != nil {
		_ = rt.closeFn()
		return nil, err
	}
	if err := rt.appender.SetMaxRecordStoreEntries(cfg.MaxRecordStoreEntries); err != nil {
		_ = rt.closeFn()
		return nil, err
	}
	if !rt.lazy {
		if err := rt.appender.Open(); err != nil {
			_ = rt.closeFn()
			return nil, err
		}
	}
	rt.logger.Info("runtime opened",
		log.Str("backend", rt.backend), log.Str("data_dir", rt.dataDir),
		log.Store(cfg.StoreName()), log.Int("capacity", cfg.MaxRecordStoreEntries),
		log.Bool("lazy_appender", rt.lazy))
	return rt, nil
}

func (r *Runtime) openBackend() error {
	switch r.backend {
	case cfgpkg.BackendMemory:
		r.opener = memstore.New(memstore.WithMaxBytes(r.config.Storage.MemoryMaxBytes))
		r.closeFn = func() error { return nil }
		return nil
	case cfgpkg.BackendBolt:
		if err := os.MkdirAll(r.dataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		s, err := boltstore.Open(boltstore.Options{
			Path:   filepath.Join(r.dataDir, "microlog.db"),
			NoSync: r.config.Storage.Fsync == "never",
		})
		if err != nil {
			return fmt.Errorf("open bolt: %w", err)
		}
		r.opener = s
		r.closeFn = s.Close
		return nil
	default:
		db, err := pebblestore.Open(pebblestore.Options{
			DataDir:       filepath.Join(r.dataDir, "pebble"),
			Fsync:         pebblestore.ParseFsyncMode(r.config.Storage.Fsync),
			FsyncInterval: time.Duration(r.config.Storage.FsyncIntervalMs) * time.Millisecond,
			Metrics:       r.metrics,
		})
		if err != nil {
			return fmt.Errorf("open pebble: %w", err)
		}
		r.db = db
		r.opener = pebblestore.NewStores(db)
		r.closeFn = db.Close
		return nil
	}
}

// Close closes the appender and the backend.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeFn == nil {
		return nil
	}
	err := r.appender.Close()
	if cerr := r.closeFn(); cerr != nil && err == nil {
		err = cerr
	}
	r.closeFn = nil
	return err
}

// CheckHealth verifies the backend answers a listing and, unless it is
// opened lazily, that the appender is open.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.closed() {
		return errors.New("runtime closed")
	}
	if l, ok := r.opener.(recordstore.Lister); ok {
		if _, err := l.ListStores(); err != nil {
			return fmt.Errorf("list stores: %w", err)
		}
	}
	if !r.lazy && !r.appender.IsOpen() {
		return errors.New("appender not open")
	}
	return nil
}

func (r *Runtime) closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeFn == nil
}

// Opener returns the shared store opener.
func (r *Runtime) Opener() recordstore.Opener { return r.opener }

// Appender returns the appender writing to the configured store. It may
// still be closed on a lazy runtime; see OpenAppender.
func (r *Runtime) Appender() *microlog.RecordStoreAppender { return r.appender }

// OpenAppender opens the appender if needed and returns it. Opening
// rebuilds the window and trims the configured store to capacity.
func (r *Runtime) OpenAppender() (*microlog.RecordStoreAppender, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeFn == nil {
		return nil, errors.New("runtime closed")
	}
	if err := r.appender.Open(); err != nil {
		return nil, err
	}
	return r.appender, nil
}

// NewLoader returns a loader over the configured store, or over name when
// given. Names no backend can hold are rejected with
// ringlog.ErrInvalidConfiguration.
func (r *Runtime) NewLoader(name string) (*microlog.LogLoader, error) {
	l := microlog.NewLogLoader(r.opener, r.logger)
	if name == "" {
		name = r.config.StoreName()
	}
	if err := l.SetRecordStoreName(name); err != nil {
		return nil, err
	}
	return l, nil
}

// DropStore deletes the named store with all its records and compacts the
// keyspace when the backend supports it. The store the appender has open
// is refused with recordstore.ErrStoreInUse, since a recreated store
// numbers its records from 1 again.
func (r *Runtime) DropStore(name string) error {
	if err := recordstore.ValidateName(name); err != nil {
		return err
	}
	rm, ok := r.opener.(recordstore.Remover)
	if !ok {
		return errors.New("backend cannot drop stores")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeFn == nil {
		return errors.New("runtime closed")
	}
	if r.appender.IsOpen() && r.appender.RecordStoreName() == name {
		return fmt.Errorf("%w: %s is open for appending", recordstore.ErrStoreInUse, name)
	}
	if err := rm.DeleteStore(name); err != nil {
		return err
	}
	r.logger.Info("store dropped", log.Store(name))
	if r.db != nil {
		if err := r.db.Compact(); err != nil {
			r.logger.Warn("compaction failed", log.Err(err))
		}
	}
	return nil
}

// Stores lists record store names.
func (r *Runtime) Stores() ([]string, error) {
	l, ok := r.opener.(recordstore.Lister)
	if !ok {
		return nil, errors.New("backend cannot list stores")
	}
	return l.ListStores()
}

// Log formats and appends one entry to the configured store using the
// runtime's client ID.
func (r *Runtime) Log(name string, level microlog.Level, message string) {
	app, err := r.OpenAppender()
	if err != nil {
		r.logger.Warn("entry dropped", log.Err(err))
		return
	}
	app.DoLog(r.clientID, name, time.Now().UnixMilli(), level, message, nil)
}

func (r *Runtime) ClientID() string { return r.clientID }

func (r *Runtime) Backend() string { return r.backend }

func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Stats reports store and storage counters.
func (r *Runtime) Stats() Stats {
	s := Stats{
		Backend:   r.backend,
		StoreName: r.appender.RecordStoreName(),
		Capacity:  r.appender.MaxRecordStoreEntries(),
		Records:   r.appender.Count(),
		SizeBytes: r.appender.LogSize(),
		Storage:   r.metrics.Snapshot(),
	}
	if !r.appender.IsOpen() {
		if l, err := r.NewLoader(""); err == nil {
			s.Records = l.NumLogItems()
			s.SizeBytes = l.LogSize()
		}
	}
	if r.db != nil {
		s.DiskUsageBytes = r.db.DiskUsage()
	}
	return s
}
