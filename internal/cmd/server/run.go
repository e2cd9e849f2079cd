package serverrun

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/yuuhhe/microlog/internal/config"
	"github.com/yuuhhe/microlog/internal/runtime"
	grpcserver "github.com/yuuhhe/microlog/internal/server/grpc"
	httpserver "github.com/yuuhhe/microlog/internal/server/http"
	respserver "github.com/yuuhhe/microlog/internal/server/resp"
	logpkg "github.com/yuuhhe/microlog/pkg/log"
)

type Options struct {
	Config cfgpkg.Config
	// DataDir overrides Config.Storage.DataDir when set.
	DataDir string
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
}

// BuildLogger turns the log section of the configuration into a logger.
// An invalid section falls back to info/text on the console.
func BuildLogger(c cfgpkg.LogConfig) logpkg.Logger {
	lc := &logpkg.Config{Level: c.Level, Format: c.Format}
	if c.File != "" {
		lc.Outputs = []logpkg.OutputConfig{{Type: "console"}, {Type: "file", Path: c.File}}
	}
	logger, err := logpkg.ApplyConfig(lc)
	if err != nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel), logpkg.WithFormatter(&logpkg.TextFormatter{}))
		logger.Warn("invalid log config, using defaults", logpkg.Err(err))
	}
	return logger
}

// Run starts the configured HTTP, gRPC and RESP listeners and blocks until
// ctx is cancelled. An empty address disables that listener.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	procLogger := opts.Logger
	if procLogger == nil {
		procLogger = BuildLogger(opts.Config.Log)
	}
	// Pebble reports through the standard library logger
	logpkg.RedirectStdLog(procLogger)

	rt, err := runtime.Open(runtime.Options{Config: opts.Config, DataDir: opts.DataDir, Logger: procLogger})
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := opts.Config.Server
	procLogger.Info("Starting microlog server",
		logpkg.Str("http", srv.HTTPAddr),
		logpkg.Str("grpc", srv.GRPCAddr),
		logpkg.Str("resp", srv.RESPAddr),
		logpkg.Str("backend", rt.Backend()),
		logpkg.Str("client_id", rt.ClientID()),
	)

	var (
		wg      sync.WaitGroup
		closers []func()
	)
	serve := func(name, addr string, listen func(context.Context, string) error, closeFn func()) {
		if addr == "" {
			return
		}
		closers = append(closers, closeFn)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := listen(sctx, addr); err != nil && sctx.Err() == nil {
				procLogger.Error(name+" server error", logpkg.Err(err))
				stop()
			}
		}()
	}

	hsrv := httpserver.New(rt, procLogger)
	serve("http", srv.HTTPAddr, hsrv.ListenAndServe, hsrv.Close)
	gsrv := grpcserver.New(rt, procLogger)
	serve("grpc", srv.GRPCAddr, gsrv.ListenAndServe, gsrv.Close)
	rsrv := respserver.New(rt, procLogger)
	serve("resp", srv.RESPAddr, func(ctx context.Context, addr string) error {
		return rsrv.ListenAndServe(ctx, addr, nil)
	}, rsrv.Close)

	<-sctx.Done()
	// stop listeners before the runtime closes the backend
	for _, c := range closers {
		c()
	}
	wg.Wait()
	procLogger.Info("microlog server stopped")
	return nil
}
