// Package runtime wires configuration, the record store backend and the
// appender into a single microlog instance. It exposes Open/Close, a
// health check, stats, and helpers to read the configured store.
//
// Example:
//
//	cfg := config.Default()
//	cfg.Storage.Backend = config.BackendMemory
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	rt.Log("app", microlog.InfoLevel, "started")
//	loader, _ := rt.NewLoader("")
//	fmt.Print(loader.LogContent())
//
// With Options.LazyAppender the appender stays closed until the first
// OpenAppender or Log call, so read-only callers never trim a store.
package runtime
