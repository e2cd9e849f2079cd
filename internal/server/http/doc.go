// Package httpserver exposes a microlog runtime over a small JSON API:
// append to the configured store, read any store in either order with an
// optional CEL filter, clear, count, size, health and stats.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
