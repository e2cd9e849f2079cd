// Package grpcserver hosts the gRPC surface of microlog: the standard
// grpc.health.v1 service, driven by runtime.CheckHealth, and
// microlog.v1.LogService for appending to and reading a log.
//
// LogService messages are plain Go structs carried by a JSON codec, so
// clients must call with grpc.CallContentSubtype("json"); LogClient does
// this.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := grpcserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":50051")
package grpcserver
