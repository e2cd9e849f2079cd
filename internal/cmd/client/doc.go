// Package client provides the `microlog` command-line client.
//
// Commands reach a log through a transports.LogTransport: by default the
// gRPC LogService of a running server, or, with --local, the data directory
// opened in-process.
//
// # Address configuration
//
// The gRPC address is read from the MICROLOG_GRPC environment variable
// (default 127.0.0.1:50051).
//
// Usage
//
//	microlog log append "disk almost full" --level warn --name storage
//	microlog log view                      # oldest first
//	microlog log view --desc --limit 5     # newest five
//	microlog log view --filter 'text.contains("ERROR")'
//	microlog log count
//	microlog log size
//	microlog log clear --store other
//	microlog stores
//
// Notes
//
//   - --local takes the backend's file lock; stop the server first.
//   - size prints "undefined" for an empty or closed log.
package client
