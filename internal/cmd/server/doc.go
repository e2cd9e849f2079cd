// Package serverrun wires a runtime to the HTTP, gRPC and RESP servers and
// runs them until the context is cancelled or the process is signalled.
package serverrun
