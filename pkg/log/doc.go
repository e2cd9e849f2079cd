// Package log provides microlog's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. It is backed by log/slog through a
// bridge handler that feeds a Formatter/Output pipeline, so every
// component writes the same shape of line.
//
// Inside the library the Logger is also the diagnostic sink: conditions
// that are recovered locally (a dropped append, a skipped corrupt record)
// are reported through it instead of being returned to the caller.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("ringlog"), log.Store("microlog"))
//	l.Warn("append dropped", log.Err(err))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config: text or JSON
// formatting, console/file/null outputs, key redaction and sampling.
//
// # Interop
//
// ToStdLogger and RedirectStdLog route *log.Logger users (Pebble among
// them) through the facade.
package log
