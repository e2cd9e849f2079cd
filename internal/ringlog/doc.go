// Package ringlog implements microlog's bounded persistent log.
//
// A Writer keeps the most recent Capacity entries of a named record store
// and evicts the oldest entry on every append once the window is full. The
// ring of live record IDs is held only in memory; Open rebuilds it by
// scanning the store newest-first and deleting anything beyond the window,
// so the store contents are the single source of truth.
//
// Records are stored as
//
//	[8B big-endian int64 timestamp][uvarint text length][UTF-8 text]
//
// and ordered by CompareRecords, which only consults the timestamp bytes.
//
// A Reader enumerates the same store independently of any Writer. Readers
// are not coordinated with a concurrent writer: an enumeration may observe
// a window that a writer is in the middle of evicting from, and a Reader's
// Clear can delete records a Writer still references. The writer's next
// eviction of such a record fails, is reported to its logger, and is
// otherwise harmless.
//
// Failures while appending or reading are recovered locally and reported
// through the injected log.Logger; only Open, Close and configuration
// return errors.
package ringlog
