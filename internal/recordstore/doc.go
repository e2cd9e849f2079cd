// Package recordstore defines the record-oriented persistent store that the
// bounded log is built on.
//
// A store is a named bag of opaque byte records. The store assigns each
// record an ID when it is added; IDs are scoped to the store and carry no
// ordering promise for callers. Stores keep no index beyond what the
// backend needs to find a record by ID.
//
// Backends live under internal/storage (pebble, bolt, memstore). Each one
// provides an Opener that hands out lightweight Store handles over a
// shared database:
//
//	st, err := opener.Open("microlog", true)
//	if err != nil { /* ErrStoreNotFound, ErrStoreFull, ... */ }
//	defer st.Close()
//	id, _ := st.AddRecord(blob)
//	en, _ := st.EnumerateRecords(recordstore.EnumerateOptions{Comparator: cmp})
//	defer en.Close()
//	for ok := en.First(); ok; ok = en.Next() {
//	    _ = en.Record()
//	}
//
// Handles of the same name opened from the same Opener observe each other's
// writes immediately. There are no transactions across calls: an
// enumeration built from a snapshot can name records that another handle
// has since deleted.
package recordstore
