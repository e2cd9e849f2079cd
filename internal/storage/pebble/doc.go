// Package pebblestore keeps record stores in a single Pebble database.
//
// A process opens the database once and hands out lightweight, named store
// handles; a writer and any number of readers may hold handles to the same
// store at once.
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	st, err := pebblestore.NewStores(db).Open("microlog", true)
//	id, err := st.AddRecord([]byte("payload"))
package pebblestore
