// Package microlog is the embedding surface of the bounded persistent
// log: a RecordStoreAppender that formats and stores entries in a
// fixed-size window, and a LogLoader that reads the window back for a
// viewer.
//
//	stores := memstore.New()
//	app := microlog.NewRecordStoreAppender(stores)
//	_ = app.SetProperty(microlog.PropertyMaxEntries, "50")
//	if err := app.Open(); err != nil { /* handle */ }
//	defer app.Close()
//	app.DoLog("device-1", "net", time.Now().UnixMilli(), microlog.InfoLevel, "link up", nil)
//
//	loader := microlog.NewLogLoader(stores, nil)
//	fmt.Print(loader.LogContent())
package microlog
