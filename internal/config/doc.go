// Package config loads microlog configuration from JSON or YAML files and
// MICROLOG_* environment variables.
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/microlog.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
package config
