package config

import (
	"os"
	"strconv"
)

// FromEnv overlays MICROLOG_* environment variables onto cfg. Unparsable
// numbers are ignored.
func FromEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("MICROLOG_RECORD_STORE_NAME", &cfg.RecordStoreName)
	str("MICROLOG_CLIENT_ID", &cfg.ClientID)
	str("MICROLOG_BACKEND", &cfg.Storage.Backend)
	str("MICROLOG_DATA_DIR", &cfg.Storage.DataDir)
	str("MICROLOG_FSYNC", &cfg.Storage.Fsync)
	str("MICROLOG_LOG_LEVEL", &cfg.Log.Level)
	str("MICROLOG_LOG_FORMAT", &cfg.Log.Format)
	str("MICROLOG_LOG_FILE", &cfg.Log.File)
	str("MICROLOG_HTTP_ADDR", &cfg.Server.HTTPAddr)
	str("MICROLOG_GRPC_ADDR", &cfg.Server.GRPCAddr)
	str("MICROLOG_RESP_ADDR", &cfg.Server.RESPAddr)

	if v := os.Getenv("MICROLOG_MAX_RECORD_STORE_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRecordStoreEntries = n
		}
	}
	if v := os.Getenv("MICROLOG_FSYNC_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.FsyncIntervalMs = n
		}
	}
	if v := os.Getenv("MICROLOG_MEMORY_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Storage.MemoryMaxBytes = n
		}
	}
}
