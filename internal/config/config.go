package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yuuhhe/microlog/pkg/microlog"
)

// Backend names accepted in Config.Backend.
const (
	BackendPebble = "pebble"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	RecordStoreName       string        `json:"recordStoreName" yaml:"recordStoreName"`
	MaxRecordStoreEntries int           `json:"maxRecordStoreEntries" yaml:"maxRecordStoreEntries"`
	ClientID              string        `json:"clientId" yaml:"clientId"`
	Storage               StorageConfig `json:"storage" yaml:"storage"`
	Log                   LogConfig     `json:"log" yaml:"log"`
	Server                ServerConfig  `json:"server" yaml:"server"`
}

// StorageConfig selects and tunes the record store backend.
type StorageConfig struct {
	Backend string `json:"backend" yaml:"backend"`
	// DataDir holds the pebble directory or the bolt file. Empty means
	// DefaultDataDir().
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// Fsync is always, interval or never (pebble only).
	Fsync           string `json:"fsync" yaml:"fsync"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
	// MemoryMaxBytes caps the memory backend; 0 is unlimited.
	MemoryMaxBytes int64 `json:"memoryMaxBytes" yaml:"memoryMaxBytes"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file" yaml:"file"`
}

// ServerConfig holds listen addresses; empty disables a listener.
type ServerConfig struct {
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	GRPCAddr string `json:"grpcAddr" yaml:"grpcAddr"`
	RESPAddr string `json:"respAddr" yaml:"respAddr"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		RecordStoreName:       microlog.DefaultStoreName,
		MaxRecordStoreEntries: microlog.DefaultMaxEntries,
		Storage: StorageConfig{
			Backend:         BackendPebble,
			Fsync:           "interval",
			FsyncIntervalMs: 5,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			HTTPAddr: ":8080",
			GRPCAddr: ":50051",
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, nil
}

var (
	ErrUnknownBackend = errors.New("config: unknown storage backend")
	ErrBadCapacity    = errors.New("config: maxRecordStoreEntries must be positive")
)

// Validate checks the values the runtime cannot work around.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendPebble, BackendBolt, BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}
	if c.MaxRecordStoreEntries < 1 {
		return fmt.Errorf("%w: %d", ErrBadCapacity, c.MaxRecordStoreEntries)
	}
	return nil
}

// StoreName returns the configured record store name after applying the
// fallback to the default name.
func (c Config) StoreName() string {
	return microlog.ResolveStoreName(c.RecordStoreName)
}

// DataDirOrDefault returns Storage.DataDir, or DefaultDataDir() when unset.
func (c Config) DataDirOrDefault() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return DefaultDataDir()
}
