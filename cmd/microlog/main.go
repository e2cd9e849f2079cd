package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/yuuhhe/microlog/internal/cmd/client"
	transports "github.com/yuuhhe/microlog/internal/cmd/client/transports"
	serverrun "github.com/yuuhhe/microlog/internal/cmd/server"
	cfgpkg "github.com/yuuhhe/microlog/internal/config"
	"github.com/yuuhhe/microlog/internal/runtime"
	logpkg "github.com/yuuhhe/microlog/pkg/log"
	"github.com/yuuhhe/microlog/pkg/microlog"
)

func main() {
	// CLI output respects MICROLOG_LOG_LEVEL; the server rebuilds its
	// logger from the loaded configuration
	parsed, err := logpkg.ParseLevel(os.Getenv("MICROLOG_LOG_LEVEL"))
	if err != nil {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	rootCmd := &cobra.Command{
		Use:          "microlog",
		Short:        "microlog bounded persistent log",
		Long:         "microlog keeps the newest N log entries in a record store and serves them over HTTP, gRPC and RESP.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", os.Getenv("MICROLOG_CONFIG"), "Config file (.yaml, .yml or .json)")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	rootCmd.PersistentFlags().Bool("local", false, "Open the data directory directly instead of dialing the server")

	// loadConfig applies file, then environment, then flags.
	loadConfig := func(cmd *cobra.Command) (cfgpkg.Config, error) {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := cfgpkg.Load(path)
		if err != nil {
			return cfg, err
		}
		cfgpkg.FromEnv(&cfg)
		if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
			cfg.Storage.DataDir = dir
		}
		return cfg, cfg.Validate()
	}

	transport := func(cmd *cobra.Command) (transports.LogTransport, error) {
		if local, _ := cmd.Flags().GetBool("local"); !local {
			return clientcmd.GRPCTransport(cmd)
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		return transports.NewLocalTransport(runtime.Options{Config: cfg, Logger: logger})
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start microlog server (HTTP, gRPC and RESP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flagStr := func(name string, dst *string) {
				if cmd.Flags().Changed(name) {
					*dst, _ = cmd.Flags().GetString(name)
				}
			}
			flagStr("http", &cfg.Server.HTTPAddr)
			flagStr("grpc", &cfg.Server.GRPCAddr)
			flagStr("resp", &cfg.Server.RESPAddr)
			flagStr("backend", &cfg.Storage.Backend)
			flagStr("fsync", &cfg.Storage.Fsync)
			flagStr("store", &cfg.RecordStoreName)
			flagStr("log-level", &cfg.Log.Level)
			flagStr("log-format", &cfg.Log.Format)
			if cmd.Flags().Changed("max-entries") {
				cfg.MaxRecordStoreEntries, _ = cmd.Flags().GetInt("max-entries")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("http", ":8080", "HTTP listen address (empty disables)")
	serverStartCmd.Flags().String("grpc", ":50051", "gRPC listen address (empty disables)")
	serverStartCmd.Flags().String("resp", "", "RESP listen address (empty disables)")
	serverStartCmd.Flags().String("backend", cfgpkg.BackendPebble, "Storage backend: pebble|bolt|memory")
	serverStartCmd.Flags().String("fsync", "interval", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().String("store", microlog.DefaultStoreName, "Record store name")
	serverStartCmd.Flags().Int("max-entries", microlog.DefaultMaxEntries, "Maximum entries kept in the record store")
	serverStartCmd.Flags().String("log-level", "info", "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", "text", "Log format: text|json")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	rootCmd.AddCommand(clientcmd.NewLogCommand(transport), clientcmd.NewStoresCommand(transport))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
