package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/spf13/cobra"

	transports "github.com/yuuhhe/microlog/internal/cmd/client/transports"
)

// TransportFunc opens the transport a command talks through.
type TransportFunc func(cmd *cobra.Command) (transports.LogTransport, error)

// GRPCTransport dials the server named by MICROLOG_GRPC.
func GRPCTransport(cmd *cobra.Command) (transports.LogTransport, error) {
	return transports.NewGrpcTransport(cmd.Context(), dialGRPCContext)
}

func withTransport(cmd *cobra.Command, tf TransportFunc, fn func(transports.LogTransport) error) error {
	t, err := tf(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = t.Close() }()
	return fn(t)
}

// NewLogCommand constructs the `log` command group and subcommands.
func NewLogCommand(tf TransportFunc) *cobra.Command {
	logCmd := &cobra.Command{Use: "log", Short: "Log operations"}
	logCmd.AddCommand(
		newLogAppendCommand(tf),
		newLogViewCommand(tf),
		newLogCountCommand(tf),
		newLogSizeCommand(tf),
		newLogClearCommand(tf),
	)
	return logCmd
}

// newLogAppendCommand constructs the `log append` subcommand.
func newLogAppendCommand(tf TransportFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append MESSAGE",
		Short: "Append one entry to the configured log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("level")
			name, _ := cmd.Flags().GetString("name")
			at, _ := cmd.Flags().GetString("at")
			var ts int64
			if at != "" {
				if ms, err := strconv.ParseInt(at, 10, 64); err == nil {
					ts = ms
				} else if t, err := time.Parse(time.RFC3339, at); err == nil {
					ts = t.UnixMilli()
				} else {
					return fmt.Errorf("invalid --at; expected ms or RFC3339")
				}
			}
			return withTransport(cmd, tf, func(t transports.LogTransport) error {
				return t.Append(cmd.Context(), transports.AppendRequest{Name: name, Level: level, Message: args[0], Timestamp: ts})
			})
		},
	}
	cmd.Flags().String("level", "info", "Level: debug|info|warn|error|fatal")
	cmd.Flags().String("name", "", "Logger name")
	cmd.Flags().String("at", "", "Timestamp: RFC3339 or ms (default now)")
	return cmd
}

// newLogViewCommand constructs the `log view` subcommand.
func newLogViewCommand(tf TransportFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "view",
		Aliases: []string{"read"},
		Short:   "Print the log oldest first, or newest first with --desc",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _ := cmd.Flags().GetString("store")
			desc, _ := cmd.Flags().GetBool("desc")
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")
			order := "asc"
			if desc {
				order = "desc"
			}
			return withTransport(cmd, tf, func(t transports.LogTransport) error {
				entries, err := t.Read(cmd.Context(), transports.ReadRequest{Store: store, Order: order, Filter: filter, Limit: limit})
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					for _, e := range entries {
						if err := enc.Encode(e); err != nil {
							return err
						}
					}
					return nil
				}
				for _, e := range entries {
					fmt.Fprintln(cmd.OutOrStdout(), e.Text)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("store", "", "Record store (default: configured store)")
	cmd.Flags().Bool("desc", false, "Newest entries first")
	cmd.Flags().String("filter", "", "CEL filter over ts, text, size and now_ms")
	cmd.Flags().Int("limit", 0, "Print at most N entries (0 = all)")
	cmd.Flags().Bool("json", false, "Print one JSON object per entry")
	return cmd
}

func newLogCountCommand(tf TransportFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _ := cmd.Flags().GetString("store")
			return withTransport(cmd, tf, func(t transports.LogTransport) error {
				n, err := t.Count(cmd.Context(), store)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
	cmd.Flags().String("store", "", "Record store (default: configured store)")
	return cmd
}

func newLogSizeCommand(tf TransportFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Print the size of the configured store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, _ := cmd.Flags().GetBool("bytes")
			return withTransport(cmd, tf, func(t transports.LogTransport) error {
				n, err := t.Size(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatSize(n, raw))
				return nil
			})
		},
	}
	cmd.Flags().Bool("bytes", false, "Print the raw byte count")
	return cmd
}

func formatSize(n int64, raw bool) string {
	switch {
	case n < 0:
		return "undefined"
	case raw:
		return strconv.FormatInt(n, 10)
	default:
		return bytefmt.ByteSize(uint64(n))
	}
}

func newLogClearCommand(tf TransportFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry of a store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _ := cmd.Flags().GetString("store")
			return withTransport(cmd, tf, func(t transports.LogTransport) error {
				if err := t.Clear(cmd.Context(), store); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cleared")
				return nil
			})
		},
	}
	cmd.Flags().String("store", "", "Record store (default: configured store)")
	return cmd
}

// NewStoresCommand constructs the `stores` command, which lists record
// stores, and its `drop` subcommand.
func NewStoresCommand(tf TransportFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stores",
		Short: "List record stores",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withTransport(cmd, tf, func(t transports.LogTransport) error {
				names, err := t.Stores(cmd.Context())
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			})
		},
	}
	cmd.AddCommand(newStoresDropCommand(tf))
	return cmd
}

func newStoresDropCommand(tf TransportFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "drop NAME",
		Short: "Delete a record store and all its entries",
		Long:  "Delete a record store and all its entries. A server refuses to drop the store it appends to; use `log clear` for it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTransport(cmd, tf, func(t transports.LogTransport) error {
				if err := t.Drop(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", args[0])
				return nil
			})
		},
	}
}
