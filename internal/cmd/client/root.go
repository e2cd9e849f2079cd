package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the microlog client with the
// log and stores command groups.
func NewRoot(tf TransportFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "microlog",
		Short: "microlog client commands",
	}
	root.AddCommand(NewLogCommand(tf), NewStoresCommand(tf))
	return root
}
