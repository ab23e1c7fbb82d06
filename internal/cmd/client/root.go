package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the SnakeByte client.
// It registers the queue command group.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "snakebyte",
		Short: "SnakeByte client commands",
	}
	root.AddCommand(NewQueueCommand(baseURL))
	return root
}
