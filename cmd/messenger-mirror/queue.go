package main

import (
	"github.com/cristianoliveira/messenger-mirror/cmd"
	"github.com/cristianoliveira/messenger-mirror/internal/app"
	"github.com/spf13/cobra"
)

// NewQueueCmd creates the queue command and its subcommands.
func NewQueueCmd() *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the notification queue",
		Args:  cobra.NoArgs,
	}
	queueCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending notifications",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			s, log, err := bootstrap("queue list")
			if err != nil {
				return err
			}
			defer log.Shutdown()

			queue, err := openQueue(c.Context(), s)
			if err != nil {
				return err
			}
			defer queue.Close()

			return app.NewQueueListUseCase(queue).Execute(c.Context(), c.OutOrStdout())
		},
	})
	return queueCmd
}

func init() {
	cmd.RootCmd.AddCommand(NewQueueCmd())
}
