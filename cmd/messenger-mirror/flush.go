package main

import (
	"github.com/cristianoliveira/messenger-mirror/cmd"
	"github.com/cristianoliveira/messenger-mirror/internal/app"
	"github.com/spf13/cobra"
)

// NewFlushCmd creates the flush command.
func NewFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Deliver queued notifications now",
		Long:  `Drain the queue and deliver every pending notification without waiting for the next interval.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			s, log, err := bootstrap("flush")
			if err != nil {
				return err
			}
			defer log.Shutdown()

			queue, err := openQueue(c.Context(), s)
			if err != nil {
				return err
			}
			defer queue.Close()

			scheduler, err := newScheduler(queue, s, log)
			if err != nil {
				return err
			}
			return app.NewFlushUseCase(scheduler).Execute(c.Context(), c.OutOrStdout())
		},
	}
}

func init() {
	cmd.RootCmd.AddCommand(NewFlushCmd())
}
