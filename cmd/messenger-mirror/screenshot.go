package main

import (
	"github.com/cristianoliveira/messenger-mirror/cmd"
	"github.com/cristianoliveira/messenger-mirror/internal/app"
	"github.com/spf13/cobra"
)

// NewScreenshotCmd creates the screenshot command.
func NewScreenshotCmd() *cobra.Command {
	var addr string

	screenshotCmd := &cobra.Command{
		Use:   "screenshot NAME",
		Short: "Save a screenshot of the running watcher's browser",
		Long:  `Ask a running watcher, through its debug server, to save <screenshot dir>/NAME.png.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if addr == "" {
				addr = loadSettings().Debug.Addr
			}
			return app.NewScreenshotUseCase().Execute(c.Context(), addr, args[0], c.OutOrStdout())
		},
	}
	screenshotCmd.Flags().StringVar(&addr, "addr", "", "debug server address (default debug_server_addr)")

	return screenshotCmd
}

func init() {
	cmd.RootCmd.AddCommand(NewScreenshotCmd())
}
