package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cristianoliveira/messenger-mirror/cmd"
	"github.com/cristianoliveira/messenger-mirror/internal/version"
	"github.com/spf13/cobra"
)

var versionOutputWriter io.Writer = os.Stdout

// PrintVersion writes the version line.
func PrintVersion() {
	fmt.Fprintf(versionOutputWriter, "messenger-mirror version %s\n", version.String())
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show the current version of messenger-mirror.`,
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, args []string) {
			versionOutputWriter = c.OutOrStdout()
			PrintVersion()
		},
	}
}

func init() {
	cmd.RootCmd.AddCommand(NewVersionCmd())
}
