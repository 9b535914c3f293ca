// Package cmd holds the root command shared by the messenger-mirror subcommands.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/cristianoliveira/messenger-mirror/internal/config"
	"github.com/cristianoliveira/messenger-mirror/internal/version"
	"github.com/spf13/cobra"
)

var configPath string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "messenger-mirror",
	Short: "Relay unread Messenger conversations as batched notifications.",
	Long: `Watches a Messenger inbox in a browser session and relays new messages
as deduplicated, batched notifications.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			return os.Setenv(config.EnvPrefix+"CONFIG_PATH", configPath)
		}
		return nil
	},
}

// Execute runs the root command. main maps a non-nil error to exit code 1.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.Version = version.String()

	// Hide the completion command
	RootCmd.CompletionOptions.HiddenDefaultCmd = true

	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <config_dir>/config.toml)")

	RootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != RootCmd {
			fmt.Fprint(cmd.OutOrStdout(), cmd.UsageString())
			return
		}
		printHelpText(cmd)
	})
}

func printHelpText(cmd *cobra.Command) {
	commandOrder := []string{
		"run",
		"flush",
		"queue",
		"screenshot",
		"version",
	}

	var cmdLines []string
	for _, name := range commandOrder {
		var found *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = c
				break
			}
		}
		if found == nil {
			continue
		}
		cmdLines = append(cmdLines, fmt.Sprintf("    %-16s %s", found.Name(), found.Short))
	}

	helpText := fmt.Sprintf(`messenger-mirror v%s

%s

USAGE:
    messenger-mirror [COMMAND] [OPTIONS]

COMMANDS:
%s

OPTIONS:
    --config PATH   Config file (TOML or YAML)
    -h, --help      Show help message

Every setting can also be given as %s<KEY> in the environment.
`, version.String(), cmd.Short, strings.Join(cmdLines, "\n"), config.EnvPrefix)
	fmt.Fprint(cmd.OutOrStdout(), helpText)
}
