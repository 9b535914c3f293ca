package main

import (
	"os"

	"github.com/cristianoliveira/messenger-mirror/cmd"
	"github.com/cristianoliveira/messenger-mirror/internal/colors"
)

func main() {
	os.Exit(run(cmd.Execute))
}

// run maps the command result to the process exit code: 0 on a clean
// shutdown, 1 on a startup error or a watcher that gave up.
func run(execute func() error) int {
	if err := execute(); err != nil {
		// The command logger is already shut down at this point.
		colors.SetLogger(nil)
		colors.Error(err.Error())
		return 1
	}
	return 0
}
