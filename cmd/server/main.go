package main

import (
	"os"
)

// main hands off to the cobra root command. Each subcommand builds its own
// dependencies from the environment.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
