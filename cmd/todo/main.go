package main

import (
	"fmt"
	"os"

	"github.com/idilsaglam/todo-client/internal/cli"
)

func main() {
	// Flags and subcommands are parsed by the CLI; no args opens the TUI.
	code := cli.Run(os.Args[1:], cli.Options{})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
