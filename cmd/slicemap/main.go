// Command slicemap runs, validates and inspects scenarios for apps built
// from mapped state slices.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/slicemap/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		// Commands silence cobra's own error printing.
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
