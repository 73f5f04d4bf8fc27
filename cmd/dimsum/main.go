// Command dimsum loads and inspects persisted world entities.
package main

import (
	"fmt"
	"os"

	"github.com/jlewallen/dimsum/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dimsum:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
