// vm1600 is the command-line front end for the fixed-width word
// simulator: it runs or single-steps a program image against the
// console or SDL bridge.
package main

import (
	"fmt"
	"os"

	"vm1600/internal/cli"
)

func main() {
	if err := cli.App().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "vm1600:", err)
		os.Exit(1)
	}
}
