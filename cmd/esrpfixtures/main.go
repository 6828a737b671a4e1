// Command esrpfixtures is the conformance and inspection CLI for the ESRP
// kernel: canonicalize or hash an arbitrary JSON value, validate a request
// record against the protocol's structural rules, and generate or verify
// the fixture corpus described in spec §6.
package main

import (
	"fmt"
	"os"

	"github.com/esrp/kernel/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
