package main

import (
	"fmt"
	"os"

	"github.com/vexsearch/vexdb/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "vexdb: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
