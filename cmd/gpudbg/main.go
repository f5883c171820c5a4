package main

import (
	"fmt"
	"os"

	"github.com/ben-clayton/gpudbg/cmd/gpudbg/cmds"
)

func main() {
	if err := cmds.New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
