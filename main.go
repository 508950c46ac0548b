package main

import (
	"os"

	"github.com/cvflow/cvflow-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
