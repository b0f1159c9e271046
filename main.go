package main

import (
	"os"

	"github.com/skywise-ai/skywise/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
