package main

import (
	"os"

	"github.com/sizzlebits/layerlens/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
