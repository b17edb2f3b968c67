package main

import (
	"os"

	"github.com/samkraft/samkraft-api/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
