package main

import (
	"os"

	"github.com/reoring/mdform/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
