package main

import (
	"os"

	"github.com/joseph-ayodele/tradeslip/cmd/tradeslip/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
