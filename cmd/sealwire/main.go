package main

import (
	"os"

	"sealwire/cmd/sealwire/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
