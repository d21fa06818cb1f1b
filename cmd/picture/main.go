package main

import (
	"os"

	"mosaic-picture/cmd/picture/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
