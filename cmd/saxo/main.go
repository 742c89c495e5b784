package main

import (
	"os"

	"github.com/rustyeddy/saxo/cmd/saxo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
