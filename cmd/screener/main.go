package main

import (
	"os"

	"github.com/wonny/borsa-screener/cmd/screener/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
