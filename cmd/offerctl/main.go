package main

import (
	"os"

	"github.com/ignite/offer-monitor/cmd/offerctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
