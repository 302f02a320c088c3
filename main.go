package main

import (
	"os"

	"github.com/vzahanych/ph-weather/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
