package main

import (
	"os"

	"github.com/abhisek/mathprobe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
