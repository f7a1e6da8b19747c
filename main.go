package main

import (
	"os"

	"github.com/jobscope/jobscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
