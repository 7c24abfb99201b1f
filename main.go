package main

import (
	"os"

	"ai-hedge-fund/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
