package main

import (
	"os"

	"github.com/grokparty/grokparty/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
