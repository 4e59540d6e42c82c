package main

import (
	"fmt"
	"os"

	"github.com/ecompta-dev/ecompta/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
