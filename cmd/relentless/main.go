package main

import (
	"fmt"
	"os"

	"github.com/relentless-eng/relentless/internal/config"
)

func main() {
	config.LoadEnv()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
