package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"quant-engine/internal/cli"
)

func main() {
	// Environment files are optional; existing variables win.
	for _, file := range []string{".env", ".env.local"} {
		_ = godotenv.Load(file)
	}

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
