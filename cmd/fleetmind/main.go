package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/fleetmind-ai/fleetmind/internal/adapters/driving/cli"
)

func main() {
	// Load .env file if present so provider keys can live next to the
	// binary during development.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
