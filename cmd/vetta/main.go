package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Exit codes for different failure modes
const (
	ExitSuccess = 0 // Command completed
	ExitError   = 1 // Configuration or runtime error
)

func main() {
	// Load .env if present; a missing file is fine.
	_ = godotenv.Load()

	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitError)
	}
}
