// Command sheetcheck verifies that the configured service account can reach
// the visitor spreadsheet, and can append a test row on request.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
