// Command pmdctl is the admin CLI for the police mobile directory. It runs
// the sheet syncs by hand, mirrors Firestore into a local cache for offline
// search and export, and bulk imports employees from spreadsheets.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
