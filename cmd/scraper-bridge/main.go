// Command scraper-bridge connects a scraper to RT-CV from outside the
// scraper process. It runs the inbound router RT-CV calls back into, accepts
// scraped CVs over HTTP and forwards them with the usual gates, retries and
// mirroring.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
