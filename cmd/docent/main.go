// Command docent runs the documentation assistant: an interactive REPL, an
// HTTP SSE server and a documentation ingestion pipeline.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
