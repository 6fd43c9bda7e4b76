// Command ocr-layout extracts text regions and barcodes from scanned
// documents, and serves the same operations as MCP tools over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/ocr-layout-mcp/internal/logger"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	err := Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
