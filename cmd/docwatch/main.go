// Command docwatch browses a directory of vendor documents as incrementally
// loaded card groups in the terminal.
//
// Usage:
//
//	docwatch                      Browse the configured view (same as browse)
//	docwatch browse --vendor X    Browse one vendor, grouped by document type
//	docwatch index                Record the catalog in the SQLite index
//	docwatch serve                Serve GET /api/stats
//	docwatch stats                Print raw vs analysed coverage
//	docwatch show <link>          Print one document
//	docwatch events               JSONL event log viewer
package main

import "os"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}
