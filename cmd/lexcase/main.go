// Command lexcase runs the case assessment engine: one-shot analyses, the
// HTTP API, the Kafka worker and maintenance tasks.
package main

import (
	"os"

	"github.com/turtacn/LexCase-Intelligence/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	// Execute reports the error itself.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

//Personal.AI order the ending
