// apollo CLI - resolves GraphQL project configuration, schemas and documents
package main

import "github.com/craigrmccown/apollo-cli/pkg/cli"

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
