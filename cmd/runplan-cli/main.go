package main

import "github.com/claude/runplan/internal/cli"

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	cli.Version = Version
	cli.Execute()
}
