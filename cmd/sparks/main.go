// Package main is the entrypoint for the sparks server and admin commands.
package main

import "sparks/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
