// Package main is the single-binary entrypoint for the Inschoolz
// progression engine.
package main

import "github.com/inschoolz/engine/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
