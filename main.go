package main

import (
	"os"

	"fairalloc/pkg/cli"
)

// Package main wires the process to the cli package.
// It intentionally stays very small so library code can be reused by callers
// that embed the allocators directly.
func main() {
	os.Exit(cli.Execute())
}
