// Package main is the single-binary entrypoint for gitscribe.
package main

import "github.com/gitscribe/gitscribe/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
