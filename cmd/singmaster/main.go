// Package main is the single-binary entrypoint for SingMaster.
package main

import "github.com/shawHuaZe/SingMaster/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
