package main

import (
	"os"

	"github.com/go-rpm/rpm/internal/cmd"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(cmd.RunWithArgs(os.Args[1:], version))
}
