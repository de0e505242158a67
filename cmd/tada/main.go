package main

import (
	"os"

	"github.com/Makepad-fr/tada/internal/cli"
)

// Set by -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(cli.Run(os.Args[1:], cli.Options{Version: version}))
}
