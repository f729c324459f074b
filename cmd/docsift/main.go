package main

import (
	"fmt"
	"os"

	"github.com/harborline/docsift/internal/adapters/driving/cli"
)

// version is overridden by the linker for release builds.
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
