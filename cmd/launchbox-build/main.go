// SPDX-License-Identifier: MPL-2.0

// Command launchbox-build builds the configured image from a local Dockerfile
// and (re)provisions its container.
package main

import (
	"os"

	"github.com/invowk/launchbox/internal/cli"
)

func main() {
	os.Exit(cli.Execute(cli.ProgramBuild))
}
